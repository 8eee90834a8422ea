// Package sv implements the literal algebra of spec §4.2: signed
// variables and the literals built on them. Every atomic assertion in
// the solver — a decision, a clause literal, a theory-posted bound —
// reduces to one Literal.
//
// Grounded on the teacher's sat/types.go Literal/Clause pair
// (string-keyed, unsigned), generalized to the dense signed-integer
// scheme spec §3/§4.2 requires.
package sv

import (
	"fmt"

	"github.com/solverforge/chronicle-solver/core"
)

// SignedVar encodes "the upper bound of v" (Positive) or "the upper
// bound of -v", i.e. a lower bound on v (negative sign). Every bound
// literal lives on exactly one SignedVar.
type SignedVar struct {
	Var  core.VarId
	Plus bool // true: encodes ub(v); false: encodes ub(-v) == -lb(v)
}

// Pos builds the signed variable encoding v's upper bound.
func Pos(v core.VarId) SignedVar { return SignedVar{Var: v, Plus: true} }

// Neg builds the signed variable encoding v's lower bound.
func Neg(v core.VarId) SignedVar { return SignedVar{Var: v, Plus: false} }

// Flip returns the signed variable of the same Var but opposite sign.
func (s SignedVar) Flip() SignedVar { return SignedVar{Var: s.Var, Plus: !s.Plus} }

func (s SignedVar) String() string {
	if s.Plus {
		return fmt.Sprintf("+v%d", s.Var)
	}
	return fmt.Sprintf("-v%d", s.Var)
}

// Literal asserts `signed_var <= value`. Any single-variable linear
// inequality normalizes to exactly one Literal (equality normalizes to
// two, see EqLiterals below).
type Literal struct {
	SVar  SignedVar
	Value core.IntCst
}

// True is a literal trivially entailed by every domain (0 <= MaxIntCst
// on the always-present ZeroVar).
var True = Literal{SVar: Pos(core.ZeroVar), Value: core.MaxIntCst}

// False is the negation of True: never entailed.
var False = Literal{SVar: Pos(core.ZeroVar), Value: core.MinIntCst - 1}

// LEq builds the literal asserting v <= k.
func LEq(v core.VarId, k core.IntCst) Literal { return Literal{SVar: Pos(v), Value: k} }

// GEq builds the literal asserting v >= k, i.e. -v <= -k.
func GEq(v core.VarId, k core.IntCst) Literal { return Literal{SVar: Neg(v), Value: -k} }

// LT builds v < k, i.e. v <= k-1.
func LT(v core.VarId, k core.IntCst) Literal { return LEq(v, k-1) }

// GT builds v > k, i.e. v >= k+1.
func GT(v core.VarId, k core.IntCst) Literal { return GEq(v, k+1) }

// EqLiterals returns the two literals (v <= k, v >= k) whose conjunction
// asserts v == k, per spec §4.2 "Equality v = k normalizes to two literals".
func EqLiterals(v core.VarId, k core.IntCst) (Literal, Literal) {
	return LEq(v, k), GEq(v, k)
}

// Negate returns the integer-exact negation: exactly one of lit, ¬lit
// is entailed in any total assignment where both endpoints are
// present (spec §4.2).
func (l Literal) Negate() Literal {
	return Literal{SVar: l.SVar.Flip(), Value: -l.Value - 1}
}

// Entails reports lit ⇒ other: same signed variable, and lit is at
// least as strong (spec §4.2, O(1) by construction).
func (l Literal) Entails(other Literal) bool {
	return l.SVar == other.SVar && l.Value <= other.Value
}

// Var is the underlying variable of the literal's signed variable.
func (l Literal) Var() core.VarId { return l.SVar.Var }

// IsUpperBound reports whether this literal bounds v from above (as
// opposed to bounding v from below via the negative signed variable).
func (l Literal) IsUpperBound() bool { return l.SVar.Plus }

func (l Literal) String() string {
	if l.SVar.Plus {
		return fmt.Sprintf("v%d<=%d", l.SVar.Var, l.Value)
	}
	return fmt.Sprintf("v%d>=%d", l.SVar.Var, -l.Value)
}

// Stronger returns the literal that entails the other, given both
// share a signed variable; used to canonicalize duplicate literals on
// the same chain during conflict analysis (spec §4.5: "keep the
// strongest literal per signed variable").
func Stronger(a, b Literal) Literal {
	if a.SVar != b.SVar {
		core.Violation("sv", "Stronger called on literals of different signed variables: %v %v", a, b)
	}
	if a.Value <= b.Value {
		return a
	}
	return b
}
