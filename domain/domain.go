// Package domain implements the Domains store of spec §4.1: a dense
// VarId → (lb, ub, presence, cause indices) map with the presence-aware
// `set` primitive that lets an optional variable silently go absent
// instead of producing a spurious global contradiction.
//
// Grounded on the teacher's sat/types.go Assignment map, generalized
// from boolean string-keyed assignment to integer bounds over dense
// VarId, and on the presence rule described informally in
// original_source/ (aries' optional-variable model, see SPEC_FULL.md).
package domain

import (
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/trail"
)

// SetOutcome is the result of Domains.set, per spec §4.1.
type SetOutcome uint8

const (
	// NoChange: lit was already entailed.
	NoChange SetOutcome = iota
	// Tightened: the bound moved and an event was appended.
	Tightened
	// Contradiction: the new bound would empty the domain of a
	// present variable.
	Contradiction
	// AbsentSoFine: the variable is known absent; the update was
	// silently dropped.
	AbsentSoFine
)

type varState struct {
	ub, lb       core.IntCst
	ubCause      int32 // trail index of the event that last tightened ub, or -1
	lbCause      int32
	presence     sv.Literal // literal whose entailment means "this var exists"
}

// Domains owns every variable's bounds and presence literal, and the
// trail events produced by bound updates.
type Domains struct {
	vars  []varState
	trail *trail.Trail

	// Each varState keeps its current trail causes (ubCause/lbCause)
	// here, not recomputed from the trail, so entails/bounds stay O(1).
}

// New returns an empty Domains store wired to the given trail. It
// registers itself as an undo subscriber so backtracking restores
// bounds automatically.
func New(t *trail.Trail) *Domains {
	d := &Domains{trail: t}
	t.Register(d)
	// ZeroVar always exists with domain [0,0] and presence true.
	d.vars = append(d.vars, varState{ub: 0, lb: 0, ubCause: -1, lbCause: -1, presence: sv.True})
	return d
}

// NewVar allocates a variable with the given bounds and presence
// literal. Fails (ModelError) if lb > ub (spec §4.1).
func (d *Domains) NewVar(lb, ub core.IntCst, presence sv.Literal) (core.VarId, error) {
	if lb > ub {
		return 0, core.NewModelError("Domains.NewVar", "lb > ub")
	}
	id := core.VarId(len(d.vars))
	d.vars = append(d.vars, varState{ub: ub, lb: lb, ubCause: -1, lbCause: -1, presence: presence})
	return id, nil
}

// Bounds returns (lb, ub) for a variable, O(1).
func (d *Domains) Bounds(v core.VarId) (core.IntCst, core.IntCst) {
	s := &d.vars[v]
	return s.lb, s.ub
}

// Presence returns the presence literal of v.
func (d *Domains) Presence(v core.VarId) sv.Literal {
	return d.vars[v].presence
}

// valueOf reads the current bound on a signed variable: ub(v) if Plus,
// else -lb(v).
func (d *Domains) valueOf(svar sv.SignedVar) core.IntCst {
	s := &d.vars[svar.Var]
	if svar.Plus {
		return s.ub
	}
	return -s.lb
}

func (d *Domains) causeOf(svar sv.SignedVar) *int32 {
	s := &d.vars[svar.Var]
	if svar.Plus {
		return &s.ubCause
	}
	return &s.lbCause
}

// Entails reports whether lit currently holds, O(1) (spec §4.2).
func (d *Domains) Entails(lit sv.Literal) bool {
	return d.valueOf(lit.SVar) <= lit.Value
}

// IsKnownAbsent reports whether the variable's presence literal is
// currently entailed false.
func (d *Domains) IsKnownAbsent(v core.VarId) bool {
	p := d.vars[v].presence
	return d.Entails(p.Negate())
}

// IsKnownPresent reports whether the variable's presence literal is
// currently entailed true.
func (d *Domains) IsKnownPresent(v core.VarId) bool {
	return d.Entails(d.vars[v].presence)
}

// Set attempts to make lit true, following the algorithm of spec §4.1:
//
//  1. already entailed -> NoChange
//  2. would empty a known-absent variable's domain -> AbsentSoFine
//  3. would empty a required variable's domain -> Contradiction
//  4. would empty an optional variable's domain -> infer presence=false,
//     drop the update, and return Tightened (the event recorded is the
//     presence literal, not the bound)
//  5. otherwise append the bound event and return Tightened.
//
// The presence rule (steps 2-4) is applied atomically here: no caller
// ever observes an intermediate state with an empty required domain.
func (d *Domains) Set(lit sv.Literal, origin trail.Origin) (SetOutcome, core.VarId) {
	if d.Entails(lit) {
		return NoChange, 0
	}

	v := lit.Var()
	s := &d.vars[v]

	wouldEmpty := d.wouldEmptyDomain(lit)

	if !wouldEmpty {
		d.applyTighten(lit, origin)
		return Tightened, 0
	}

	if d.IsKnownAbsent(v) {
		return AbsentSoFine, 0
	}

	if d.IsKnownPresent(v) {
		return Contradiction, v
	}

	// Presence undecided and domain would empty: infer presence=false.
	presenceFalse := s.presence.Negate()
	d.applyTighten(presenceFalse, trail.Origin{Kind: trail.OriginPresence})
	return Tightened, 0
}

// wouldEmptyDomain reports whether asserting lit would make lb > ub
// for v, i.e. lit crosses the opposite bound strictly.
func (d *Domains) wouldEmptyDomain(lit sv.Literal) bool {
	s := &d.vars[lit.Var()]
	if lit.SVar.Plus {
		// new ub candidate is lit.Value (only tightens if smaller)
		newUB := lit.Value
		if newUB >= s.ub {
			return false
		}
		return newUB < s.lb
	}
	newLB := -lit.Value
	if newLB <= s.lb {
		return false
	}
	return newLB > s.ub
}

func (d *Domains) applyTighten(lit sv.Literal, origin trail.Origin) {
	s := &d.vars[lit.Var()]
	cause := d.causeOf(lit.SVar)
	prevValue := d.valueOf(lit.SVar)
	idx := d.trail.Push(lit.SVar, prevValue, *cause, lit.Value, origin)
	*cause = idx
	if lit.SVar.Plus {
		s.ub = lit.Value
	} else {
		s.lb = -lit.Value
	}
}

// Undo implements the trail's undoer interface: it reverts exactly the
// bound this event tightened, restoring the previous cause index too
// so repeated save/restore cycles remain correct.
func (d *Domains) Undo(e trail.Event) {
	s := &d.vars[e.SVar.Var]
	if e.SVar.Plus {
		s.ub = e.PrevValue
		s.ubCause = e.PrevCause
	} else {
		s.lb = -e.PrevValue
		s.lbCause = e.PrevCause
	}
}

// CauseIndex returns the trail index that last tightened the given
// signed variable's bound, or -1 if it has never been tightened past
// its initial value. Used by the explainer to walk backward from a
// literal to its origin.
func (d *Domains) CauseIndex(svar sv.SignedVar) int32 {
	return *d.causeOf(svar)
}

// NumVars returns the number of allocated variables, including ZeroVar.
func (d *Domains) NumVars() int { return len(d.vars) }
