package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/search"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory/linear"
)

func newSolver() *Solver {
	return New(core.NewConfig())
}

func TestAddClauseAndSolveFindsModel(t *testing.T) {
	s := newSolver()
	v0, err := s.NewVar(0, 1)
	require.NoError(t, err)
	v1, err := s.NewVar(0, 1)
	require.NoError(t, err)

	require.NoError(t, s.AddClause(sv.GEq(v0, 1), sv.GEq(v1, 1)))

	out := s.Solve()
	require.Equal(t, search.Sat, out.Verdict)
}

func TestReifyOrCachesIdenticalShape(t *testing.T) {
	s := newSolver()
	v0, _ := s.NewVar(0, 1)
	v1, _ := s.NewVar(0, 1)

	expr := Expr{Kind: ExprOr, Lits: []sv.Literal{sv.GEq(v0, 1), sv.GEq(v1, 1)}}
	r1, err := s.Reify(expr)
	require.NoError(t, err)
	r2, err := s.Reify(expr)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
}

func TestEnforceIfPostsGuardedConstraint(t *testing.T) {
	s := newSolver()
	guardVar, _ := s.NewVar(0, 1)
	guard := sv.GEq(guardVar, 1)
	x, _ := s.NewVar(0, 1)

	require.NoError(t, s.Enforce(guard)) // force the guard true
	require.NoError(t, s.EnforceIf(guard, Expr{Kind: ExprOr, Lits: []sv.Literal{sv.GEq(x, 1)}}))

	out := s.Solve()
	require.Equal(t, search.Sat, out.Verdict)
	assert.Equal(t, core.IntCst(1), out.Model[x])
}

func TestOptionalVariableCanGoAbsent(t *testing.T) {
	s := newSolver()
	presence, err := s.NewPresence()
	require.NoError(t, err)
	v, err := s.NewOptionalVar(5, 10, presence)
	require.NoError(t, err)

	// Force presence false; the solver must not report a contradiction
	// just because v's only feasible domain would be inconsistent.
	require.NoError(t, s.Enforce(presence.Negate()))

	out := s.Solve()
	require.Equal(t, search.Sat, out.Verdict)
	_, ok := out.Model[v]
	assert.False(t, ok, "absent optional variable should not appear in the model")
}

func TestLinearReificationThroughModel(t *testing.T) {
	s := newSolver()
	x, _ := s.NewVar(0, 5)
	y, _ := s.NewVar(0, 5)

	r, err := s.Reify(Expr{
		Kind:  ExprLinLe,
		Terms: []linear.Term{{Coeff: 1, Var: x}, {Coeff: 1, Var: y}},
		Bound: 4,
	})
	require.NoError(t, err)
	require.NoError(t, s.Enforce(r))

	out := s.Solve()
	require.Equal(t, search.Sat, out.Verdict)
	assert.LessOrEqual(t, out.Model[x]+out.Model[y], core.IntCst(4))
}

func TestSolveTerminatesWithFixedDomainOptionalVarAndNoOtherConstraint(t *testing.T) {
	s := newSolver()
	p, err := s.NewPresence()
	require.NoError(t, err)
	_, err = s.NewOptionalVar(5, 5, p)
	require.NoError(t, err)

	out := s.Solve()
	require.Equal(t, search.Sat, out.Verdict)
}

func TestEnumerateVisitsEveryValueExactlyOnce(t *testing.T) {
	s := newSolver()
	v, _ := s.NewVar(0, 2)

	seen := make(map[core.IntCst]bool)
	out := s.Enumerate([]core.VarId{v}, func(model map[core.VarId]core.IntCst) bool {
		seen[model[v]] = true
		return true
	})

	require.Equal(t, search.Unsat, out.Verdict)
	assert.Equal(t, map[core.IntCst]bool{0: true, 1: true, 2: true}, seen)
}

func TestEnumerateStopsEarlyWhenYieldReturnsFalse(t *testing.T) {
	s := newSolver()
	v, _ := s.NewVar(0, 2)

	count := 0
	out := s.Enumerate([]core.VarId{v}, func(model map[core.VarId]core.IntCst) bool {
		count++
		return false
	})

	assert.Equal(t, search.Sat, out.Verdict)
	assert.Equal(t, 1, count)
}

func TestElementConstraintPicksArrayValueAtIndex(t *testing.T) {
	s := newSolver()
	index, _ := s.NewVar(1, 3)
	result, _ := s.NewVar(0, 100)

	r, err := s.Reify(Expr{
		Kind:   ExprElement,
		Result: result,
		Array:  []core.IntCst{10, 20, 30},
		Index:  index,
	})
	require.NoError(t, err)
	require.NoError(t, s.Enforce(r))
	require.NoError(t, s.Enforce(sv.LEq(index, 2)))
	require.NoError(t, s.Enforce(sv.GEq(index, 2)))

	out := s.Solve()
	require.Equal(t, search.Sat, out.Verdict)
	assert.Equal(t, core.IntCst(20), out.Model[result])
}
