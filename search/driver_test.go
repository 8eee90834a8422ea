package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/clausedb"
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/trail"
)

func newDriver() (*Driver, *domain.Domains, *clausedb.DB) {
	t := trail.New()
	d := domain.New(t)
	db := clausedb.New(d)
	cfg := core.NewConfig()
	return New(cfg, t, d, db), d, db
}

func TestSolveFindsSatisfyingAssignment(t *testing.T) {
	drv, d, db := newDriver()
	v0, err := d.NewVar(0, 1, sv.True)
	require.NoError(t, err)
	v1, err := d.NewVar(0, 1, sv.True)
	require.NoError(t, err)

	_, err = db.AddClause([]sv.Literal{sv.GEq(v0, 1), sv.GEq(v1, 1)}, false)
	require.NoError(t, err)

	out := drv.Solve()
	require.Equal(t, Sat, out.Verdict)
	assert.True(t, out.Model[v0] == 1 || out.Model[v1] == 1)
}

func TestSolveDetectsRootLevelUnsat(t *testing.T) {
	drv, d, db := newDriver()
	v0, err := d.NewVar(0, 1, sv.True)
	require.NoError(t, err)

	_, err = db.AddClause([]sv.Literal{sv.GEq(v0, 1)}, false)
	require.NoError(t, err)
	_, err = db.AddClause([]sv.Literal{sv.LEq(v0, 0)}, false)
	require.NoError(t, err)

	out := drv.Solve()
	assert.Equal(t, Unsat, out.Verdict)
}

func TestSolveDetectsUnsatAfterBranching(t *testing.T) {
	drv, d, db := newDriver()
	v0, _ := d.NewVar(0, 1, sv.True)
	v1, _ := d.NewVar(0, 1, sv.True)

	// v0 XOR-like contradiction forcing both branches to fail:
	// (v0 or v1), (not v0 or v1), (v0 or not v1), (not v0 or not v1)
	// is UNSAT (no assignment of two booleans satisfies all four).
	clauses := [][]sv.Literal{
		{sv.GEq(v0, 1), sv.GEq(v1, 1)},
		{sv.LEq(v0, 0), sv.GEq(v1, 1)},
		{sv.GEq(v0, 1), sv.LEq(v1, 0)},
		{sv.LEq(v0, 0), sv.LEq(v1, 0)},
	}
	for _, c := range clauses {
		_, err := db.AddClause(c, false)
		require.NoError(t, err)
	}

	out := drv.Solve()
	assert.Equal(t, Unsat, out.Verdict)
}

func TestMinimizeFindsSmallestFeasibleValue(t *testing.T) {
	drv, d, db := newDriver()
	v, err := d.NewVar(0, 10, sv.True)
	require.NoError(t, err)

	_, err = db.AddClause([]sv.Literal{sv.GEq(v, 3)}, false)
	require.NoError(t, err)

	drv.Minimize(v)
	out := drv.Solve()

	require.Equal(t, Sat, out.Verdict)
	assert.Equal(t, core.IntCst(3), out.Model[v])
}

// TestSolvePigeonhole4in3IsUnsatWithLearnedClauses runs spec scenario
// 1 (4 pigeons, 3 holes, each pigeon in exactly one hole, no hole
// shared) through the full CDCL driver, not just bare BCP: pigeonhole
// is a classic case that requires branching and clause learning to
// resolve, unlike clausedb's root-level-BCP cross-check against gini.
func TestSolvePigeonhole4in3IsUnsatWithLearnedClauses(t *testing.T) {
	const pigeons, holes = 4, 3
	drv, d, db := newDriver()

	x := make([][]core.VarId, pigeons)
	for p := 0; p < pigeons; p++ {
		x[p] = make([]core.VarId, holes)
		for h := 0; h < holes; h++ {
			v, err := d.NewVar(0, 1, sv.True)
			require.NoError(t, err)
			x[p][h] = v
		}
	}

	for p := 0; p < pigeons; p++ {
		var lits []sv.Literal
		for h := 0; h < holes; h++ {
			lits = append(lits, sv.GEq(x[p][h], 1))
		}
		_, err := db.AddClause(lits, false)
		require.NoError(t, err)
	}
	for h := 0; h < holes; h++ {
		for p1 := 0; p1 < pigeons; p1++ {
			for p2 := p1 + 1; p2 < pigeons; p2++ {
				_, err := db.AddClause([]sv.Literal{sv.LEq(x[p1][h], 0), sv.LEq(x[p2][h], 0)}, false)
				require.NoError(t, err)
			}
		}
	}

	out := drv.Solve()

	require.Equal(t, Unsat, out.Verdict)
	assert.GreaterOrEqual(t, drv.Statistics().LearnedClauses, int64(1))
	assert.Equal(t, core.RootLvl, drv.t.DecisionLevel())
}

func TestInterruptStopsSearchWithoutAFalseVerdict(t *testing.T) {
	drv, d, _ := newDriver()
	_, err := d.NewVar(0, 1, sv.True)
	require.NoError(t, err)

	drv.Interrupt().Fire()
	out := drv.Solve()
	assert.Equal(t, Cancelled, out.Verdict)
}
