package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/clausedb"
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/search"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/trail"
)

func satDriverFactory(seed int64, _ int) *search.Driver {
	t := trail.New()
	d := domain.New(t)
	db := clausedb.New(d)
	v0, _ := d.NewVar(0, 1, sv.True)
	v1, _ := d.NewVar(0, 1, sv.True)
	db.AddClause([]sv.Literal{sv.GEq(v0, 1), sv.GEq(v1, 1)}, false)
	cfg := core.NewConfig()
	cfg.Seed = seed
	return search.New(cfg, t, d, db)
}

func TestRunSingleWorkerSolvesDirectly(t *testing.T) {
	out := Run(context.Background(), 1, 1, satDriverFactory)
	assert.Equal(t, search.Sat, out.Verdict)
}

func TestRunMultipleWorkersReturnsFirstVerdict(t *testing.T) {
	out := Run(context.Background(), 4, 1, satDriverFactory)
	assert.Equal(t, search.Sat, out.Verdict)
}

func TestRunReturnsUnsatWhenEveryWorkerProvesUnsat(t *testing.T) {
	unsatFactory := func(seed int64, idx int) *search.Driver {
		t := trail.New()
		d := domain.New(t)
		db := clausedb.New(d)
		v0, _ := d.NewVar(0, 1, sv.True)
		db.AddClause([]sv.Literal{sv.GEq(v0, 1)}, false)
		db.AddClause([]sv.Literal{sv.LEq(v0, 0)}, false)
		return search.New(core.NewConfig(), t, d, db)
	}

	out := Run(context.Background(), 2, 1, unsatFactory)
	require.Equal(t, search.Unsat, out.Verdict)
}

func TestRunCancelledContextYieldsCancelledVerdictOrAnAlreadyFoundVerdict(t *testing.T) {
	// A pre-cancelled context races the near-instant solve below; either
	// outcome is correct so long as Run never blocks or panics.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := Run(ctx, 2, 1, satDriverFactory)
	assert.Contains(t, []search.Verdict{search.Sat, search.Cancelled}, out.Verdict)
}
