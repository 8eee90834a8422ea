package stn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory"
	"github.com/solverforge/chronicle-solver/trail"
)

func newSTN(nvars int) (*domain.Domains, *STN, []core.VarId) {
	t := trail.New()
	d := domain.New(t)
	vars := make([]core.VarId, nvars)
	for i := range vars {
		v, err := d.NewVar(core.MinIntCst/2, core.MaxIntCst/2, sv.True)
		if err != nil {
			panic(err)
		}
		vars[i] = v
	}
	return d, New(), vars
}

func TestPropagateTightensThroughChainOfEdges(t *testing.T) {
	d, s, v := newSTN(3)

	// v1 - v0 <= 5, v2 - v1 <= 3  =>  v2 - v0 <= 8
	s.AddEdge(Edge{From: v[0], To: v[1], Weight: 5, Presence: sv.True})
	s.AddEdge(Edge{From: v[1], To: v[2], Weight: 3, Presence: sv.True})

	d.Set(sv.LEq(v[0], 0), trail.Origin{Kind: trail.OriginRoot})

	err := s.Propagate(d)
	require.NoError(t, err)

	_, ub := d.Bounds(v[2])
	assert.LessOrEqual(t, ub, core.IntCst(8))
}

func TestPropagateDetectsNegativeCycle(t *testing.T) {
	d, s, v := newSTN(2)

	// v1 - v0 <= -1 and v0 - v1 <= -1 is a negative cycle (sum = -2 < 0).
	s.AddEdge(Edge{From: v[0], To: v[1], Weight: -1, Presence: sv.True})
	s.AddEdge(Edge{From: v[1], To: v[0], Weight: -1, Presence: sv.True})

	err := s.Propagate(d)
	require.Error(t, err)

	var contr *theory.Contradiction
	require.ErrorAs(t, err, &contr)
}

func TestInactiveOptionalEdgeIsSkipped(t *testing.T) {
	d, s, v := newSTN(2)

	presenceVar, err := d.NewVar(0, 1, sv.True)
	require.NoError(t, err)
	presence := sv.GEq(presenceVar, 1)

	s.AddEdge(Edge{From: v[0], To: v[1], Weight: -100, Presence: presence})
	d.Set(presence.Negate(), trail.Origin{Kind: trail.OriginRoot})
	d.Set(sv.LEq(v[0], 0), trail.Origin{Kind: trail.OriginRoot})

	err = s.Propagate(d)
	require.NoError(t, err)

	_, ub := d.Bounds(v[1])
	assert.Equal(t, core.MaxIntCst/2, ub)
}

func TestSaveRestoreUndoesAddedEdges(t *testing.T) {
	_, s, v := newSTN(2)

	s.SaveState()
	s.AddEdge(Edge{From: v[0], To: v[1], Weight: 1, Presence: sv.True})
	require.Len(t, s.edges, 1)

	s.RestoreLast()
	assert.Len(t, s.edges, 0)
}
