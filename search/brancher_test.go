package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/trail"
)

func TestVSIDSPicksHighestActivityUnfixedVar(t *testing.T) {
	tr := trail.New()
	d := domain.New(tr)
	v1, _ := d.NewVar(0, 10, sv.True)
	v2, _ := d.NewVar(0, 10, sv.True)

	vs := NewVSIDS(func() int { return d.NumVars() }, 0.95, 1)
	vs.Update([]sv.Literal{sv.LEq(v2, 5)}) // bump v2 only

	lit, ok := vs.NextDecision(d)
	require.True(t, ok)
	assert.Equal(t, v2, lit.Var())
	_ = v1
}

func TestVSIDSReturnsFalseWhenEverythingFixed(t *testing.T) {
	tr := trail.New()
	d := domain.New(tr)
	v1, _ := d.NewVar(3, 3, sv.True)

	vs := NewVSIDS(func() int { return d.NumVars() }, 0.95, 1)
	_, ok := vs.NextDecision(d)
	assert.False(t, ok)
	_ = v1
}

func TestVSIDSDecidesPresenceWhenDomainIsAlreadyAPoint(t *testing.T) {
	tr := trail.New()
	d := domain.New(tr)
	presenceVar, _ := d.NewVar(0, 1, sv.True)
	presence := sv.GEq(presenceVar, 1)
	v, _ := d.NewVar(5, 5, presence) // domain collapsed to a point, presence undecided

	vs := NewVSIDS(func() int { return d.NumVars() }, 0.95, 1)
	vs.Update([]sv.Literal{sv.LEq(v, 5)}) // make v, not presenceVar, the branching candidate
	lit, ok := vs.NextDecision(d)
	require.True(t, ok)
	assert.Equal(t, presence, lit, "a fixed-domain var with undecided presence must yield a presence decision, not its already-entailed bound")
	assert.NotEqual(t, v, lit.Var(), "the returned literal must be on the presence variable, not v itself")
}

func TestVSIDSSaveRestoreRoundTripsActivity(t *testing.T) {
	tr := trail.New()
	d := domain.New(tr)
	v1, _ := d.NewVar(0, 10, sv.True)

	vs := NewVSIDS(func() int { return d.NumVars() }, 0.95, 1)
	vs.SaveState()
	vs.Update([]sv.Literal{sv.LEq(v1, 1)})
	require.Greater(t, vs.activity[v1], 0.0)

	vs.RestoreLast()
	assert.Equal(t, 0.0, vs.activity[core.VarId(1)])
}
