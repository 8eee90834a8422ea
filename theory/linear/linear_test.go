package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/trail"
)

func newVars(n int, lb, ub core.IntCst) (*domain.Domains, []core.VarId) {
	t := trail.New()
	d := domain.New(t)
	vars := make([]core.VarId, n)
	for i := range vars {
		v, err := d.NewVar(lb, ub, sv.True)
		if err != nil {
			panic(err)
		}
		vars[i] = v
	}
	return d, vars
}

func TestPropagateEntailsReificationWhenSumAlwaysUnderBound(t *testing.T) {
	d, v := newVars(2, 0, 5)
	l := New()
	reifVar, err := d.NewVar(0, 1, sv.True)
	require.NoError(t, err)
	reif := sv.GEq(reifVar, 1)

	l.Post(Sum{
		Terms: []Term{{Coeff: 1, Var: v[0]}, {Coeff: 1, Var: v[1]}},
		Bound: 20, // max possible sum is 10, well under 20
		Lit:   reif,
	})

	err = l.Propagate(d)
	require.NoError(t, err)
	assert.True(t, d.Entails(reif))
}

func TestPropagateTightensTermWhenReificationEntailed(t *testing.T) {
	d, v := newVars(2, 0, 10)
	l := New()
	l.Post(Sum{
		Terms: []Term{{Coeff: 1, Var: v[0]}, {Coeff: 1, Var: v[1]}},
		Bound: 5,
		Lit:   sv.True,
	})

	err := l.Propagate(d)
	require.NoError(t, err)

	_, ub0 := d.Bounds(v[0])
	_, ub1 := d.Bounds(v[1])
	assert.LessOrEqual(t, ub0, core.IntCst(5))
	assert.LessOrEqual(t, ub1, core.IntCst(5))
}

func TestPropagateNegatesReificationWhenMinExceedsBound(t *testing.T) {
	d, v := newVars(2, 3, 10)
	l := New()
	reifVar, err := d.NewVar(0, 1, sv.True)
	require.NoError(t, err)
	reif := sv.GEq(reifVar, 1)

	l.Post(Sum{
		Terms: []Term{{Coeff: 1, Var: v[0]}, {Coeff: 1, Var: v[1]}},
		Bound: 2, // min possible sum is 6, always exceeds 2
		Lit:   reif,
	})

	err = l.Propagate(d)
	require.NoError(t, err)
	assert.True(t, d.Entails(reif.Negate()))
}
