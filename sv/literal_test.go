package sv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/core"
)

func TestLEqGEqEncodeOppositeSignedVars(t *testing.T) {
	v := core.VarId(3)
	leq := LEq(v, 5)
	geq := GEq(v, 2)

	assert.Equal(t, Pos(v), leq.SVar)
	assert.Equal(t, Neg(v), geq.SVar)
	assert.Equal(t, v, leq.Var())
	assert.Equal(t, v, geq.Var())
}

func TestNegateIsInvolution(t *testing.T) {
	v := core.VarId(7)
	lit := LEq(v, 10)

	assert.Equal(t, lit, lit.Negate().Negate())
}

func TestNegateFlipsEntailmentExactly(t *testing.T) {
	// v <= 4 and its negation v >= 5 must never both be entailable by
	// the same assignment of v; exactly one holds for any concrete value.
	v := core.VarId(1)
	lit := LEq(v, 4)
	neg := lit.Negate()

	require.Equal(t, Neg(v), neg.SVar)
	assert.Equal(t, GEq(v, 5), neg)
}

func TestEntailsRequiresSameSignedVar(t *testing.T) {
	v := core.VarId(2)
	weak := LEq(v, 10)
	strong := LEq(v, 5)

	assert.True(t, strong.Entails(weak))
	assert.False(t, weak.Entails(strong))
	assert.False(t, strong.Entails(GEq(v, 0)))
}

func TestEqLiteralsConjunctionPinsValue(t *testing.T) {
	v := core.VarId(9)
	lo, hi := EqLiterals(v, 3)

	assert.Equal(t, LEq(v, 3), lo)
	assert.Equal(t, GEq(v, 3), hi)
}

func TestStrongerPicksTighterBound(t *testing.T) {
	v := core.VarId(4)
	a := LEq(v, 10)
	b := LEq(v, 3)

	assert.Equal(t, b, Stronger(a, b))
	assert.Equal(t, b, Stronger(b, a))
}

func TestStrongerPanicsOnMismatchedSignedVar(t *testing.T) {
	v := core.VarId(5)
	assert.Panics(t, func() {
		Stronger(LEq(v, 1), GEq(v, 1))
	})
}

func TestTrueEntailsItselfButNotFalse(t *testing.T) {
	assert.True(t, True.Entails(True))
	assert.False(t, True.Entails(False))
}
