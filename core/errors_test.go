package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelErrorFormatsWithOp(t *testing.T) {
	err := NewModelError("Domains.NewVar", "lb > ub")
	assert.Equal(t, "model error in Domains.NewVar: lb > ub", err.Error())
}

func TestWrapModelErrorPreservesCauseChain(t *testing.T) {
	cause := errors.New("boom")
	wrapped := WrapModelError("clausedb.AddClause", cause)

	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, cause)
}

func TestViolationPanicsWithInvariantViolation(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		iv, ok := r.(*InvariantViolation)
		require.True(t, ok)
		assert.Contains(t, iv.Error(), "sv")
	}()
	Violation("sv", "bad state %d", 42)
}
