package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntCstAddSaturatesAtUpperBound(t *testing.T) {
	result := MaxIntCst.Add(MaxIntCst)
	assert.Equal(t, MaxIntCst, result)
}

func TestIntCstAddSaturatesAtLowerBound(t *testing.T) {
	result := MinIntCst.Add(MinIntCst)
	assert.Equal(t, MinIntCst, result)
}

func TestIntCstAddOrdinaryCase(t *testing.T) {
	assert.Equal(t, IntCst(7), IntCst(3).Add(4))
}
