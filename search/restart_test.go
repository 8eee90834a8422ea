package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLubySequenceMatchesKnownPrefix(t *testing.T) {
	expected := []int64{1, 1, 2, 1, 1, 2, 4, 1}
	for i, want := range expected {
		assert.Equal(t, want, luby(i), "luby(%d)", i)
	}
}

func TestLubyRestartFiresAtScaledThreshold(t *testing.T) {
	r := NewLubyRestart(10)

	assert.False(t, r.ShouldRestart(9))
	assert.True(t, r.ShouldRestart(10))
}

func TestLubyRestartAdvancesIndexOnRestart(t *testing.T) {
	r := NewLubyRestart(1)

	assert.True(t, r.ShouldRestart(1)) // luby(0) == 1
	r.OnRestart()
	r.OnRestart() // index now 2, luby(2) == 2
	assert.False(t, r.ShouldRestart(1))
	assert.True(t, r.ShouldRestart(2))
}
