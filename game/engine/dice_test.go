package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandRoller_Range(t *testing.T) {
	roller := NewRoller(7)
	seen := make(map[int]bool)

	for i := 0; i < 1000; i++ {
		v := roller.Roll()
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, DieFaces)
		seen[v] = true
	}

	assert.Len(t, seen, DieFaces, "every face should come up in 1000 rolls")
}

func TestRandRoller_DeterministicForSeed(t *testing.T) {
	a := NewRoller(42)
	b := NewRoller(42)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Roll(), b.Roll())
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestNewSeed(t *testing.T) {
	first, err := NewSeed()
	require.NoError(t, err)
	second, err := NewSeed()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestIsDoubles(t *testing.T) {
	assert.True(t, IsDoubles([BattleDiceCount]int{6, 6}))
	assert.False(t, IsDoubles([BattleDiceCount]int{6, 5}))
}

func TestRollPair(t *testing.T) {
	pair := RollPair(NewRoller(3))
	for _, v := range pair {
		assert.True(t, validDie(v))
	}
}
