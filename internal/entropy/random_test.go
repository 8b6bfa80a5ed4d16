package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBetween_InclusiveBounds(t *testing.T) {
	lo := NewSequence(0)
	hi := NewSequence(0.9999)

	assert.Equal(t, 3, Between(lo, 3, 6))
	assert.Equal(t, 6, Between(hi, 3, 6))
	assert.Equal(t, 5, Between(hi, 5, 5))
}

func TestSequence_Cycles(t *testing.T) {
	s := NewSequence(0.1, 0.7)
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.7, s.Float64())
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 7, NewSequence(0.75).Intn(10))
}

func TestSeeded_Deterministic(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	assert.Nil(t, NewClient(""))
	f := c.Float64()
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Less(t, f, 1.0)
}

func TestChance(t *testing.T) {
	assert.True(t, Chance(NewSequence(0.29), 0.3))
	assert.False(t, Chance(NewSequence(0.3), 0.3))
}
