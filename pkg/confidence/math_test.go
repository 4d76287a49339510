package confidence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 0.847, Round(0.84732, 3))
	assert.Equal(t, 0.848, Round(0.8475, 3))
	assert.Equal(t, 1.0, Round(0.9999, 2))
	assert.Equal(t, 0.0, Round(0.0001, 3))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.2))
	assert.Equal(t, 1.0, Clamp(1.5))
	assert.Equal(t, 0.42, Clamp(0.42))
}

func TestArgMax(t *testing.T) {
	i, v := ArgMax([]float64{0.1, 0.7, 0.2})
	assert.Equal(t, 1, i)
	assert.Equal(t, 0.7, v)

	// First winner on ties.
	i, _ = ArgMax([]float64{0.5, 0.5})
	assert.Equal(t, 0, i)

	i, _ = ArgMax(nil)
	assert.Equal(t, -1, i)
}

func TestLogSumExp(t *testing.T) {
	// log(e^0 + e^0) = log 2
	assert.InDelta(t, math.Log(2), LogSumExp([]float64{0, 0}), 1e-12)

	// Shift invariance: lse(x + c) = lse(x) + c.
	base := LogSumExp([]float64{-1, 0.5, 2})
	shifted := LogSumExp([]float64{-1 + 100, 0.5 + 100, 2 + 100})
	assert.InDelta(t, base+100, shifted, 1e-9)

	// Stays finite where naive exp would underflow to zero.
	assert.False(t, math.IsInf(LogSumExp([]float64{-1e6, -1e6 - 3}), 0))

	assert.True(t, math.IsInf(LogSumExp(nil), -1))
}
