package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingMeanAndFull(t *testing.T) {
	r := newRing(3)
	assert.False(t, r.full())
	assert.Equal(t, float64(0), r.mean())

	r.add(1)
	r.add(2)
	r.add(3)
	assert.True(t, r.full())
	assert.Equal(t, float64(2), r.mean())

	r.add(9) // evicts the oldest sample
	assert.Equal(t, []float64{2, 3, 9}, r.values)
}

func TestRingStdDevNeedsTwoSamples(t *testing.T) {
	r := newRing(5)
	assert.Equal(t, float64(0), r.stdDev())
	r.add(1)
	assert.Equal(t, float64(0), r.stdDev())
	r.add(3)
	assert.Greater(t, r.stdDev(), float64(0))
}
