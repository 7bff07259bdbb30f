package stride

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticStepIsConstant(t *testing.T) {
	s, err := NewStatic(64)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 64, s.Step())
	}
}

func TestStaticRejectsNonPositiveStep(t *testing.T) {
	_, err := NewStatic(0)
	assert.Error(t, err)
}

func TestRandomStepStaysWithinBounds(t *testing.T) {
	r, err := NewRandom(10, 20, 42)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		step := r.Step()
		assert.GreaterOrEqual(t, step, 10)
		assert.LessOrEqual(t, step, 20)
	}
}

func TestRandomRejectsInvertedBounds(t *testing.T) {
	_, err := NewRandom(20, 10, 42)
	assert.Error(t, err)
}

func TestIncrementalStepEqualsOverlap(t *testing.T) {
	inc, err := NewIncremental(64)
	require.NoError(t, err)
	assert.Equal(t, 64, inc.Step())
}
