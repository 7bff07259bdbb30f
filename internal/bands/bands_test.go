package bands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduleProducesStrictlyIncreasingEdges(t *testing.T) {
	sched, err := NewSchedule(5512, 2048, 32, 318, 2000)
	require.NoError(t, err)
	require.Equal(t, 32, sched.Cols)
	require.Len(t, sched.Edges, 33)

	for i := 1; i < len(sched.Edges); i++ {
		assert.Greater(t, sched.Edges[i], sched.Edges[i-1], "edge %d should exceed edge %d", i, i-1)
	}
}

func TestNewScheduleRejectsInvalidFrequencyRange(t *testing.T) {
	_, err := NewSchedule(5512, 2048, 32, 2000, 318)
	assert.Error(t, err)

	_, err = NewSchedule(5512, 2048, 0, 318, 2000)
	assert.Error(t, err)
}

func TestNewScheduleRejectsTooManyColsForFrameSize(t *testing.T) {
	_, err := NewSchedule(5512, 2048, 100000, 318, 2000)
	assert.Error(t, err)
}

func TestReduceAveragesEachBand(t *testing.T) {
	sched, err := NewSchedule(8000, 16, 2, 1000, 3000)
	require.NoError(t, err)

	spectrum := make([]float64, 8)
	for i := range spectrum {
		spectrum[i] = float64(i + 1)
	}

	out := sched.Reduce(spectrum)
	assert.Len(t, out, 2)
	// 500 Hz bins; cutoffs 1000, ~1732, 3000 Hz snap to edges [2, 3, 6].
	assert.Equal(t, []int{2, 3, 6}, sched.Edges)
	assert.Equal(t, 3.0, out[0])
	assert.Equal(t, 5.0, out[1])
}

func TestReduceHandlesOutOfRangeBands(t *testing.T) {
	sched := Schedule{Edges: []int{0, 2, 4}, Cols: 2}
	out := sched.Reduce([]float64{1, 2})
	assert.Equal(t, 1.5, out[0])
	assert.Equal(t, 0.0, out[1])
}
