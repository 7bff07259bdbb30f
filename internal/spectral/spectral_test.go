package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHannWindowEndpointsAreZero(t *testing.T) {
	w := HannWindow(8)
	assert.InDelta(t, 0, w[0], 1e-9)
	assert.InDelta(t, 0, w[len(w)-1], 1e-9)
}

func TestHannWindowSingleSample(t *testing.T) {
	w := HannWindow(1)
	assert.Equal(t, []float64{1}, w)
}

func TestNewFramerRejectsInvalidOverlap(t *testing.T) {
	fft := NewGonumFFT()
	_, err := NewFramer(2048, 0, fft)
	assert.Error(t, err)
	_, err = NewFramer(2048, 4096, fft)
	assert.Error(t, err)
}

func TestFrameStartsDropsPartialTrailingFrame(t *testing.T) {
	fft := NewGonumFFT()
	f, err := NewFramer(8, 4, fft)
	require.NoError(t, err)

	starts := f.FrameStarts(20)
	// Frames at 0, 4, 8, 12 all fit (need 8 samples); 16 would need
	// samples [16,24) which exceeds 20, so it's dropped.
	assert.Equal(t, []int{0, 4, 8, 12}, starts)
}

func TestFrameStartsTooShortReturnsNil(t *testing.T) {
	fft := NewGonumFFT()
	f, err := NewFramer(8, 4, fft)
	require.NoError(t, err)
	assert.Nil(t, f.FrameStarts(4))
}

func TestMagnitudeOfSineFrameHasDistinctivePeak(t *testing.T) {
	fft := NewGonumFFT()
	const frameSize = 64
	f, err := NewFramer(frameSize, 16, fft)
	require.NoError(t, err)

	frame := make([]float64, frameSize)
	freqBin := 8.0
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * freqBin * float64(i) / float64(frameSize))
	}

	mags, err := f.Magnitude(frame)
	require.NoError(t, err)
	require.Len(t, mags, frameSize/2)

	peakBin := 0
	for i, m := range mags {
		if m > mags[peakBin] {
			peakBin = i
		}
	}
	assert.Equal(t, int(freqBin), peakBin)
}

func TestMagnitudeRejectsWrongFrameLength(t *testing.T) {
	fft := NewGonumFFT()
	f, err := NewFramer(8, 4, fft)
	require.NoError(t, err)
	_, err = f.Magnitude(make([]float64, 4))
	assert.Error(t, err)
}
