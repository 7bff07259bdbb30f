// Package bands implements C2: collapsing a magnitude spectrum into a
// fixed-length vector over logarithmically spaced frequency bands.
package bands

import (
	"math"

	fperrors "github.com/zfogg/soundfp/internal/errors"
)

// Schedule is a precomputed set of non-overlapping FFT-bin ranges
// covering [min_freq, max_freq), one range per output band.
type Schedule struct {
	// Edges holds Cols+1 band boundaries (len(Edges)-1 == Cols): band
	// i covers bins [Edges[i], Edges[i+1]).
	Edges []int
	Cols  int
}

// NewSchedule builds the band schedule for a given sample rate,
// frame size and band count, using geometric-series frequency cutoffs
// between minFreq and maxFreq, each snapped to its nearest FFT bin.
func NewSchedule(sampleRate, frameSize, cols int, minFreq, maxFreq float64) (Schedule, error) {
	if cols <= 0 {
		return Schedule{}, fperrors.InvalidConfigf("cols must be positive, got %d", cols)
	}
	if minFreq <= 0 || maxFreq <= minFreq {
		return Schedule{}, fperrors.InvalidConfigf("min_freq must be positive and less than max_freq, got min=%f max=%f", minFreq, maxFreq)
	}
	binHz := float64(sampleRate) / float64(frameSize)
	maxBin := frameSize / 2

	edges := make([]int, cols+1)
	ratio := math.Pow(maxFreq/minFreq, 1.0/float64(cols))
	for i := 0; i <= cols; i++ {
		freq := minFreq * math.Pow(ratio, float64(i))
		bin := int(math.Round(freq / binHz))
		if bin < 0 {
			bin = 0
		}
		if bin > maxBin {
			bin = maxBin
		}
		edges[i] = bin
	}
	// Enforce strictly increasing, non-overlapping edges: a degenerate
	// band (zero width after rounding) borrows one bin from its
	// successor when room remains.
	for i := 1; i <= cols; i++ {
		if edges[i] <= edges[i-1] {
			edges[i] = edges[i-1] + 1
		}
	}
	if edges[cols] > maxBin {
		return Schedule{}, fperrors.InvalidConfigf("band schedule exceeds available FFT bins: need %d, have %d (cols too high for frame_size/sample_rate)", edges[cols], maxBin)
	}
	return Schedule{Edges: edges, Cols: cols}, nil
}

// Reduce collapses a magnitude spectrum into Schedule.Cols values,
// each the mean magnitude across its band (sum divided by band
// width). Bins outside [min_freq, max_freq] are discarded implicitly
// since the schedule's edges never extend past them.
func (s Schedule) Reduce(spectrum []float64) []float64 {
	out := make([]float64, s.Cols)
	for i := 0; i < s.Cols; i++ {
		lo, hi := s.Edges[i], s.Edges[i+1]
		if hi > len(spectrum) {
			hi = len(spectrum)
		}
		if lo >= hi {
			continue
		}
		var sum float64
		for b := lo; b < hi; b++ {
			sum += spectrum[b]
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
