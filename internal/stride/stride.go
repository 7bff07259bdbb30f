// Package stride implements C6: the strategies that choose the
// starting sample offset of each successive fingerprint image.
package stride

import (
	"math/rand"

	fperrors "github.com/zfogg/soundfp/internal/errors"
)

// Strategy returns, in samples, how far the next fingerprint image's
// starting offset should advance past the previous one.
type Strategy interface {
	Step() int
}

// Static advances by a fixed sample count between consecutive images.
type Static struct {
	StepSamples int
}

func NewStatic(stepSamples int) (*Static, error) {
	if stepSamples <= 0 {
		return nil, fperrors.InvalidConfigf("static stride step must be positive, got %d", stepSamples)
	}
	return &Static{StepSamples: stepSamples}, nil
}

func (s *Static) Step() int { return s.StepSamples }

// Random draws each step uniformly from [Min, Max], seeded for
// reproducibility.
type Random struct {
	Min, Max int
	rng      *rand.Rand
}

func NewRandom(min, max int, seed int64) (*Random, error) {
	if min <= 0 || max < min {
		return nil, fperrors.InvalidConfigf("random stride requires 0 < min <= max, got min=%d max=%d", min, max)
	}
	return &Random{Min: min, Max: max, rng: rand.New(rand.NewSource(seed))}, nil
}

func (r *Random) Step() int {
	return r.Min + r.rng.Intn(r.Max-r.Min+1)
}

// Incremental advances by one frame hop (Overlap) at a time, so every
// possible starting offset is examined. This is the default for
// query, per the spec's resolved open question favoring robustness
// over speed at query time.
type Incremental struct {
	Overlap int
}

func NewIncremental(overlap int) (*Incremental, error) {
	if overlap <= 0 {
		return nil, fperrors.InvalidConfigf("incremental stride requires positive overlap, got %d", overlap)
	}
	return &Incremental{Overlap: overlap}, nil
}

func (i *Incremental) Step() int { return i.Overlap }
