// Package spectral implements C1: slicing PCM into overlapping
// frames, windowing them and turning each into a magnitude spectrum
// via a pluggable FFT provider.
package spectral

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	fperrors "github.com/zfogg/soundfp/internal/errors"
)

// FFTProvider is the external collaborator contract (spec §6): given a
// real-valued frame, return its forward FFT as frame_size/2+1 complex
// bins. The core computes magnitudes itself.
type FFTProvider interface {
	ForwardReal(frame []float64) ([]complex128, error)
}

// GonumFFT is the default FFTProvider, backed by gonum's real FFT.
// Plans are cached per frame size since gonum's fourier.NewFFT does
// nontrivial setup work. A plan holds scratch buffers, so ForwardReal
// serializes its calls; a GonumFFT is safe for concurrent use.
type GonumFFT struct {
	mu    sync.Mutex
	plans map[int]*fourier.FFT
}

// NewGonumFFT builds an FFTProvider with no pre-warmed plans.
func NewGonumFFT() *GonumFFT {
	return &GonumFFT{plans: make(map[int]*fourier.FFT)}
}

func (g *GonumFFT) planFor(n int) *fourier.FFT {
	g.mu.Lock()
	defer g.mu.Unlock()
	if plan, ok := g.plans[n]; ok {
		return plan
	}
	plan := fourier.NewFFT(n)
	g.plans[n] = plan
	return plan
}

// ForwardReal computes the real FFT of frame, returning len(frame)/2+1
// complex coefficients (DC through Nyquist).
func (g *GonumFFT) ForwardReal(frame []float64) ([]complex128, error) {
	plan := g.planFor(len(frame))
	g.mu.Lock()
	defer g.mu.Unlock()
	return plan.Coefficients(nil, frame), nil
}

// HannWindow returns a precomputed Hann window of length n.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Framer slices a mono sample buffer into frame_size windows advanced
// by overlap samples, computing a magnitude spectrum for each via fft.
type Framer struct {
	FrameSize int
	Overlap   int
	FFT       FFTProvider

	window []float64
}

// NewFramer builds a Framer, validating frameSize/overlap per the
// InvalidConfig contract.
func NewFramer(frameSize, overlap int, fft FFTProvider) (*Framer, error) {
	if frameSize <= 0 {
		return nil, fperrors.InvalidConfigf("frame_size must be positive, got %d", frameSize)
	}
	if overlap <= 0 || overlap > frameSize {
		return nil, fperrors.InvalidConfigf("overlap must be in (0, frame_size], got %d", overlap)
	}
	return &Framer{
		FrameSize: frameSize,
		Overlap:   overlap,
		FFT:       fft,
		window:    HannWindow(frameSize),
	}, nil
}

// FrameStarts returns the sample offsets (relative to samples[0]) of
// every complete frame that fits within count samples, starting at
// offset 0. A frame straddling the end of the buffer is dropped, never
// zero-padded (spec §4.1).
func (f *Framer) FrameStarts(count int) []int {
	if count < f.FrameSize {
		return nil
	}
	var starts []int
	for start := 0; start+f.FrameSize <= count; start += f.Overlap {
		starts = append(starts, start)
	}
	return starts
}

// Magnitude windows one frame, runs the FFT provider and returns the
// first FrameSize/2 magnitude bins (the Nyquist bin is dropped so
// every spectrum has the same length as downstream band reduction
// expects).
func (f *Framer) Magnitude(frame []float64) ([]float64, error) {
	if len(frame) != f.FrameSize {
		return nil, fperrors.InvalidConfigf("frame length %d does not match configured frame_size %d", len(frame), f.FrameSize)
	}
	windowed := make([]float64, f.FrameSize)
	for i, s := range frame {
		windowed[i] = s * f.window[i]
	}
	coeffs, err := f.FFT.ForwardReal(windowed)
	if err != nil {
		return nil, fperrors.ProviderFailuref(err, "fft provider failed")
	}
	n := f.FrameSize / 2
	mags := make([]float64, n)
	for i := 0; i < n; i++ {
		mags[i] = cmplxAbs(coeffs[i])
	}
	return mags, nil
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// Spectra extracts every complete frame from samples and returns its
// magnitude spectrum. Nothing in this module calls it; the
// fingerprint pipeline (C7) instead slices frames per worker and
// calls Magnitude directly.
func (f *Framer) Spectra(samples []float64) ([][]float64, error) {
	starts := f.FrameStarts(len(samples))
	out := make([][]float64, 0, len(starts))
	for _, start := range starts {
		mag, err := f.Magnitude(samples[start : start+f.FrameSize])
		if err != nil {
			return nil, err
		}
		out = append(out, mag)
	}
	return out, nil
}
