// Package fingerprint implements C7: a fluent builder that wires C1-C6
// into an end-to-end pipeline, producing a sequence of
// (fingerprint_bits, hash_keys, start_offset_seconds) triples for a
// given audio source. Work is fanned out across a worker pool
// (grounded on this stack's background job-queue pattern) since C1-C5
// are pure functions of one sample window; ordering is restored
// before results are returned.
package fingerprint

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/zfogg/soundfp/internal/audio"
	"github.com/zfogg/soundfp/internal/bands"
	fperrors "github.com/zfogg/soundfp/internal/errors"
	"github.com/zfogg/soundfp/internal/fpimage"
	"github.com/zfogg/soundfp/internal/lsh"
	"github.com/zfogg/soundfp/internal/spectral"
	"github.com/zfogg/soundfp/internal/stride"
	"github.com/zfogg/soundfp/internal/wavelet"
)

// SubFingerprint is one (fingerprint_bits, hash_keys, start_offset)
// triple.
type SubFingerprint struct {
	StartOffsetSeconds float64
	Bits               []byte
	HashKeys           []uint32
}

// Config enumerates every option from spec §4.7.
type Config struct {
	SampleRate  int
	FrameSize   int
	Overlap     int
	Rows        int
	Cols        int
	TopWavelets int
	L           int
	K           int
	MinFreqHz   float64
	MaxFreqHz   float64
}

// Validate rejects a Config that violates the spec's invariants,
// matching the "Fatal; rejected at command build time" contract for
// InvalidConfig.
func (c Config) Validate() error {
	if c.TopWavelets <= 0 || c.TopWavelets > c.Rows*c.Cols {
		return fperrors.InvalidConfigf("top_wavelets must be in (0, rows*cols], got %d (rows*cols=%d)", c.TopWavelets, c.Rows*c.Cols)
	}
	if c.K > 4 {
		return fperrors.InvalidConfigf("K must be at most 4, got %d", c.K)
	}
	return nil
}

// Builder is the fluent builder over an immutable Config; it
// replaces the source repo's dependency-injection container with
// explicit capability parameters (audio provider, FFT provider,
// permutation table) passed at construction time; the stride strategy
// is set with WithStride and defaults to Static(Rows*Overlap).
type Builder struct {
	cfg      Config
	source   string
	startS   float64
	lengthS  float64
	stride   stride.Strategy
	audioP   audio.Provider
	fftP     spectral.FFTProvider
	permTab  *lsh.Table
}

// NewBuilder seeds a Builder with defaults; every With* call returns a
// new Builder value so the original is never mutated.
func NewBuilder(cfg Config, audioProvider audio.Provider, fftProvider spectral.FFTProvider, permTable *lsh.Table) Builder {
	return Builder{cfg: cfg, audioP: audioProvider, fftP: fftProvider, permTab: permTable}
}

func (b Builder) WithSource(source string) Builder {
	b.source = source
	return b
}

func (b Builder) WithWindow(startSeconds, lengthSeconds float64) Builder {
	b.startS = startSeconds
	b.lengthS = lengthSeconds
	return b
}

func (b Builder) WithStride(s stride.Strategy) Builder {
	b.stride = s
	return b
}

// Command is the built, immutable value ready to run. It is
// restartable against a new source but not rewindable mid-stream, per
// spec §4.7.
type Command struct {
	cfg     Config
	source  string
	startS  float64
	lengthS float64
	stride  stride.Strategy
	audioP  audio.Provider
	framer  *spectral.Framer
	sched   bands.Schedule
	permTab *lsh.Table
}

// Build validates the Config and wires up the framer/band schedule,
// returning InvalidConfig if anything is inconsistent.
func (b Builder) Build() (*Command, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	framer, err := spectral.NewFramer(b.cfg.FrameSize, b.cfg.Overlap, b.fftP)
	if err != nil {
		return nil, err
	}
	sched, err := bands.NewSchedule(b.cfg.SampleRate, b.cfg.FrameSize, b.cfg.Cols, b.cfg.MinFreqHz, b.cfg.MaxFreqHz)
	if err != nil {
		return nil, err
	}
	if b.stride == nil {
		s, err := stride.NewStatic(b.cfg.Rows * b.cfg.Overlap)
		if err != nil {
			return nil, err
		}
		b.stride = s
	}
	return &Command{
		cfg:     b.cfg,
		source:  b.source,
		startS:  b.startS,
		lengthS: b.lengthS,
		stride:  b.stride,
		audioP:  b.audioP,
		framer:  framer,
		sched:   sched,
		permTab: b.permTab,
	}, nil
}

// samplesPerImage is the minimum sample count required for one
// fingerprint image: rows frames, each advanced by Overlap from the
// previous, the last of which must still hold a full frame_size
// window.
func (c *Command) samplesPerImage() int {
	return (c.cfg.Rows-1)*c.cfg.Overlap + c.cfg.FrameSize
}

// imageStarts returns the sample offset (into the decoded buffer) of
// every fingerprint image the stride schedule produces, given total
// available samples.
func (c *Command) imageStarts(total int) []int {
	need := c.samplesPerImage()
	if total < need {
		return nil
	}
	var starts []int
	for start := 0; start+need <= total; start += c.stride.Step() {
		starts = append(starts, start)
	}
	return starts
}

// Run decodes the source, computes every fingerprint image in a
// worker pool sized to runtime.NumCPU(), and returns them in
// monotonic start_offset_seconds order. If ctx is cancelled before
// all images are computed, Run drains in-flight work and returns
// ctx.Err() with no partial results, so callers never pass a partial
// batch to the store.
func (c *Command) Run(ctx context.Context) ([]SubFingerprint, error) {
	samples, err := c.audioP.ReadMonoSamples(ctx, c.source, c.cfg.SampleRate, c.startS, c.lengthS)
	if err != nil {
		return nil, fperrors.ProviderFailuref(err, "audio provider failed")
	}

	starts := c.imageStarts(len(samples))
	if len(starts) == 0 {
		// spec §4.1/§7: shorter than one image is not an error.
		return nil, nil
	}

	samples64 := make([]float64, len(samples))
	for i, s := range samples {
		samples64[i] = float64(s)
	}

	results := make([]SubFingerprint, len(starts))
	errs := make([]error, len(starts))

	workers := runtime.NumCPU()
	if workers > len(starts) {
		workers = len(starts)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	cancelled := false
	var cancelledMu sync.Mutex

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			select {
			case <-ctx.Done():
				cancelledMu.Lock()
				cancelled = true
				cancelledMu.Unlock()
				continue
			default:
			}
			sf, err := c.computeImage(samples64, starts[idx])
			results[idx] = sf
			errs[idx] = err
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

dispatch:
	for i := range starts {
		select {
		case <-ctx.Done():
			cancelledMu.Lock()
			cancelled = true
			cancelledMu.Unlock()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	cancelledMu.Lock()
	wasCancelled := cancelled
	cancelledMu.Unlock()
	if wasCancelled {
		return nil, ctx.Err()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartOffsetSeconds < results[j].StartOffsetSeconds
	})
	return results, nil
}

func (c *Command) computeImage(samples []float64, start int) (SubFingerprint, error) {
	rows := make([][]float64, c.cfg.Rows)
	for r := 0; r < c.cfg.Rows; r++ {
		frameStart := start + r*c.cfg.Overlap
		mag, err := c.framer.Magnitude(samples[frameStart : frameStart+c.cfg.FrameSize])
		if err != nil {
			return SubFingerprint{}, err
		}
		rows[r] = c.sched.Reduce(mag)
	}

	img, err := fpimage.Group(rows, c.cfg.Rows)
	if err != nil {
		return SubFingerprint{}, err
	}

	coeffs, err := wavelet.Decompose(img)
	if err != nil {
		return SubFingerprint{}, err
	}
	signed, err := wavelet.SelectTop(coeffs, c.cfg.TopWavelets)
	if err != nil {
		return SubFingerprint{}, err
	}
	bits := wavelet.Encode(signed)
	hashKeys := c.permTab.HashKeys(bits)

	return SubFingerprint{
		StartOffsetSeconds: c.startS + float64(start)/float64(c.cfg.SampleRate),
		Bits:               bits,
		HashKeys:           hashKeys,
	}, nil
}
