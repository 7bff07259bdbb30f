package query

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zfogg/soundfp/internal/fingerprint"
	"github.com/zfogg/soundfp/internal/lsh"
	"github.com/zfogg/soundfp/internal/spectral"
	"github.com/zfogg/soundfp/internal/store"
	"github.com/zfogg/soundfp/internal/stride"
)

type fakeProvider struct {
	samples []float32
}

func (f *fakeProvider) ReadMonoSamples(ctx context.Context, source string, sampleRate int, startSeconds, lengthSeconds float64) ([]float32, error) {
	return f.samples, nil
}

func sineSamples(n int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / 8000))
	}
	return out
}

func testFPConfig() fingerprint.Config {
	return fingerprint.Config{
		SampleRate:  8000,
		FrameSize:   256,
		Overlap:     32,
		Rows:        16,
		Cols:        8,
		TopWavelets: 32,
		L:           4,
		K:           2,
		MinFreqHz:   100,
		MaxFreqHz:   3000,
	}
}

func fingerprintSamples(t *testing.T, samples []float32) []fingerprint.SubFingerprint {
	t.Helper()
	cfg := testFPConfig()
	permTab, err := lsh.NewTable(2*cfg.Rows*cfg.Cols, cfg.L, cfg.K, 42)
	require.NoError(t, err)
	cmd, err := fingerprint.NewBuilder(cfg, &fakeProvider{samples: samples}, spectral.NewGonumFFT(), permTab).
		WithSource("fake").
		Build()
	require.NoError(t, err)
	results, err := cmd.Run(context.Background())
	require.NoError(t, err)
	return results
}

func fingerprintSamplesWithStride(t *testing.T, samples []float32, s stride.Strategy) []fingerprint.SubFingerprint {
	t.Helper()
	cfg := testFPConfig()
	permTab, err := lsh.NewTable(2*cfg.Rows*cfg.Cols, cfg.L, cfg.K, 42)
	require.NoError(t, err)
	builder := fingerprint.NewBuilder(cfg, &fakeProvider{samples: samples}, spectral.NewGonumFFT(), permTab).
		WithSource("fake")
	if s != nil {
		builder = builder.WithStride(s)
	}
	cmd, err := builder.Build()
	require.NoError(t, err)
	results, err := cmd.Run(context.Background())
	require.NoError(t, err)
	return results
}

func ingest(t *testing.T, ms *store.MemStore, samples []float32, meta store.TrackMetadata) store.TrackRef {
	t.Helper()
	fps := fingerprintSamples(t, samples)
	require.NotEmpty(t, fps)

	track, err := ms.InsertTrack(context.Background(), meta)
	require.NoError(t, err)

	inputs := make([]store.SubFingerprintInput, len(fps))
	for i, fp := range fps {
		inputs[i] = store.SubFingerprintInput{StartOffsetSeconds: fp.StartOffsetSeconds, Bits: fp.Bits, HashKeys: fp.HashKeys}
	}
	_, err = ms.InsertSubFingerprints(context.Background(), track, inputs)
	require.NoError(t, err)
	return track
}

func TestQueryEngineFindsExactSelfMatch(t *testing.T) {
	cfg := testFPConfig()
	ms := store.NewMemStore(cfg.L)

	need := (cfg.Rows-1)*cfg.Overlap + cfg.FrameSize
	samples := sineSamples(need+5*cfg.Rows*cfg.Overlap, 220)
	track := ingest(t, ms, samples, store.TrackMetadata{ExternalID: "known-track"})

	queryFPs := fingerprintSamples(t, samples)

	engine := NewEngine(ms, Params{MinHitsPerFP: 1, MinSimilarity: 0.99, ThresholdVotes: 1})
	result, err := engine.Run(context.Background(), queryFPs)
	require.NoError(t, err)
	require.True(t, result.IsSuccessful)
	assert.Equal(t, track, result.BestMatch.Track)
}

func TestQueryEngineRejectsUnrelatedAudio(t *testing.T) {
	cfg := testFPConfig()
	ms := store.NewMemStore(cfg.L)

	need := (cfg.Rows-1)*cfg.Overlap + cfg.FrameSize
	ingest(t, ms, sineSamples(need+5*cfg.Rows*cfg.Overlap, 220), store.TrackMetadata{ExternalID: "known-track"})

	queryFPs := fingerprintSamples(t, sineSamples(need+5*cfg.Rows*cfg.Overlap, 4000))

	engine := NewEngine(ms, Params{MinHitsPerFP: 2, MinSimilarity: 0.9, ThresholdVotes: 3})
	result, err := engine.Run(context.Background(), queryFPs)
	require.NoError(t, err)
	assert.False(t, result.IsSuccessful)
	assert.Nil(t, result.BestMatch)
}

// TestQueryEngineWithIncrementalStrideFindsNonFrameAlignedMatch covers
// spec §8 scenario 3: a query clip starting mid-track at an offset
// that does not land on an ingest-grid (Rows*Overlap) boundary. An
// incremental query stride must still find it, since it examines
// every possible image start rather than only the ingest-aligned
// ones.
func TestQueryEngineWithIncrementalStrideFindsNonFrameAlignedMatch(t *testing.T) {
	cfg := testFPConfig()
	ms := store.NewMemStore(cfg.L)

	need := (cfg.Rows-1)*cfg.Overlap + cfg.FrameSize
	fullSamples := sineSamples(need+40*cfg.Rows*cfg.Overlap, 220)
	track := ingest(t, ms, fullSamples, store.TrackMetadata{ExternalID: "known-track"})

	// Deliberately not a multiple of Rows*Overlap, so the ingest pass's
	// Static(Rows*Overlap) stride never produced an image at this
	// alignment.
	offset := (cfg.Rows*cfg.Overlap)/2 + cfg.Overlap/2
	queryLen := need + 4*cfg.Rows*cfg.Overlap
	querySamples := fullSamples[offset : offset+queryLen]

	incStride, err := stride.NewIncremental(cfg.Overlap)
	require.NoError(t, err)
	queryFPs := fingerprintSamplesWithStride(t, querySamples, incStride)
	require.NotEmpty(t, queryFPs)

	engine := NewEngine(ms, Params{MinHitsPerFP: 1, MinSimilarity: 0.99, ThresholdVotes: 1})
	result, err := engine.Run(context.Background(), queryFPs)
	require.NoError(t, err)
	require.True(t, result.IsSuccessful)
	assert.Equal(t, track, result.BestMatch.Track)
}

func TestQueryEngineHandlesEmptyQuery(t *testing.T) {
	ms := store.NewMemStore(4)
	engine := NewEngine(ms, Params{MinHitsPerFP: 1, MinSimilarity: 0.5, ThresholdVotes: 1})
	result, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, result.IsSuccessful)
}

func TestSimilarityIsOneForIdenticalBits(t *testing.T) {
	a := []byte{0xAB, 0xCD}
	assert.Equal(t, 1.0, similarity(a, a))
}

func TestSimilarityIsZeroForFullyInvertedBits(t *testing.T) {
	a := []byte{0xFF}
	b := []byte{0x00}
	assert.Equal(t, 0.0, similarity(a, b))
}
