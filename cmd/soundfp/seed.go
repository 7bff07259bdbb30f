package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"

	"github.com/zfogg/soundfp/internal/fingerprint"
	fplsh "github.com/zfogg/soundfp/internal/lsh"
	"github.com/zfogg/soundfp/internal/logger"
	"github.com/zfogg/soundfp/internal/metrics"
	"github.com/zfogg/soundfp/internal/spectral"
	"github.com/zfogg/soundfp/internal/store"
)

var seedCount int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the model store with synthetic tracks for local development",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "Number of synthetic tracks to generate")
	rootCmd.AddCommand(seedCmd)
}

// sineProvider hands back an in-memory sine wave instead of decoding a
// real file, so seeding doesn't need ffmpeg or any audio on disk.
type sineProvider struct {
	freqHz     float64
	sampleRate int
	seconds    float64
}

func (p *sineProvider) ReadMonoSamples(ctx context.Context, source string, sampleRate int, startSeconds, lengthSeconds float64) ([]float32, error) {
	n := int(float64(sampleRate) * p.seconds)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * p.freqHz * float64(i) / float64(sampleRate)))
	}
	return out, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logger.Close()
	metrics.Initialize()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if closer, ok := db.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx := context.Background()
	if err := db.EnsureSchema(ctx, store.SchemaID{
		Rows:            cfg.DSP.Rows,
		Cols:            cfg.DSP.Cols,
		TopWavelets:     cfg.DSP.TopWavelets,
		L:               cfg.DSP.L,
		K:               cfg.DSP.K,
		PermutationSeed: cfg.DSP.PermutationSeed,
	}); err != nil {
		return err
	}

	fpCfg := fingerprintConfig(cfg)
	permTab, err := fplsh.NewTable(2*cfg.DSP.Rows*cfg.DSP.Cols, cfg.DSP.L, cfg.DSP.K, cfg.DSP.PermutationSeed)
	if err != nil {
		return err
	}
	fftProvider := spectral.NewGonumFFT()

	_ = gofakeit.Seed(time.Now().UnixNano())
	freqRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	oldest := time.Now().AddDate(-50, 0, 0)
	for i := 0; i < seedCount; i++ {
		releasedAt := gofakeit.DateRange(oldest, time.Now())
		meta := store.TrackMetadata{
			ExternalID:    gofakeit.UUID(),
			Artist:        gofakeit.Name(),
			Title:         gofakeit.Word(),
			Album:         gofakeit.Word(),
			ReleaseYear:   releasedAt.Year(),
			LengthSeconds: 30,
		}
		freq := 110 + freqRand.Float64()*(1760-110)
		provider := &sineProvider{freqHz: freq, sampleRate: fpCfg.SampleRate, seconds: meta.LengthSeconds}

		fp, err := fingerprint.NewBuilder(fpCfg, provider, fftProvider, permTab).WithSource(meta.ExternalID).Build()
		if err != nil {
			return fmt.Errorf("building fingerprint command for seed track %d: %w", i, err)
		}
		results, err := fp.Run(ctx)
		if err != nil {
			return fmt.Errorf("fingerprinting seed track %d: %w", i, err)
		}

		trackRef, err := db.InsertTrack(ctx, meta)
		if err != nil {
			return fmt.Errorf("inserting seed track %d: %w", i, err)
		}
		inputs := make([]store.SubFingerprintInput, len(results))
		for j, r := range results {
			inputs[j] = store.SubFingerprintInput{StartOffsetSeconds: r.StartOffsetSeconds, Bits: r.Bits, HashKeys: r.HashKeys}
		}
		if _, err := db.InsertSubFingerprints(ctx, trackRef, inputs); err != nil {
			return fmt.Errorf("inserting sub-fingerprints for seed track %d: %w", i, err)
		}
		fmt.Printf("seeded track %d: %q by %q (%d sub-fingerprints)\n", trackRef, meta.Title, meta.Artist, len(inputs))
	}
	return nil
}
