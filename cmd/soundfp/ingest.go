package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	fperrors "github.com/zfogg/soundfp/internal/errors"
	"github.com/zfogg/soundfp/internal/logger"
	"github.com/zfogg/soundfp/internal/metrics"
	"github.com/zfogg/soundfp/internal/store"
)

var ingestMetaPath string

var ingestCmd = &cobra.Command{
	Use:   "ingest <audio-source>",
	Short: "Fingerprint an audio source and add it to the model store",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMetaPath, "meta", "", "Path to a JSON file with track metadata (artist, title, album, release_year, external_id, length_seconds)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logger.Close()
	metrics.Initialize()

	meta, err := readTrackMetadata(ingestMetaPath)
	if err != nil {
		return err
	}

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

	builder, err := buildFingerprintBuilder(cfg)
	if err != nil {
		return err
	}
	fp, err := builder.WithSource(args[0]).Build()
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := fp.Run(ctx)
	status := "success"
	if err != nil {
		status = "error"
		metrics.Get().IngestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
		metrics.Get().IngestsTotal.WithLabelValues(status).Inc()
		return fmt.Errorf("fingerprinting failed: %w", err)
	}
	metrics.Get().IngestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	metrics.Get().IngestsTotal.WithLabelValues(status).Inc()

	if len(results) == 0 {
		return fperrors.InputTooShortf("audio source %q is too short to produce a single fingerprint", args[0])
	}

	trackRef, err := db.InsertTrack(ctx, meta)
	if err != nil {
		return err
	}

	inputs := make([]store.SubFingerprintInput, len(results))
	for i, r := range results {
		inputs[i] = store.SubFingerprintInput{
			StartOffsetSeconds: r.StartOffsetSeconds,
			Bits:               r.Bits,
			HashKeys:           r.HashKeys,
		}
	}
	refs, err := db.InsertSubFingerprints(ctx, trackRef, inputs)
	if err != nil {
		return err
	}
	metrics.Get().FingerprintsEmitted.WithLabelValues(fmt.Sprintf("%d", trackRef)).Add(float64(len(refs)))

	if logger.Log != nil {
		logger.Log.Info("track ingested",
			logger.WithTrackID(fmt.Sprintf("%d", trackRef)),
			logger.WithSubFingerprintCount(len(refs)),
			logger.WithDuration(time.Since(start)),
		)
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(map[string]interface{}{
			"track_ref":        trackRef,
			"sub_fingerprints": len(refs),
		})
	}
	fmt.Printf("ingested %q as track %d (%d sub-fingerprints)\n", args[0], trackRef, len(refs))
	return nil
}

func readTrackMetadata(path string) (store.TrackMetadata, error) {
	if path == "" {
		return store.TrackMetadata{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return store.TrackMetadata{}, fperrors.InvalidConfigf("reading metadata file %q: %v", path, err)
	}
	var meta store.TrackMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return store.TrackMetadata{}, fperrors.InvalidConfigf("parsing metadata file %q: %v", path, err)
	}
	return meta, nil
}
