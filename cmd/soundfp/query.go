package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zfogg/soundfp/internal/logger"
	"github.com/zfogg/soundfp/internal/metrics"
	fpquery "github.com/zfogg/soundfp/internal/query"
	"github.com/zfogg/soundfp/internal/store"
)

var (
	queryStartSeconds  float64
	queryLengthSeconds float64
	queryStrideFlag    string
)

var queryCmd = &cobra.Command{
	Use:   "query <audio-source>",
	Short: "Resolve an audio clip against the model store",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Float64Var(&queryStartSeconds, "start", 0, "Seconds into the source to begin reading")
	queryCmd.Flags().Float64Var(&queryLengthSeconds, "seconds", 0, "Length of the window to read, in seconds (0 means the whole source)")
	queryCmd.Flags().StringVar(&queryStrideFlag, "query-stride", "", `Override the configured query stride: "incremental" or "static"`)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if queryStrideFlag != "" {
		cfg.DSP.QueryStride = queryStrideFlag
		if err := cfg.DSP.Validate(); err != nil {
			return err
		}
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

	builder, err := buildFingerprintBuilder(cfg)
	if err != nil {
		return err
	}
	qStride, err := queryStride(cfg)
	if err != nil {
		return err
	}
	fp, err := builder.WithSource(args[0]).WithWindow(queryStartSeconds, queryLengthSeconds).WithStride(qStride).Build()
	if err != nil {
		return err
	}

	start := time.Now()
	subFingerprints, err := fp.Run(ctx)
	if err != nil {
		metrics.Get().QueryDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("fingerprinting query audio failed: %w", err)
	}

	engine := fpquery.NewEngine(db, fpquery.Params{
		MinHitsPerFP:   cfg.DSP.MinHitsPerFP,
		MinSimilarity:  cfg.DSP.MinSimilarity,
		ThresholdVotes: cfg.DSP.ThresholdVotes,
	})
	result, err := engine.Run(ctx, subFingerprints)
	outcome := "no_match"
	if err != nil {
		outcome = "error"
	} else if result.IsSuccessful {
		outcome = "match"
	}
	metrics.Get().QueryDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	metrics.Get().QueriesTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		return err
	}

	if logger.Log != nil && result.IsSuccessful {
		logger.Log.Info("query resolved",
			logger.WithTrackID(fmt.Sprintf("%d", result.BestMatch.Track)),
			logger.WithSubFingerprintCount(result.BestMatch.MatchedFPs),
			logger.WithDuration(time.Since(start)),
		)
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(result)
	}
	if !result.IsSuccessful {
		fmt.Println("no match")
		return nil
	}
	fmt.Printf("best match: track %d (matched_fps=%d score=%.3f)\n",
		result.BestMatch.Track, result.BestMatch.MatchedFPs, result.BestMatch.Score)
	return nil
}
