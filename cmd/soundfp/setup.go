package main

import (
	"github.com/zfogg/soundfp/internal/audio"
	"github.com/zfogg/soundfp/internal/cache"
	"github.com/zfogg/soundfp/internal/config"
	"github.com/zfogg/soundfp/internal/fingerprint"
	fplsh "github.com/zfogg/soundfp/internal/lsh"
	"github.com/zfogg/soundfp/internal/logger"
	"github.com/zfogg/soundfp/internal/spectral"
	"github.com/zfogg/soundfp/internal/store"
	"github.com/zfogg/soundfp/internal/stride"
)

// loadConfig applies any CLI flag overrides on top of the environment-derived Config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	if storeDSN != "" {
		cfg.StoreDSN = storeDSN
	}
	return cfg, nil
}

func fingerprintConfig(cfg *config.Config) fingerprint.Config {
	d := cfg.DSP
	return fingerprint.Config{
		SampleRate:  d.SampleRate,
		FrameSize:   d.FrameSize,
		Overlap:     d.Overlap,
		Rows:        d.Rows,
		Cols:        d.Cols,
		TopWavelets: d.TopWavelets,
		L:           d.L,
		K:           d.K,
		MinFreqHz:   d.MinFreqHz,
		MaxFreqHz:   d.MaxFreqHz,
	}
}

func openStore(cfg *config.Config) (store.ModelStore, error) {
	gs, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, err
	}
	var ms store.ModelStore = gs
	if cfg.CacheEnabled {
		redisClient := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		ms = cache.NewCachedStore(ms, redisClient, 0)
	}
	return ms, nil
}

func buildFingerprintBuilder(cfg *config.Config) (fingerprint.Builder, error) {
	fpCfg := fingerprintConfig(cfg)
	permTab, err := fplsh.NewTable(2*cfg.DSP.Rows*cfg.DSP.Cols, cfg.DSP.L, cfg.DSP.K, cfg.DSP.PermutationSeed)
	if err != nil {
		return fingerprint.Builder{}, err
	}
	audioProvider := audio.NewFFmpegProvider()
	fftProvider := spectral.NewGonumFFT()
	return fingerprint.NewBuilder(fpCfg, audioProvider, fftProvider, permTab), nil
}

func initLogging(cfg *config.Config) error {
	return logger.Initialize(cfg.LogLevel, cfg.LogFile)
}

// queryStride builds the stride strategy a query pass should use, per
// cfg.DSP.QueryStride. Incremental (the default) advances one frame
// hop at a time so every possible query-start alignment is examined;
// static falls back to the same non-overlapping hop ingest uses,
// trading recall for speed.
func queryStride(cfg *config.Config) (stride.Strategy, error) {
	switch cfg.DSP.QueryStride {
	case "static":
		return stride.NewStatic(cfg.DSP.Rows * cfg.DSP.Overlap)
	default:
		return stride.NewIncremental(cfg.DSP.Overlap)
	}
}
