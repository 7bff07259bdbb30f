// Package config loads engine configuration from the environment,
// following the same .env-then-os.Getenv precedence the rest of this
// stack uses for its database and cache settings.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	fperrors "github.com/zfogg/soundfp/internal/errors"
)

// DSP holds the default fingerprinting parameters (spec defaults table).
type DSP struct {
	SampleRate    int     // resampling target, Hz
	FrameSize     int     // samples per FFT frame
	Overlap       int     // samples advanced per frame at stride=1
	Rows          int     // fingerprint image rows (time axis)
	Cols          int     // fingerprint image cols (reduced-band axis)
	TopWavelets   int     // wavelet coefficients retained per image
	L             int     // number of LSH tables
	K             int     // min-hashes banded per table
	MinFreqHz     float64 // lowest band edge
	MaxFreqHz     float64 // highest band edge
	MinHitsPerFP  int     // min LSH tables a candidate must match in before it is verified
	MinSimilarity float64 // min Hamming similarity to accept a verified match
	ThresholdVotes int    // min distinct sub-fingerprint hits to admit a track as a candidate
	PermutationSeed int64 // seed for the fixed global permutation table
	QueryStride    string // "incremental" (default, every offset) or "static" (Rows*Overlap hops)
}

// DefaultDSP returns the spec's default DSP parameter table.
func DefaultDSP() DSP {
	return DSP{
		SampleRate:      5512,
		FrameSize:       2048,
		Overlap:         64,
		Rows:            128,
		Cols:            32,
		TopWavelets:     200,
		L:               25,
		K:               4,
		MinFreqHz:       318,
		MaxFreqHz:       2000,
		MinHitsPerFP:    5,
		MinSimilarity:   0.5,
		ThresholdVotes:  5,
		PermutationSeed: 42,
		QueryStride:     "incremental",
	}
}

// Validate checks the DSP invariants the spec requires before any
// pipeline component runs.
func (d DSP) Validate() error {
	switch {
	case d.SampleRate <= 0:
		return fperrors.InvalidConfigf("sample_rate must be positive, got %d", d.SampleRate)
	case d.FrameSize <= 0:
		return fperrors.InvalidConfigf("frame_size must be positive, got %d", d.FrameSize)
	case d.Overlap <= 0 || d.Overlap > d.FrameSize:
		return fperrors.InvalidConfigf("overlap must be in (0, frame_size], got %d", d.Overlap)
	case d.Rows <= 0 || d.Cols <= 0:
		return fperrors.InvalidConfigf("rows and cols must be positive, got rows=%d cols=%d", d.Rows, d.Cols)
	case d.TopWavelets <= 0 || d.TopWavelets > d.Rows*d.Cols:
		return fperrors.InvalidConfigf("top_wavelets must be in (0, rows*cols], got %d", d.TopWavelets)
	case d.L <= 0 || d.K <= 0:
		return fperrors.InvalidConfigf("L and K must be positive, got L=%d K=%d", d.L, d.K)
	case d.MinFreqHz <= 0 || d.MaxFreqHz <= d.MinFreqHz:
		return fperrors.InvalidConfigf("min_freq must be positive and less than max_freq, got min=%f max=%f", d.MinFreqHz, d.MaxFreqHz)
	case d.MinHitsPerFP <= 0:
		return fperrors.InvalidConfigf("min_hits_per_fp must be positive, got %d", d.MinHitsPerFP)
	case d.MinSimilarity <= 0 || d.MinSimilarity > 1:
		return fperrors.InvalidConfigf("min_similarity must be in (0, 1], got %f", d.MinSimilarity)
	case d.ThresholdVotes <= 0:
		return fperrors.InvalidConfigf("threshold_votes must be positive, got %d", d.ThresholdVotes)
	case d.QueryStride != "incremental" && d.QueryStride != "static":
		return fperrors.InvalidConfigf(`query_stride must be "incremental" or "static", got %q`, d.QueryStride)
	}
	return nil
}

// Config is the engine's full runtime configuration.
type Config struct {
	DSP DSP

	StoreDriver string // "postgres" or "sqlite"
	StoreDSN    string

	RedisAddr     string
	RedisPassword string
	CacheEnabled  bool

	MetricsAddr string

	LogLevel string
	LogFile  string
}

// Load reads a .env file if present (ignored if missing, same as the
// database package's startup behavior) then builds a Config from the
// environment, falling back to DefaultDSP() and sane local defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DSP:           DefaultDSP(),
		StoreDriver:   getEnvOrDefault("SOUNDFP_STORE_DRIVER", "sqlite"),
		StoreDSN:      getEnvOrDefault("SOUNDFP_STORE_DSN", "soundfp.db"),
		RedisAddr:     getEnvOrDefault("SOUNDFP_REDIS_ADDR", ""),
		RedisPassword: os.Getenv("SOUNDFP_REDIS_PASSWORD"),
		MetricsAddr:   getEnvOrDefault("SOUNDFP_METRICS_ADDR", ":9090"),
		LogLevel:      getEnvOrDefault("SOUNDFP_LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault("SOUNDFP_LOG_FILE", "soundfp.log"),
	}
	cfg.CacheEnabled = cfg.RedisAddr != ""

	if v := os.Getenv("SOUNDFP_SAMPLE_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fperrors.InvalidConfigf("SOUNDFP_SAMPLE_RATE must be an integer: %v", err)
		}
		cfg.DSP.SampleRate = n
	}
	if v := os.Getenv("SOUNDFP_TOP_WAVELETS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fperrors.InvalidConfigf("SOUNDFP_TOP_WAVELETS must be an integer: %v", err)
		}
		cfg.DSP.TopWavelets = n
	}
	if v := os.Getenv("SOUNDFP_QUERY_STRIDE"); v != "" {
		cfg.DSP.QueryStride = v
	}

	if err := cfg.DSP.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
