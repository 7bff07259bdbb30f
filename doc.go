// Package soundfp implements a Haar-wavelet, LSH-based audio content
// fingerprinting and recognition engine.

// The root package holds no exported API; the engine is organized into
// internal subpackages:

// - internal/spectral: PCM framing, windowing and FFT magnitude spectra
// - internal/bands: logarithmic frequency-band reduction
// - internal/fpimage: fixed-size fingerprint image construction
// - internal/wavelet: 2-D Haar decomposition and bit-pair encoding
// - internal/lsh: permutation tables, min-hash and banding into hash keys
// - internal/stride: frame-stride scheduling strategies
// - internal/fingerprint: end-to-end ingest pipeline and worker pool
// - internal/query: candidate gathering, exact verification and scoring
// - internal/store: persistent model store (tracks, sub-fingerprints, hash tables)
// - internal/models: gorm schema for the model store
// - internal/audio: audio decode/resample provider
// - internal/cache: optional hash-bucket cache in front of a store
// - internal/config: environment-driven configuration
// - internal/logger: structured logging
// - internal/metrics: Prometheus instrumentation
// - internal/errors: tagged engine errors

// See the individual package documentation for detailed API reference.
package soundfp
