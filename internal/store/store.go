// Package store defines C9, the narrow contract the core consumes to
// persist tracks, sub-fingerprints and hash-table entries, plus the
// concrete implementations: a gorm-backed SQL store (postgres or
// sqlite) and an in-memory store for tests.
package store

import "context"

// TrackRef opaquely identifies a persisted track.
type TrackRef uint

// SubFpRef opaquely identifies a persisted sub-fingerprint.
type SubFpRef uint

// TrackMetadata is a track's caller-supplied identity.
type TrackMetadata struct {
	ExternalID    string  `json:"external_id"`
	Artist        string  `json:"artist"`
	Title         string  `json:"title"`
	Album         string  `json:"album"`
	ReleaseYear   int     `json:"release_year"`
	LengthSeconds float64 `json:"length_seconds"`
}

// SubFingerprintInput is one sub-fingerprint awaiting insertion,
// produced by the C7 fingerprint command.
type SubFingerprintInput struct {
	StartOffsetSeconds float64
	Bits               []byte
	HashKeys           []uint32 // length L, one per table
}

// SchemaID is the persisted tuple of structural parameters (spec §6).
// EnsureSchema compares it with the store's persisted identifier and
// reports SchemaMismatch; the read and write methods do not check it
// themselves, so the CLI commands call EnsureSchema before using a
// store.
type SchemaID struct {
	Rows            int
	Cols            int
	TopWavelets     int
	L               int
	K               int
	PermutationSeed int64
}

// ModelStore is C9's contract. Implementations need not be
// transactional beyond "inserts are durable before the next read".
type ModelStore interface {
	// EnsureSchema checks (or, on first use, records) the store's
	// schema identifier, returning SchemaMismatch if it disagrees with
	// want.
	EnsureSchema(ctx context.Context, want SchemaID) error

	InsertTrack(ctx context.Context, meta TrackMetadata) (TrackRef, error)

	// InsertSubFingerprints persists a batch atomically: either all
	// sub-fingerprints (and their L hash-table entries each) are
	// durable, or none are. Inserts are not deduplicated: repeating a
	// batch for the same (track, start_offset_seconds) stores a second
	// copy of each sub-fingerprint and its hash-table entries.
	InsertSubFingerprints(ctx context.Context, track TrackRef, fps []SubFingerprintInput) ([]SubFpRef, error)

	// ReadSubFingerprintsByHash returns every sub-fingerprint reference
	// filed under hash key in the given LSH table.
	ReadSubFingerprintsByHash(ctx context.Context, tableIndex int, key uint32) ([]SubFpRef, error)

	ReadFingerprintBits(ctx context.Context, ref SubFpRef) ([]byte, error)

	// TrackOf returns the track a sub-fingerprint belongs to.
	TrackOf(ctx context.Context, ref SubFpRef) (TrackRef, error)

	ReadTrack(ctx context.Context, ref TrackRef) (TrackMetadata, error)
}
