// Package models defines the gorm schema backing the model store: one
// row per track, one row per sub-fingerprint, one row per LSH
// hash-table entry, plus a single schema-identifier row checked at
// store-open time.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Track is a recognizable piece of content and its metadata.
type Track struct {
	gorm.Model
	ExternalID    string `gorm:"uniqueIndex;size:191"` // caller-supplied stable ID (e.g. ISRC)
	Artist        string
	Title         string
	Album         string
	ReleaseYear   int
	LengthSeconds float64

	SubFingerprints []SubFingerprint `gorm:"foreignKey:TrackID"`
}

// SubFingerprint is one wavelet-encoded fingerprint image emitted for
// a track at a given time offset.
type SubFingerprint struct {
	gorm.Model
	TrackID            uint `gorm:"index"`
	StartOffsetSeconds float64
	// Bits is the signed-ternary bit-pair serialization of the top-T
	// wavelet coefficients: 2 bits per image cell, length
	// ceil(rows*cols*2/8) bytes.
	Bits []byte

	HashEntries []HashEntry `gorm:"foreignKey:SubFingerprintID"`
}

// HashEntry is one LSH table's banded min-hash key for a
// sub-fingerprint. A sub-fingerprint has exactly L entries, one per
// table.
type HashEntry struct {
	gorm.Model
	SubFingerprintID uint   `gorm:"index:idx_table_hash,priority:2"`
	TableIndex       int    `gorm:"index:idx_table_hash,priority:1"`
	HashKey          uint32 `gorm:"index:idx_table_hash,priority:1"`
}

// SchemaIdentifier is the single persisted row describing the DSP
// parameters a store's contents were generated under. A store opened
// against a Config whose identifier disagrees is a SchemaMismatch.
type SchemaIdentifier struct {
	ID              uint `gorm:"primarykey"`
	Rows            int
	Cols            int
	TopWavelets     int
	L               int
	K               int
	PermutationSeed int64
	CreatedAt       time.Time
}

// AllModels lists every model for AutoMigrate, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Track{},
		&SubFingerprint{},
		&HashEntry{},
		&SchemaIdentifier{},
	}
}
