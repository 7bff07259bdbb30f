package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGormStoreTrackAndSubFingerprintRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestGormStore(t)

	track, err := db.InsertTrack(ctx, TrackMetadata{ExternalID: "track-1", Artist: "A", Title: "T"})
	require.NoError(t, err)

	refs, err := db.InsertSubFingerprints(ctx, track, []SubFingerprintInput{
		{StartOffsetSeconds: 0, Bits: []byte{0x01, 0x02}, HashKeys: []uint32{11, 22}},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)

	bits, err := db.ReadFingerprintBits(ctx, refs[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, bits)

	gotTrack, err := db.TrackOf(ctx, refs[0])
	require.NoError(t, err)
	assert.Equal(t, track, gotTrack)

	hits, err := db.ReadSubFingerprintsByHash(ctx, 0, 11)
	require.NoError(t, err)
	assert.Equal(t, []SubFpRef{refs[0]}, hits)

	hits, err = db.ReadSubFingerprintsByHash(ctx, 0, 999)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestGormStoreEnsureSchemaPersistsAndDetectsMismatch(t *testing.T) {
	ctx := context.Background()
	db := openTestGormStore(t)

	want := SchemaID{Rows: 128, Cols: 32, TopWavelets: 200, L: 25, K: 4, PermutationSeed: 42}
	require.NoError(t, db.EnsureSchema(ctx, want))
	require.NoError(t, db.EnsureSchema(ctx, want))

	mismatched := want
	mismatched.K = 2
	assert.Error(t, db.EnsureSchema(ctx, mismatched))
}

func TestGormStoreInsertSubFingerprintsIsTransactional(t *testing.T) {
	ctx := context.Background()
	db := openTestGormStore(t)

	track, err := db.InsertTrack(ctx, TrackMetadata{ExternalID: "track-2"})
	require.NoError(t, err)

	refs, err := db.InsertSubFingerprints(ctx, track, []SubFingerprintInput{
		{StartOffsetSeconds: 0, Bits: []byte{0x01}, HashKeys: []uint32{1}},
		{StartOffsetSeconds: 1, Bits: []byte{0x02}, HashKeys: []uint32{2}},
	})
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}
