package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreTrackAndSubFingerprintRoundTrip(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(3)

	track, err := ms.InsertTrack(ctx, TrackMetadata{ExternalID: "abc", Artist: "Test Artist", Title: "Test Title"})
	require.NoError(t, err)

	refs, err := ms.InsertSubFingerprints(ctx, track, []SubFingerprintInput{
		{StartOffsetSeconds: 0, Bits: []byte{0xAB}, HashKeys: []uint32{1, 2, 3}},
		{StartOffsetSeconds: 1.5, Bits: []byte{0xCD}, HashKeys: []uint32{1, 5, 9}},
	})
	require.NoError(t, err)
	require.Len(t, refs, 2)

	bits, err := ms.ReadFingerprintBits(ctx, refs[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB}, bits)

	gotTrack, err := ms.TrackOf(ctx, refs[0])
	require.NoError(t, err)
	assert.Equal(t, track, gotTrack)

	meta, err := ms.ReadTrack(ctx, track)
	require.NoError(t, err)
	assert.Equal(t, "Test Artist", meta.Artist)

	hits, err := ms.ReadSubFingerprintsByHash(ctx, 0, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, refs, hits)

	hits, err = ms.ReadSubFingerprintsByHash(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []SubFpRef{refs[0]}, hits)
}

func TestMemStoreInsertSubFingerprintsRejectsUnknownTrack(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(3)
	_, err := ms.InsertSubFingerprints(ctx, TrackRef(999), []SubFingerprintInput{
		{Bits: []byte{0x01}, HashKeys: []uint32{1, 2, 3}},
	})
	assert.Error(t, err)
}

func TestMemStoreInsertSubFingerprintsRejectsWrongHashKeyCount(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(3)
	track, err := ms.InsertTrack(ctx, TrackMetadata{})
	require.NoError(t, err)

	_, err = ms.InsertSubFingerprints(ctx, track, []SubFingerprintInput{
		{Bits: []byte{0x01}, HashKeys: []uint32{1, 2}},
	})
	assert.Error(t, err)
}

func TestMemStoreEnsureSchemaDetectsMismatch(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(3)

	want := SchemaID{Rows: 128, Cols: 32, TopWavelets: 200, L: 25, K: 4, PermutationSeed: 42}
	require.NoError(t, ms.EnsureSchema(ctx, want))
	require.NoError(t, ms.EnsureSchema(ctx, want))

	mismatched := want
	mismatched.TopWavelets = 100
	assert.Error(t, ms.EnsureSchema(ctx, mismatched))
}

func TestMemStoreReadsOnUnknownRefsFail(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(3)

	_, err := ms.ReadFingerprintBits(ctx, SubFpRef(42))
	assert.Error(t, err)
	_, err = ms.TrackOf(ctx, SubFpRef(42))
	assert.Error(t, err)
	_, err = ms.ReadTrack(ctx, TrackRef(42))
	assert.Error(t, err)
}
