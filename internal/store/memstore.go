package store

import (
	"context"
	"sync"

	fperrors "github.com/zfogg/soundfp/internal/errors"
)

// MemStore is an in-process ModelStore with a banded-bucket index:
// one bucket map per table, keyed by hash key, holding candidate
// sub-fingerprint refs. It backs unit tests and small local corpora.
type MemStore struct {
	mu sync.RWMutex

	schema    *SchemaID
	tracks    map[TrackRef]TrackMetadata
	nextTrack TrackRef

	fps       map[SubFpRef]subFpRecord
	nextFp    SubFpRef
	buckets   []map[uint32][]SubFpRef // one map per LSH table
}

type subFpRecord struct {
	track TrackRef
	bits  []byte
}

// NewMemStore builds an empty MemStore with l LSH tables.
func NewMemStore(l int) *MemStore {
	buckets := make([]map[uint32][]SubFpRef, l)
	for i := range buckets {
		buckets[i] = make(map[uint32][]SubFpRef)
	}
	return &MemStore{
		tracks:  make(map[TrackRef]TrackMetadata),
		fps:     make(map[SubFpRef]subFpRecord),
		buckets: buckets,
	}
}

func (m *MemStore) EnsureSchema(ctx context.Context, want SchemaID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.schema == nil {
		m.schema = &want
		return nil
	}
	if *m.schema != want {
		return fperrors.SchemaMismatchf("store schema %+v does not match runtime schema %+v", *m.schema, want)
	}
	return nil
}

func (m *MemStore) InsertTrack(ctx context.Context, meta TrackMetadata) (TrackRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTrack++
	ref := m.nextTrack
	m.tracks[ref] = meta
	return ref, nil
}

func (m *MemStore) InsertSubFingerprints(ctx context.Context, track TrackRef, fps []SubFingerprintInput) ([]SubFpRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracks[track]; !ok {
		return nil, fperrors.StoreFailuref(nil, "insert sub-fingerprints: unknown track %v", track)
	}
	for _, fp := range fps {
		if len(fp.HashKeys) != len(m.buckets) {
			return nil, fperrors.InvalidConfigf("sub-fingerprint has %d hash keys, store has %d LSH tables", len(fp.HashKeys), len(m.buckets))
		}
	}

	refs := make([]SubFpRef, 0, len(fps))
	for _, fp := range fps {
		m.nextFp++
		ref := m.nextFp
		m.fps[ref] = subFpRecord{track: track, bits: fp.Bits}
		for t, key := range fp.HashKeys {
			m.buckets[t][key] = append(m.buckets[t][key], ref)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (m *MemStore) ReadSubFingerprintsByHash(ctx context.Context, tableIndex int, key uint32) ([]SubFpRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tableIndex < 0 || tableIndex >= len(m.buckets) {
		return nil, fperrors.InvalidConfigf("table index %d out of range [0, %d)", tableIndex, len(m.buckets))
	}
	refs := m.buckets[tableIndex][key]
	out := make([]SubFpRef, len(refs))
	copy(out, refs)
	return out, nil
}

func (m *MemStore) ReadFingerprintBits(ctx context.Context, ref SubFpRef) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.fps[ref]
	if !ok {
		return nil, fperrors.StoreFailuref(nil, "unknown sub-fingerprint ref %v", ref)
	}
	return rec.bits, nil
}

func (m *MemStore) TrackOf(ctx context.Context, ref SubFpRef) (TrackRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.fps[ref]
	if !ok {
		return 0, fperrors.StoreFailuref(nil, "unknown sub-fingerprint ref %v", ref)
	}
	return rec.track, nil
}

func (m *MemStore) ReadTrack(ctx context.Context, ref TrackRef) (TrackMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.tracks[ref]
	if !ok {
		return TrackMetadata{}, fperrors.StoreFailuref(nil, "unknown track ref %v", ref)
	}
	return meta, nil
}
