// Package lsh implements C5: the fixed permutation table, per-table
// min-hash and banded key packing that turn a wavelet-encoded
// fingerprint into L locality-sensitive hash keys.
package lsh

import (
	"math/rand"

	fperrors "github.com/zfogg/soundfp/internal/errors"
)

// clampMax is the largest value one min-hash may take inside a packed
// key: larger min-hashes (including the no-set-bit sentinel N) are
// clamped to it so each fits in one byte.
const clampMax = 255

// Table is the immutable permutation table, built eagerly by
// NewTable: L*K permutations of [0, N). It is part of the on-disk schema
// identifier (spec §4.5) — changing Seed or N invalidates any
// existing index.
type Table struct {
	N    int
	L    int
	K    int
	Seed int64

	perms [][]int // L*K permutations, each a permutation of [0, N)
}

// NewTable builds the permutation table deterministically from Seed,
// so two processes with the same (N, L, K, Seed) always agree.
func NewTable(n, l, k int, seed int64) (*Table, error) {
	if n <= 0 {
		return nil, fperrors.InvalidConfigf("N must be positive, got %d", n)
	}
	if l <= 0 || k <= 0 {
		return nil, fperrors.InvalidConfigf("L and K must be positive, got L=%d K=%d", l, k)
	}
	if k > 4 {
		return nil, fperrors.InvalidConfigf("K must be at most 4 to pack into a 32-bit key, got %d", k)
	}
	rng := rand.New(rand.NewSource(seed))
	perms := make([][]int, l*k)
	for i := range perms {
		p := make([]int, n)
		for j := range p {
			p[j] = j
		}
		rng.Shuffle(n, func(a, b int) { p[a], p[b] = p[b], p[a] })
		perms[i] = p
	}
	return &Table{N: n, L: l, K: k, Seed: seed, perms: perms}, nil
}

// MinHash returns the smallest index i such that bit perm[i] is set in
// bits, or the sentinel N if no bit under this permutation is set.
func MinHash(bits []byte, perm []int) int {
	for i, p := range perm {
		byteIdx := p / 8
		bitIdx := uint(p % 8)
		if byteIdx < len(bits) && bits[byteIdx]&(1<<bitIdx) != 0 {
			return i
		}
	}
	return len(perm)
}

// HashKeys computes the table's L 32-bit hash keys for a wavelet-
// encoded fingerprint: each table's K min-hash values (clamped to
// [0,255]) are packed little-endian-byte-concatenated into one
// uint32.
func (t *Table) HashKeys(bits []byte) []uint32 {
	keys := make([]uint32, t.L)
	for table := 0; table < t.L; table++ {
		var key uint32
		for k := 0; k < t.K; k++ {
			perm := t.perms[table*t.K+k]
			mh := MinHash(bits, perm)
			if mh > clampMax {
				mh = clampMax
			}
			key |= uint32(mh) << (8 * uint(k))
		}
		keys[table] = key
	}
	return keys
}
