package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableIsDeterministicForSameSeed(t *testing.T) {
	t1, err := NewTable(256, 25, 4, 42)
	require.NoError(t, err)
	t2, err := NewTable(256, 25, 4, 42)
	require.NoError(t, err)

	bits := make([]byte, 32)
	bits[3] = 0b00010000

	assert.Equal(t, t1.HashKeys(bits), t2.HashKeys(bits))
}

func TestNewTableDiffersForDifferentSeeds(t *testing.T) {
	t1, err := NewTable(256, 25, 4, 42)
	require.NoError(t, err)
	t2, err := NewTable(256, 25, 4, 7)
	require.NoError(t, err)

	bits := make([]byte, 32)
	bits[3] = 0b00010000

	assert.NotEqual(t, t1.HashKeys(bits), t2.HashKeys(bits))
}

func TestNewTableRejectsKGreaterThanFour(t *testing.T) {
	_, err := NewTable(256, 25, 5, 42)
	assert.Error(t, err)
}

func TestNewTableRejectsNonPositiveParams(t *testing.T) {
	_, err := NewTable(0, 25, 4, 42)
	assert.Error(t, err)
	_, err = NewTable(256, 0, 4, 42)
	assert.Error(t, err)
	_, err = NewTable(256, 25, 0, 42)
	assert.Error(t, err)
}

func TestHashKeysProducesLKeys(t *testing.T) {
	tab, err := NewTable(64, 10, 3, 1)
	require.NoError(t, err)
	bits := make([]byte, 8)
	bits[0] = 0xFF

	keys := tab.HashKeys(bits)
	assert.Len(t, keys, 10)
}

func TestMinHashReturnsSentinelWhenNoBitSet(t *testing.T) {
	perm := []int{3, 1, 0, 2}
	bits := []byte{0x00}
	assert.Equal(t, len(perm), MinHash(bits, perm))
}

func TestMinHashReturnsSmallestPermutedIndexOfASetBit(t *testing.T) {
	perm := []int{3, 1, 0, 2}
	bits := []byte{0b00000010} // bit 1 set
	assert.Equal(t, 1, MinHash(bits, perm))
}
