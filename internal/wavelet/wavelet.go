// Package wavelet implements C4: the 2-D Haar decomposition of a
// fingerprint image, top-T coefficient selection and its bit-pair
// serialization.
package wavelet

import (
	"math"
	"sort"

	fperrors "github.com/zfogg/soundfp/internal/errors"
	"github.com/zfogg/soundfp/internal/fpimage"
)

// Decompose performs a standard 2-D Haar wavelet transform in place
// semantics (the input image is not mutated; a fresh coefficient
// matrix is returned): a full multi-level 1-D Haar transform is
// applied to every row (log2(cols) levels), then to every column
// (log2(rows) levels). DC and all coefficients are weighted uniformly
// per spec §4.4 (no level-specific gain — see the design notes on
// Haar level weighting).
func Decompose(img fpimage.Image) ([][]float64, error) {
	rows := len(img)
	if rows == 0 {
		return nil, fperrors.InvalidConfigf("image has zero rows")
	}
	cols := len(img[0])
	if cols == 0 {
		return nil, fperrors.InvalidConfigf("image has zero cols")
	}
	if !isPowerOfTwo(rows) || !isPowerOfTwo(cols) {
		return nil, fperrors.InvalidConfigf("image dimensions must be powers of two, got rows=%d cols=%d", rows, cols)
	}

	coeffs := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, cols)
		copy(row, img[r])
		haar1D(row)
		coeffs[r] = row
	}

	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			col[r] = coeffs[r][c]
		}
		haar1D(col)
		for r := 0; r < rows; r++ {
			coeffs[r][c] = col[r]
		}
	}
	return coeffs, nil
}

// haar1D applies the standard pyramidal Haar transform in place,
// halving the active length each level until it reaches 1.
func haar1D(data []float64) {
	tmp := make([]float64, len(data))
	for length := len(data); length > 1; length /= 2 {
		half := length / 2
		for i := 0; i < half; i++ {
			a, b := data[2*i], data[2*i+1]
			tmp[i] = (a + b) / math.Sqrt2
			tmp[half+i] = (a - b) / math.Sqrt2
		}
		copy(data[:length], tmp[:length])
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Signed is the top-T, signed-ternary selection of a coefficient
// matrix: one entry per cell, -1/0/+1, in row-major order.
type Signed []int8

// SelectTop flattens coeffs in row-major order, keeps the topN
// largest-magnitude entries (ties broken by ascending linear index
// per spec §4.4) and replaces each retained entry with its sign
// (+1 for non-negative, -1 for negative); all others become 0.
func SelectTop(coeffs [][]float64, topN int) (Signed, error) {
	rows := len(coeffs)
	if rows == 0 {
		return nil, fperrors.InvalidConfigf("coeffs has zero rows")
	}
	cols := len(coeffs[0])
	total := rows * cols
	if topN <= 0 || topN > total {
		return nil, fperrors.InvalidConfigf("top_wavelets must be in (0, rows*cols], got %d (rows*cols=%d)", topN, total)
	}

	flat := make([]float64, total)
	for r := 0; r < rows; r++ {
		copy(flat[r*cols:(r+1)*cols], coeffs[r])
	}

	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		ai, aj := math.Abs(flat[idx[i]]), math.Abs(flat[idx[j]])
		if ai != aj {
			return ai > aj
		}
		return idx[i] < idx[j]
	})

	out := make(Signed, total)
	for _, i := range idx[:topN] {
		if flat[i] >= 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out, nil
}

// Encode serializes a Signed vector into the bit-pair layout from
// spec §3/§6: 2 bits per cell, cell i's pair at bit offset 2i,
// little-endian within each byte. (01)=+1, (10)=-1, (00)=0.
func Encode(sig Signed) []byte {
	bitLen := 2 * len(sig)
	buf := make([]byte, (bitLen+7)/8)
	for i, v := range sig {
		var pair byte
		switch {
		case v > 0:
			pair = 0b01
		case v < 0:
			pair = 0b10
		default:
			pair = 0b00
		}
		bitOff := 2 * i
		byteIdx := bitOff / 8
		shift := uint(bitOff % 8)
		buf[byteIdx] |= pair << shift
	}
	return buf
}

// Decode is the inverse of Encode, recovering the signed-ternary
// vector of the given cell count from its bit-pair serialization.
func Decode(buf []byte, cells int) Signed {
	out := make(Signed, cells)
	for i := 0; i < cells; i++ {
		bitOff := 2 * i
		byteIdx := bitOff / 8
		shift := uint(bitOff % 8)
		pair := (buf[byteIdx] >> shift) & 0b11
		switch pair {
		case 0b01:
			out[i] = 1
		case 0b10:
			out[i] = -1
		default:
			out[i] = 0
		}
	}
	return out
}
