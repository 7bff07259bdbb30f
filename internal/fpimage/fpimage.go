// Package fpimage implements C3: grouping a fixed count of consecutive
// reduced frames into one fingerprint image.
package fpimage

import fperrors "github.com/zfogg/soundfp/internal/errors"

// Image is a rows x cols matrix of reduced-band frames stacked in
// time: Image[r] is the r-th reduced frame.
type Image [][]float64

// Group buffers exactly rows consecutive reduced frames starting at
// frames[0] and returns the resulting image. It buffers only one
// image per call; repeated, possibly overlapping calls are driven by
// the stride scheduler (C6) choosing each call's starting frame.
func Group(frames [][]float64, rows int) (Image, error) {
	if rows <= 0 {
		return nil, fperrors.InvalidConfigf("rows must be positive, got %d", rows)
	}
	if len(frames) < rows {
		// Not enough reduced frames for one image: spec treats this as
		// "no fingerprint produced", not an error.
		return nil, nil
	}
	img := make(Image, rows)
	copy(img, frames[:rows])
	return img, nil
}
