package keypoints

import (
	"fmt"
	"math"
)

// Options configures Select.
type Options struct {
	// MinResponse is the exclusive lower bound on scores. Cells whose score
	// is <= MinResponse are ignored.
	MinResponse float64 `json:"min_response"`

	// NeighborhoodSize is the diameter given to every keypoint. Must be > 0.
	NeighborhoodSize float64 `json:"neighborhood_size"`

	// MaxOverlap is the largest tolerated overlap fraction between two
	// keypoints, in [0, 1). Pairs above it conflict.
	MaxOverlap float64 `json:"max_overlap"`
}

// Validate reports whether the options can be used for a selection.
func (o Options) Validate() error {
	if !(o.NeighborhoodSize > 0) || math.IsInf(o.NeighborhoodSize, 0) {
		return fmt.Errorf("%w: neighborhood size %v must be positive", ErrInvalidInput, o.NeighborhoodSize)
	}
	if !(o.MaxOverlap >= 0 && o.MaxOverlap < 1) {
		return fmt.Errorf("%w: max overlap %v must be in [0, 1)", ErrInvalidThreshold, o.MaxOverlap)
	}
	return nil
}

// Select performs greedy non-maximum suppression over a response surface.
//
// Parameters:
//   - surface: Non-empty response grid. It is only read.
//   - opts: Response threshold, keypoint diameter and overlap tolerance.
//
// Returns:
//   - []Keypoint: Selected keypoints in construction order. Empty, not nil,
//     when no cell exceeds MinResponse.
//   - error: ErrInvalidInput or ErrInvalidThreshold; no keypoints are
//     returned alongside an error.
//
// # Algorithm
//
//  1. Visit cells in row-major order and skip scores <= MinResponse.
//  2. Build a candidate at (X=col, Y=row) with the cell score.
//  3. Compare the candidate against each selected keypoint by index. On the
//     first conflict (overlap > MaxOverlap) where the candidate is strictly
//     stronger, overwrite that slot and stop. Weaker-or-equal candidates keep
//     scanning, so a later, weaker neighbor can still be replaced.
//  4. Append the candidate when it conflicted with nothing.
//
// Every candidate is checked against every kept keypoint, O(n) per
// candidate. See the package documentation for the replacement caveats.
func Select(surface *Surface, opts Options) ([]Keypoint, error) {
	if err := surface.validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	kps := make([]Keypoint, 0)
	for row := 0; row < surface.Rows; row++ {
		for col := 0; col < surface.Cols; col++ {
			score := surface.Data[row*surface.Cols+col]
			if !(score > opts.MinResponse) {
				continue
			}

			candidate := Keypoint{
				X:        float64(col),
				Y:        float64(row),
				Size:     opts.NeighborhoodSize,
				Response: score,
			}

			conflict := false
			for i := 0; i < len(kps); i++ {
				if Overlap(candidate, kps[i]) <= opts.MaxOverlap {
					continue
				}
				conflict = true
				if candidate.Response > kps[i].Response {
					kps[i] = candidate
					break
				}
			}

			if !conflict {
				kps = append(kps, candidate)
			}
		}
	}

	return kps, nil
}
