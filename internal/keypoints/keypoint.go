package keypoints

import (
	"errors"
	"math"
)

var (
	// ErrInvalidInput is returned for an empty or malformed surface and for a
	// non-positive neighborhood size.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidThreshold is returned when the overlap threshold is outside [0, 1).
	ErrInvalidThreshold = errors.New("invalid overlap threshold")
)

// Keypoint is a selected point of interest.
type Keypoint struct {
	// X is the horizontal position (surface column).
	X float64 `json:"x"`

	// Y is the vertical position (surface row).
	Y float64 `json:"y"`

	// Size is the diameter of the neighborhood used for overlap tests.
	Size float64 `json:"size"`

	// Response is the surface score at (X, Y).
	Response float64 `json:"response"`
}

// Overlap returns the intersection-over-union of the discs of diameter Size
// centered on a and b.
//
// The result is in [0, 1]: 1 for identical discs, 0 for discs that do not
// intersect (touching counts as not intersecting). When one disc lies inside
// the other the overlap is the ratio of their areas.
func Overlap(a, b Keypoint) float64 {
	ra := a.Size * 0.5
	rb := b.Size * 0.5
	ra2 := ra * ra
	rb2 := rb * rb
	c := math.Hypot(a.X-b.X, a.Y-b.Y)

	if math.Min(ra, rb)+c <= math.Max(ra, rb) {
		if ra2 == 0 && rb2 == 0 {
			return 0
		}
		return math.Min(ra2, rb2) / math.Max(ra2, rb2)
	}
	if c >= ra+rb {
		return 0
	}

	c2 := c * c
	cosAlpha := clampUnit((rb2 + c2 - ra2) / (b.Size * c))
	cosBeta := clampUnit((ra2 + c2 - rb2) / (a.Size * c))
	alpha := math.Acos(cosAlpha)
	beta := math.Acos(cosBeta)

	// Two circular segments, each a sector minus its triangle.
	intersection := ra2*beta + rb2*alpha -
		ra2*math.Sin(beta)*cosBeta -
		rb2*math.Sin(alpha)*cosAlpha
	union := (ra2+rb2)*math.Pi - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
