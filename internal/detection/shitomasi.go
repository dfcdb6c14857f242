package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// ShiTomasiParams configures the Shi-Tomasi "good features to track" detector.
type ShiTomasiParams struct {
	// BlockSize is the structure tensor window; it is also the keypoint size.
	BlockSize int `json:"block_size"`

	// ApertureSize is the Sobel kernel size, 3 or 5. Zero means 3.
	ApertureSize int `json:"aperture_size,omitempty"`

	// QualityLevel is the fraction of the strongest response a corner
	// must exceed.
	QualityLevel float64 `json:"quality_level"`

	// MinDistance is the smallest Euclidean distance allowed between two
	// returned corners.
	MinDistance float64 `json:"min_distance"`

	// MaxCorners caps the number of corners. Zero means no limit.
	MaxCorners int `json:"max_corners"`
}

// DefaultShiTomasiParams derives detector settings for a width x height
// image from the largest permissible overlap between keypoints.
//
// MinDistance is (1-maxOverlap)*BlockSize and MaxCorners is the number of
// MinDistance-wide cells that fit in the image.
func DefaultShiTomasiParams(width, height int, maxOverlap float64) ShiTomasiParams {
	const blockSize = 6
	minDistance := (1.0 - maxOverlap) * blockSize
	return ShiTomasiParams{
		BlockSize:    blockSize,
		ApertureSize: 3,
		QualityLevel: 0.01,
		MinDistance:  minDistance,
		MaxCorners:   int(float64(width*height) / math.Max(1.0, minDistance)),
	}
}

// MinEigenValue computes the smaller eigenvalue of the 2x2 structure tensor
// at every pixel, scaled like OpenCV's cornerMinEigenVal.
func MinEigenValue(gray *image.Gray, blockSize, aperture int) (*keypoints.Surface, error) {
	t, err := structureTensor(gray, blockSize, aperture)
	if err != nil {
		return nil, err
	}

	w, h := t.xx.w, t.xx.h
	out := &keypoints.Surface{Rows: h, Cols: w, Data: make([]float64, w*h)}
	for i := range out.Data {
		a := t.xx.pix[i] * 0.5
		b := t.xy.pix[i]
		c := t.yy.pix[i] * 0.5
		out.Data[i] = (a + c) - math.Sqrt((a-c)*(a-c)+b*b)
	}
	return out, nil
}

// ShiTomasi detects corners where the minimum eigenvalue is a strong local
// maximum.
//
// # Algorithm
//
//  1. Minimum eigenvalue surface
//  2. Zero every value at or below QualityLevel times the maximum
//  3. Keep interior pixels that equal the maximum of their 3x3 neighbourhood
//  4. Sort by response, strongest first
//  5. Accept greedily, dropping corners closer than MinDistance to an
//     accepted one, until MaxCorners are found
//
// Corners with equal response are taken in reverse raster order.
func ShiTomasi(gray *image.Gray, p ShiTomasiParams) ([]keypoints.Keypoint, error) {
	if p.QualityLevel <= 0 || math.IsNaN(p.QualityLevel) {
		return nil, fmt.Errorf("%w: quality level %v must be positive", keypoints.ErrInvalidInput, p.QualityLevel)
	}
	if p.MaxCorners < 0 {
		return nil, fmt.Errorf("%w: max corners %d must not be negative", keypoints.ErrInvalidInput, p.MaxCorners)
	}
	aperture := p.ApertureSize
	if aperture == 0 {
		aperture = 3
	}

	eig, err := MinEigenValue(gray, p.BlockSize, aperture)
	if err != nil {
		return nil, err
	}

	_, maxVal := eig.MinMax()
	thresh := maxVal * p.QualityLevel
	for i, v := range eig.Data {
		if v <= thresh {
			eig.Data[i] = 0
		}
	}

	type corner struct {
		x, y int
		v    float64
		seq  int
	}
	candidates := make([]corner, 0)
	for y := 1; y < eig.Rows-1; y++ {
		for x := 1; x < eig.Cols-1; x++ {
			v := eig.At(y, x)
			if v == 0 || !isLocalMax(eig, y, x) {
				continue
			}
			candidates = append(candidates, corner{x: x, y: y, v: v, seq: len(candidates)})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].v != candidates[j].v {
			return candidates[i].v > candidates[j].v
		}
		return candidates[i].seq > candidates[j].seq
	})

	minDist2 := p.MinDistance * p.MinDistance
	kps := make([]keypoints.Keypoint, 0)
	for _, c := range candidates {
		if p.MaxCorners > 0 && len(kps) >= p.MaxCorners {
			break
		}
		good := true
		if p.MinDistance >= 1 {
			for _, k := range kps {
				dx, dy := float64(c.x)-k.X, float64(c.y)-k.Y
				if dx*dx+dy*dy < minDist2 {
					good = false
					break
				}
			}
		}
		if good {
			kps = append(kps, keypoints.Keypoint{
				X:        float64(c.x),
				Y:        float64(c.y),
				Size:     float64(p.BlockSize),
				Response: c.v,
			})
		}
	}
	return kps, nil
}

// isLocalMax reports whether the value at (row, col) is the largest of its
// 3x3 neighbourhood. Ties count as maxima.
func isLocalMax(s *keypoints.Surface, row, col int) bool {
	v := s.At(row, col)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if s.At(row+dr, col+dc) > v {
				return false
			}
		}
	}
	return true
}
