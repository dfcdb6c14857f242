package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// HarrisParams configures the Harris response.
type HarrisParams struct {
	// BlockSize is the side of the window the structure tensor is summed over.
	BlockSize int `json:"block_size"`

	// ApertureSize is the Sobel kernel size, 3 or 5.
	ApertureSize int `json:"aperture_size"`

	// K is the Harris free parameter in R = det - k*trace^2.
	K float64 `json:"k"`
}

// CornerHarris computes the Harris corner response of a grayscale image.
//
// The result has one cell per pixel: Rows = image height, Cols = image width.
// Values match OpenCV's cornerHarris with BORDER_DEFAULT for 8-bit input.
//
// # Algorithm
//
//  1. Sobel derivatives Ix, Iy with the requested aperture
//  2. Unnormalised sums of Ix², IxIy, Iy² over a BlockSize window
//  3. R = (ΣIx²·ΣIy² - (ΣIxIy)²) - K·(ΣIx² + ΣIy²)²
//
// # Errors
//
//   - keypoints.ErrInvalidInput for an empty image or BlockSize < 1
//   - ErrUnsupportedAperture for apertures other than 3 and 5
func CornerHarris(gray *image.Gray, p HarrisParams) (*keypoints.Surface, error) {
	t, err := structureTensor(gray, p.BlockSize, p.ApertureSize)
	if err != nil {
		return nil, err
	}

	w, h := t.xx.w, t.xx.h
	out := &keypoints.Surface{Rows: h, Cols: w, Data: make([]float64, w*h)}
	parallel.Line(h, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			a, b, c := t.xx.pix[i], t.xy.pix[i], t.yy.pix[i]
			out.Data[i] = a*c - b*b - p.K*(a+c)*(a+c)
		}
	})
	return out, nil
}

// NormalizeMinMax linearly rescales a surface so that its minimum maps to lo
// and its maximum to hi. A constant surface maps entirely to lo.
func NormalizeMinMax(s *keypoints.Surface, lo, hi float64) *keypoints.Surface {
	out := &keypoints.Surface{Rows: s.Rows, Cols: s.Cols, Data: make([]float64, len(s.Data))}
	if len(s.Data) == 0 {
		return out
	}

	smin, smax := floats.Min(s.Data), floats.Max(s.Data)
	scale := 0.0
	if smax > smin {
		scale = (hi - lo) / (smax - smin)
	}
	for i, v := range s.Data {
		out.Data[i] = (v-smin)*scale + lo
	}
	return out
}

// SurfaceToGray renders a surface as an 8-bit image by rounding absolute
// values and saturating at 255.
func SurfaceToGray(s *keypoints.Surface) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Cols, s.Rows))
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			v := math.Round(math.Abs(s.At(r, c)))
			if v > 255 {
				v = 255
			}
			img.Pix[r*img.Stride+c] = uint8(v)
		}
	}
	return img
}

// HarrisConfig configures the full Harris keypoint pipeline.
type HarrisConfig struct {
	HarrisParams

	// MinResponse is compared against the 0..255 normalised response.
	MinResponse float64 `json:"min_response"`

	// MaxOverlap is the largest overlap two kept keypoints may have.
	MaxOverlap float64 `json:"max_overlap"`

	// TruncateResponse drops the fraction of every normalised response
	// before selection, the way an integer cast of the 0..255 image does.
	TruncateResponse bool `json:"truncate_response"`
}

// DefaultHarrisConfig returns the classic settings: 2x2 blocks, 3x3 Sobel,
// k = 0.04, keep normalised responses above 100 with no overlap.
func DefaultHarrisConfig() HarrisConfig {
	return HarrisConfig{
		HarrisParams: HarrisParams{BlockSize: 2, ApertureSize: 3, K: 0.04},
		MinResponse:  100,
		MaxOverlap:   0,
	}
}

// HarrisResult is the output of HarrisKeypoints.
type HarrisResult struct {
	Keypoints []keypoints.Keypoint `json:"keypoints"`
	Count     int                  `json:"count"`

	// RawMin and RawMax are the extremes of the unnormalised response.
	RawMin float64 `json:"raw_min"`
	RawMax float64 `json:"raw_max"`

	// Normalized is the 0..255 response the selector ran on.
	Normalized *keypoints.Surface `json:"-"`
}

// HarrisKeypoints runs Harris, normalises the response to 0..255 and selects
// keypoints from it with a neighbourhood of twice the aperture size.
func HarrisKeypoints(gray *image.Gray, cfg HarrisConfig) (*HarrisResult, error) {
	raw, err := CornerHarris(gray, cfg.HarrisParams)
	if err != nil {
		return nil, err
	}
	rawMin, rawMax := raw.MinMax()
	norm := NormalizeMinMax(raw, 0, 255)
	if cfg.TruncateResponse {
		for i, v := range norm.Data {
			norm.Data[i] = math.Trunc(v)
		}
	}

	kps, err := keypoints.Select(norm, keypoints.Options{
		MinResponse:      cfg.MinResponse,
		NeighborhoodSize: float64(2 * cfg.ApertureSize),
		MaxOverlap:       cfg.MaxOverlap,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select keypoints: %w", err)
	}

	return &HarrisResult{
		Keypoints:  kps,
		Count:      len(kps),
		RawMin:     rawMin,
		RawMax:     rawMax,
		Normalized: norm,
	}, nil
}
