package detection

import (
	"fmt"
	"image"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// coverageGrid is the number of cells per axis used for GridCoverage.
const coverageGrid = 4

// DetectorStats summarises one detector run.
type DetectorStats struct {
	Detector  string  `json:"detector"`
	Count     int     `json:"count"`
	ElapsedMs float64 `json:"elapsed_ms"`

	MeanX float64 `json:"mean_x"`
	StdX  float64 `json:"std_x"`
	MeanY float64 `json:"mean_y"`
	StdY  float64 `json:"std_y"`

	// MeanNearestNeighbor is the average distance from each keypoint to its
	// closest other keypoint.
	MeanNearestNeighbor float64 `json:"mean_nearest_neighbor"`

	// GridCoverage is the fraction of cells in a 4x4 grid over the image
	// that hold at least one keypoint.
	GridCoverage float64 `json:"grid_coverage"`
}

// ComparisonReport compares Shi-Tomasi and FAST on the same image.
type ComparisonReport struct {
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	ShiTomasi DetectorStats `json:"shi_tomasi"`
	FAST      DetectorStats `json:"fast"`

	ShiTomasiKeypoints []keypoints.Keypoint `json:"-"`
	FASTKeypoints      []keypoints.Keypoint `json:"-"`
}

// CompareDetectors runs both detectors on gray and reports count, speed and
// spatial distribution for each.
func CompareDetectors(gray *image.Gray, st ShiTomasiParams, fp FASTParams) (*ComparisonReport, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", keypoints.ErrInvalidInput)
	}
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	start := time.Now()
	stKps, err := ShiTomasi(gray, st)
	if err != nil {
		return nil, fmt.Errorf("shi-tomasi failed: %w", err)
	}
	stElapsed := time.Since(start)

	start = time.Now()
	fastKps, err := FAST(gray, fp)
	if err != nil {
		return nil, fmt.Errorf("fast failed: %w", err)
	}
	fastElapsed := time.Since(start)

	report := &ComparisonReport{
		Width:              w,
		Height:             h,
		ShiTomasi:          Distribution(stKps, w, h),
		FAST:               Distribution(fastKps, w, h),
		ShiTomasiKeypoints: stKps,
		FASTKeypoints:      fastKps,
	}
	report.ShiTomasi.Detector = "shi_tomasi"
	report.ShiTomasi.ElapsedMs = millis(stElapsed)
	report.FAST.Detector = "fast"
	report.FAST.ElapsedMs = millis(fastElapsed)
	return report, nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// Distribution computes the spatial statistics of keypoints on a
// width x height image. Statistics that need more keypoints than are
// available are left at zero.
func Distribution(kps []keypoints.Keypoint, width, height int) DetectorStats {
	s := DetectorStats{Count: len(kps)}
	if len(kps) == 0 {
		return s
	}

	xs := make([]float64, len(kps))
	ys := make([]float64, len(kps))
	for i, kp := range kps {
		xs[i], ys[i] = kp.X, kp.Y
	}
	s.MeanX = stat.Mean(xs, nil)
	s.MeanY = stat.Mean(ys, nil)
	if len(kps) > 1 {
		s.StdX = stat.StdDev(xs, nil)
		s.StdY = stat.StdDev(ys, nil)
		s.MeanNearestNeighbor = stat.Mean(nearestNeighborDistances(xs, ys), nil)
	}

	if width > 0 && height > 0 {
		var occupied [coverageGrid * coverageGrid]bool
		for i := range kps {
			cx := int(xs[i] * coverageGrid / float64(width))
			cy := int(ys[i] * coverageGrid / float64(height))
			if cx < 0 || cy < 0 || cx >= coverageGrid || cy >= coverageGrid {
				continue
			}
			occupied[cy*coverageGrid+cx] = true
		}
		n := 0
		for _, o := range occupied {
			if o {
				n++
			}
		}
		s.GridCoverage = float64(n) / float64(len(occupied))
	}
	return s
}

func nearestNeighborDistances(xs, ys []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		best := math.Inf(1)
		for j := range xs {
			if i == j {
				continue
			}
			if d := math.Hypot(xs[i]-xs[j], ys[i]-ys[j]); d < best {
				best = d
			}
		}
		out[i] = best
	}
	return out
}
