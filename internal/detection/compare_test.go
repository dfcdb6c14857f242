package detection

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

func TestDistribution(t *testing.T) {
	kps := []keypoints.Keypoint{
		{X: 0, Y: 0},
		{X: 30, Y: 0},
		{X: 0, Y: 40},
		{X: 30, Y: 40},
	}

	s := Distribution(kps, 40, 80)
	if s.Count != 4 {
		t.Errorf("Count: got %d, want 4", s.Count)
	}
	if s.MeanX != 15 || s.MeanY != 20 {
		t.Errorf("mean: got (%v,%v), want (15,20)", s.MeanX, s.MeanY)
	}
	// Sample standard deviation of {0,0,30,30} is sqrt(300).
	if math.Abs(s.StdX-math.Sqrt(300)) > 1e-9 {
		t.Errorf("StdX: got %v, want %v", s.StdX, math.Sqrt(300))
	}
	if s.MeanNearestNeighbor != 30 {
		t.Errorf("MeanNearestNeighbor: got %v, want 30", s.MeanNearestNeighbor)
	}
	// Cells (0,0), (3,0), (0,2), (3,2) of the 4x4 grid.
	if s.GridCoverage != 4.0/16.0 {
		t.Errorf("GridCoverage: got %v, want 0.25", s.GridCoverage)
	}
}

func TestDistribution_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		kps  []keypoints.Keypoint
	}{
		{"empty", nil},
		{"single", []keypoints.Keypoint{{X: 3, Y: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Distribution(tt.kps, 10, 10)
			for name, v := range map[string]float64{
				"StdX": s.StdX, "StdY": s.StdY, "MeanNearestNeighbor": s.MeanNearestNeighbor,
			} {
				if v != 0 || math.IsNaN(v) {
					t.Errorf("%s: got %v, want 0", name, v)
				}
			}
		})
	}
}

func TestCompareDetectors(t *testing.T) {
	img := createSquareGray(40, 40, 10, 10, 29, 29)

	report, err := CompareDetectors(img, DefaultShiTomasiParams(40, 40, 0), FASTParams{Threshold: 50, Type: FAST916})
	if err != nil {
		t.Fatalf("CompareDetectors failed: %v", err)
	}

	if report.Width != 40 || report.Height != 40 {
		t.Errorf("dimensions: got %dx%d, want 40x40", report.Width, report.Height)
	}
	if report.ShiTomasi.Detector != "shi_tomasi" || report.FAST.Detector != "fast" {
		t.Errorf("detector names: got %q and %q", report.ShiTomasi.Detector, report.FAST.Detector)
	}
	if report.ShiTomasi.Count != len(report.ShiTomasiKeypoints) {
		t.Errorf("shi-tomasi count %d does not match %d keypoints", report.ShiTomasi.Count, len(report.ShiTomasiKeypoints))
	}
	if report.FAST.Count != len(report.FASTKeypoints) {
		t.Errorf("fast count %d does not match %d keypoints", report.FAST.Count, len(report.FASTKeypoints))
	}
	if report.ShiTomasi.Count != 4 {
		t.Errorf("shi-tomasi count: got %d, want 4", report.ShiTomasi.Count)
	}
	if report.FAST.Count == 0 {
		t.Error("fast found no corners without suppression")
	}
	if report.ShiTomasi.ElapsedMs < 0 || report.FAST.ElapsedMs < 0 {
		t.Error("elapsed time is negative")
	}
}

func TestCompareDetectors_Errors(t *testing.T) {
	_, err := CompareDetectors(image.NewGray(image.Rect(0, 0, 0, 0)), DefaultShiTomasiParams(1, 1, 0), DefaultFASTParams())
	if !errors.Is(err, keypoints.ErrInvalidInput) {
		t.Errorf("empty image: got %v, want ErrInvalidInput", err)
	}

	_, err = CompareDetectors(createFlatGray(10, 10, 0), ShiTomasiParams{BlockSize: 3}, DefaultFASTParams())
	if !errors.Is(err, keypoints.ErrInvalidInput) {
		t.Errorf("zero quality: got %v, want ErrInvalidInput", err)
	}
}
