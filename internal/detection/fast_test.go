package detection

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// createDotGray creates a black image with single bright pixels.
func createDotGray(width, height int, dots map[[2]int]uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for p, v := range dots {
		img.SetGray(p[0], p[1], color.Gray{Y: v})
	}
	return img
}

func TestFAST_ScoreIsLargestThreshold(t *testing.T) {
	img := createDotGray(30, 20, map[[2]int]uint8{{15, 10}: 100})

	tests := []struct {
		threshold int
		want      int
	}{
		{50, 1},
		{99, 1},
		{100, 0},
	}
	for _, tt := range tests {
		kps, err := FAST(img, FASTParams{Threshold: tt.threshold, NonmaxSuppression: true})
		if err != nil {
			t.Fatalf("FAST failed: %v", err)
		}
		if len(kps) != tt.want {
			t.Fatalf("threshold %d: got %d keypoints, want %d", tt.threshold, len(kps), tt.want)
		}
		if tt.want == 1 {
			kp := kps[0]
			if kp.X != 15 || kp.Y != 10 {
				t.Errorf("position: got (%v,%v), want (15,10)", kp.X, kp.Y)
			}
			if kp.Response != 99 {
				t.Errorf("response: got %v, want 99", kp.Response)
			}
			if kp.Size != 7 {
				t.Errorf("size: got %v, want 7", kp.Size)
			}
		}
	}
}

func TestFAST_Border(t *testing.T) {
	// (2,2) is inside the border for the 16 pixel circle only.
	img := createDotGray(30, 20, map[[2]int]uint8{{15, 10}: 100, {2, 2}: 255})

	tests := []struct {
		typ  FASTType
		want int
	}{
		{FAST916, 1},
		{FAST712, 2},
		{FAST58, 2},
		{"", 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			kps, err := FAST(img, FASTParams{Threshold: 50, NonmaxSuppression: true, Type: tt.typ})
			if err != nil {
				t.Fatalf("FAST failed: %v", err)
			}
			if len(kps) != tt.want {
				t.Errorf("count: got %d, want %d (%v)", len(kps), tt.want, kps)
			}
		})
	}
}

func TestFAST_RasterOrder(t *testing.T) {
	img := createDotGray(30, 20, map[[2]int]uint8{{20, 5}: 200, {8, 5}: 200, {10, 14}: 200})

	kps, err := FAST(img, DefaultFASTParams())
	if err != nil {
		t.Fatalf("FAST failed: %v", err)
	}
	want := [][2]float64{{8, 5}, {20, 5}, {10, 14}}
	if len(kps) != len(want) {
		t.Fatalf("count: got %d, want %d", len(kps), len(want))
	}
	for i, w := range want {
		if kps[i].X != w[0] || kps[i].Y != w[1] {
			t.Errorf("keypoint %d: got (%v,%v), want (%v,%v)", i, kps[i].X, kps[i].Y, w[0], w[1])
		}
	}
}

func TestFAST_NonmaxSuppression(t *testing.T) {
	img := createSquareGray(40, 40, 10, 10, 29, 29)

	all, err := FAST(img, FASTParams{Threshold: 50, NonmaxSuppression: false})
	if err != nil {
		t.Fatalf("FAST failed: %v", err)
	}
	suppressed, err := FAST(img, FASTParams{Threshold: 50, NonmaxSuppression: true})
	if err != nil {
		t.Fatalf("FAST failed: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected corners without suppression")
	}
	if len(suppressed) >= len(all) {
		t.Errorf("suppression kept %d of %d corners", len(suppressed), len(all))
	}
	corners := [][2]float64{{10, 10}, {29, 10}, {10, 29}, {29, 29}}
	for _, kp := range all {
		if !nearAny(kp, corners, 3) {
			t.Errorf("keypoint (%v,%v) is not near a corner", kp.X, kp.Y)
		}
	}
}

func TestFAST_FlatImage(t *testing.T) {
	kps, err := FAST(createFlatGray(20, 20, 128), FASTParams{Threshold: 0})
	if err != nil {
		t.Fatalf("FAST failed: %v", err)
	}
	if len(kps) != 0 {
		t.Errorf("count: got %d, want 0", len(kps))
	}
}

func TestFAST_SubImage(t *testing.T) {
	img := createDotGray(40, 40, map[[2]int]uint8{{25, 25}: 200})
	sub := img.SubImage(image.Rect(10, 10, 40, 40)).(*image.Gray)

	kps, err := FAST(sub, DefaultFASTParams())
	if err != nil {
		t.Fatalf("FAST failed: %v", err)
	}
	if len(kps) != 1 || kps[0].X != 15 || kps[0].Y != 15 {
		t.Errorf("keypoints: got %v, want one at (15,15)", kps)
	}
}

func TestFAST_Errors(t *testing.T) {
	if _, err := FAST(nil, DefaultFASTParams()); !errors.Is(err, keypoints.ErrInvalidInput) {
		t.Errorf("nil image: got %v, want ErrInvalidInput", err)
	}
	if _, err := FAST(createFlatGray(10, 10, 0), FASTParams{Type: "4_6"}); !errors.Is(err, keypoints.ErrInvalidInput) {
		t.Errorf("unknown type: got %v, want ErrInvalidInput", err)
	}
}
