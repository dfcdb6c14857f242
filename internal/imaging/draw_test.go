package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

func TestDrawKeypoints(t *testing.T) {
	img := createInMemoryImage(40, 40, color.RGBA{0, 0, 0, 255})
	kps := []keypoints.Keypoint{
		{X: 10, Y: 10, Size: 8, Response: 200},
		{X: 30, Y: 25, Size: 8, Response: 150},
	}

	out, err := DrawKeypoints(img, kps, DrawOptions{Color: "#00ff00", Rich: true})
	if err != nil {
		t.Fatalf("DrawKeypoints failed: %v", err)
	}

	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 40 {
		t.Errorf("dimensions: got %dx%d, want 40x40", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// Center cross and the circle outline at radius 4
	for _, p := range [][2]int{{10, 10}, {14, 10}, {30, 25}, {30, 21}} {
		c := out.NRGBAAt(p[0], p[1])
		if c.G != 255 || c.R != 0 {
			t.Errorf("pixel %v: got %v, want green", p, c)
		}
	}

	// Source is untouched
	r, g, b, _ := img.At(10, 10).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Error("DrawKeypoints modified the source image")
	}
}

func TestDrawKeypoints_InvalidColor(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	if _, err := DrawKeypoints(img, nil, DrawOptions{Color: "not-a-color"}); err == nil {
		t.Error("DrawKeypoints should fail for an invalid color")
	}
}

func TestDrawKeypoints_OffImage(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	kps := []keypoints.Keypoint{{X: -5, Y: 50, Size: 40}, {X: 9, Y: 9, Size: 100}}

	// Markers are clipped rather than panicking
	if _, err := DrawKeypoints(img, kps, DrawOptions{Rich: true, ShowIndex: true}); err != nil {
		t.Fatalf("DrawKeypoints failed: %v", err)
	}
}

func TestDrawKeypoints_Grid(t *testing.T) {
	img := createInMemoryImage(40, 40, color.RGBA{0, 0, 0, 255})

	out, err := DrawKeypoints(img, nil, DrawOptions{Grid: 10})
	if err != nil {
		t.Fatalf("DrawKeypoints failed: %v", err)
	}

	want := color.NRGBA{255, 0, 0, 128}
	for _, p := range [][2]int{{10, 30}, {20, 25}, {35, 20}} {
		if c := out.NRGBAAt(p[0], p[1]); c != want {
			t.Errorf("grid pixel %v: got %v, want %v", p, c, want)
		}
	}
	if c := out.NRGBAAt(5, 5); c.R != 0 || c.G != 0 || c.B != 0 {
		t.Errorf("pixel (5,5) should stay black, got %v", c)
	}
}

func TestDrawMatches(t *testing.T) {
	a := createInMemoryImage(30, 20, color.RGBA{0, 0, 0, 255})
	b := createInMemoryImage(20, 30, color.RGBA{0, 0, 0, 255})
	kpsA := []keypoints.Keypoint{{X: 5, Y: 5, Size: 4}}
	kpsB := []keypoints.Keypoint{{X: 5, Y: 5, Size: 4}}

	out, err := DrawMatches(a, kpsA, b, kpsB, []Correspondence{{A: 0, B: 0}}, DrawOptions{Color: "#ff0000"})
	if err != nil {
		t.Fatalf("DrawMatches failed: %v", err)
	}

	if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 50x30", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// The horizontal line from (5,5) to (35,5)
	for x := 5; x <= 35; x += 5 {
		if c := out.NRGBAAt(x, 5); c.R != 255 {
			t.Errorf("line pixel (%d,5): got %v, want red", x, c)
		}
	}
}

func TestDrawMatches_OutOfRange(t *testing.T) {
	a := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	kps := []keypoints.Keypoint{{X: 1, Y: 1}}

	_, err := DrawMatches(a, kps, a, kps, []Correspondence{{A: 0, B: 3}}, DrawOptions{})
	if err == nil {
		t.Error("DrawMatches should fail for an out-of-range correspondence")
	}
}

func TestDrawMatches_FarAndNonFiniteKeypoints(t *testing.T) {
	img := createInMemoryImage(16, 16, color.RGBA{0, 0, 0, 255})
	kpsA := []keypoints.Keypoint{{X: 5, Y: 5, Size: 4}}

	tests := []struct {
		name  string
		kp    keypoints.Keypoint
		drawn bool
	}{
		{"far right", keypoints.Keypoint{X: 1e9, Y: 5, Size: 4}, true},
		{"far away with huge size", keypoints.Keypoint{X: -1e12, Y: 1e12, Size: 1e12}, true},
		{"NaN x", keypoints.Keypoint{X: math.NaN(), Y: 5, Size: 4}, false},
		{"infinite size", keypoints.Keypoint{X: 5, Y: 5, Size: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DrawMatches(img, kpsA, img, []keypoints.Keypoint{tt.kp}, []Correspondence{{A: 0, B: 0}}, DrawOptions{Color: "#ff0000", Rich: true})
			if err != nil {
				t.Fatalf("DrawMatches failed: %v", err)
			}
			c := out.NRGBAAt(5, 5)
			if got := c.R == 255; got != tt.drawn {
				t.Errorf("marker at (5,5): got %v, want drawn=%v", c, tt.drawn)
			}
		})
	}
}

func TestDrawKeypoints_HugeCircle(t *testing.T) {
	img := createInMemoryImage(16, 16, color.RGBA{0, 0, 0, 255})
	kps := []keypoints.Keypoint{{X: 8, Y: 8, Size: 1e15}, {X: math.Inf(-1), Y: 3, Size: 4}}

	out, err := DrawKeypoints(img, kps, DrawOptions{Color: "#00ff00", Rich: true, ShowIndex: true})
	if err != nil {
		t.Fatalf("DrawKeypoints failed: %v", err)
	}
	// The oversized circle is skipped, the center cross is not.
	if c := out.NRGBAAt(8, 8); c.G != 255 {
		t.Errorf("center: got %v, want green", c)
	}
}

func TestClipSegment(t *testing.T) {
	r := image.Rect(0, 0, 10, 10)

	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		want           [4]float64
		ok             bool
	}{
		{"inside", 1, 1, 8, 8, [4]float64{1, 1, 8, 8}, true},
		{"exits right", 5, 5, 1e9, 5, [4]float64{5, 5, 9, 5}, true},
		{"crosses", -10, 5, 20, 5, [4]float64{0, 5, 9, 5}, true},
		{"vertical outside", 12, 0, 12, 9, [4]float64{}, false},
		{"misses corner", -5, 3, 3, -5, [4]float64{}, false},
		{"NaN", math.NaN(), 0, 5, 5, [4]float64{}, false},
		{"infinite", 0, 0, math.Inf(1), 0, [4]float64{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ax, ay, bx, by, ok := clipSegment(r, tt.x0, tt.y0, tt.x1, tt.y1)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			got := [4]float64{ax, ay, bx, by}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestPalette_Distinct(t *testing.T) {
	p, err := newPalette("")
	if err != nil {
		t.Fatalf("newPalette failed: %v", err)
	}
	seen := make(map[color.NRGBA]bool)
	for i := 0; i < 8; i++ {
		c := color.NRGBAModel.Convert(p.at(i)).(color.NRGBA)
		if seen[c] {
			t.Errorf("palette color %d repeats: %v", i, c)
		}
		seen[c] = true
	}
}
