package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCropRegion(t *testing.T) {
	img := createInMemoryImage(100, 80, color.RGBA{255, 0, 0, 255})

	cropped, err := CropRegion(img, &Region{X1: 10, Y1: 20, X2: 60, Y2: 50})
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}

	b := cropped.Bounds()
	if b.Min != (image.Point{}) {
		t.Errorf("origin: got %v, want (0,0)", b.Min)
	}
	if b.Dx() != 50 || b.Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 50x30", b.Dx(), b.Dy())
	}
}

func TestCropRegion_Nil(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})

	cropped, err := CropRegion(img, nil)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	if cropped != img {
		t.Error("nil region should return the input image")
	}
}

func TestCropRegion_Invalid(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name   string
		region Region
	}{
		{"x1 negative", Region{-1, 0, 50, 50}},
		{"y1 negative", Region{0, -1, 50, 50}},
		{"x2 too large", Region{0, 0, 101, 50}},
		{"y2 too large", Region{0, 0, 50, 101}},
		{"x1 equals x2", Region{50, 0, 50, 50}},
		{"y1 greater than y2", Region{0, 60, 50, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropRegion(img, &tt.region); err == nil {
				t.Error("CropRegion should fail")
			}
		})
	}
}

func TestCropGray_Content(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	src.SetGray(12, 7, color.Gray{Y: 99})

	region := Region{X1: 10, Y1: 5, X2: 20, Y2: 15}
	gray, err := CropGray(src, &region)
	if err != nil {
		t.Fatalf("CropGray failed: %v", err)
	}
	if gray.GrayAt(2, 2).Y != 99 {
		t.Errorf("cropped pixel: got %d, want 99", gray.GrayAt(2, 2).Y)
	}

	dx, dy := region.Offset()
	if dx != 10 || dy != 5 {
		t.Errorf("Offset: got (%v,%v), want (10,5)", dx, dy)
	}
}
