package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is a rectangular region of interest. (X1,Y1) is inclusive, (X2,Y2)
// is exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Validate checks the region against image bounds.
func (r Region) Validate(bounds image.Rectangle) error {
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	return nil
}

// Offset returns the translation that maps crop-relative coordinates back
// to the source image.
func (r Region) Offset() (dx, dy float64) {
	return float64(r.X1), float64(r.Y1)
}

// CropRegion extracts a region of interest from an image.
//
// A nil region returns the image unchanged. The crop is rebased to (0,0).
func CropRegion(img image.Image, region *Region) (image.Image, error) {
	if region == nil {
		return img, nil
	}
	if err := region.Validate(img.Bounds()); err != nil {
		return nil, err
	}
	return imaging.Crop(img, image.Rect(region.X1, region.Y1, region.X2, region.Y2)), nil
}

// CropGray is CropRegion for grayscale input; the result is grayscale too.
func CropGray(gray *image.Gray, region *Region) (*image.Gray, error) {
	if region == nil {
		return gray, nil
	}
	if err := region.Validate(gray.Bounds()); err != nil {
		return nil, err
	}
	sub, ok := gray.SubImage(image.Rect(region.X1, region.Y1, region.X2, region.Y2)).(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected sub-image type")
	}
	return ToGray(sub), nil
}
