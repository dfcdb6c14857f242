package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Luminance weights of ITU-R BT.601, the same ones OpenCV's BGR2GRAY uses.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// ToGray converts an image to 8-bit grayscale.
//
// Images that are already *image.Gray are copied rather than converted. The
// returned image always has its origin at (0,0), so pixel (x, y) of the
// result is pixel (x+Min.X, y+Min.Y) of the source.
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):])
		}
		return dst
	}

	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	rb := rgba.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = rgba.Pix[rgba.PixOffset(rb.Min.X+x, rb.Min.Y+y)]
		}
	}
	return dst
}
