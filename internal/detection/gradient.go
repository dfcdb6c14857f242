package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/feature-tools-mcp/internal/imaging"
	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// ErrUnsupportedAperture is returned for Sobel apertures other than 3 and 5.
var ErrUnsupportedAperture = errors.New("unsupported aperture size")

// Separable Sobel kernels.
var (
	sobelSmooth = map[int][]float64{
		3: {1, 2, 1},
		5: {1, 4, 6, 4, 1},
	}
	sobelDeriv = map[int][]float64{
		3: {-1, 0, 1},
		5: {-1, -2, 0, 2, 1},
	}
)

// plane is a single-channel float image, row-major.
type plane struct {
	w, h int
	pix  []float64
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]float64, w*h)}
}

func planeFromGray(gray *image.Gray) *plane {
	b := gray.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	for y := 0; y < p.h; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < p.w; x++ {
			p.pix[y*p.w+x] = float64(row[x])
		}
	}
	return p
}

// rebase returns gray with its origin moved to (0,0), copying only when needed.
func rebase(gray *image.Gray) *image.Gray {
	if gray.Bounds().Min == (image.Point{}) {
		return gray
	}
	return imaging.ToGray(gray)
}

func (p *plane) at(x, y int) float64 {
	return p.pix[y*p.w+x]
}

// reflect101 maps an out-of-range index back into [0, n) by mirroring
// without repeating the edge sample: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// sepFilter correlates p with kx along rows and then ky along columns.
// The kernels are centred; borders are reflect-101.
func sepFilter(p *plane, kx, ky []float64) *plane {
	rx, ry := len(kx)/2, len(ky)/2
	tmp := newPlane(p.w, p.h)
	parallel.Line(p.h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < p.w; x++ {
				var sum float64
				for i, k := range kx {
					sum += k * p.at(reflect101(x+i-rx, p.w), y)
				}
				tmp.pix[y*p.w+x] = sum
			}
		}
	})

	out := newPlane(p.w, p.h)
	parallel.Line(p.h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < p.w; x++ {
				var sum float64
				for j, k := range ky {
					sum += k * tmp.at(x, reflect101(y+j-ry, p.h))
				}
				out.pix[y*p.w+x] = sum
			}
		}
	})
	return out
}

// boxSum is an unnormalised box filter of size n. For even n the window
// extends one pixel further left and up than right and down.
func boxSum(p *plane, n int) *plane {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	if n%2 == 1 {
		return sepFilter(p, ones, ones)
	}
	// Pad an even kernel on the left so the centred filter sees offsets
	// -(n/2) .. n/2-1.
	padded := append([]float64{1}, ones...)
	padded[n] = 0
	return sepFilter(p, padded, padded)
}

// tensor holds the box-summed structure tensor components per pixel.
type tensor struct {
	xx, xy, yy *plane
}

// structureTensor computes the derivative covariance of gray summed over a
// blockSize window, with OpenCV's derivative scaling for 8-bit input.
func structureTensor(gray *image.Gray, blockSize, aperture int) (*tensor, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", keypoints.ErrInvalidInput)
	}
	if blockSize < 1 {
		return nil, fmt.Errorf("%w: block size %d must be positive", keypoints.ErrInvalidInput, blockSize)
	}
	smooth, ok := sobelSmooth[aperture]
	if !ok {
		return nil, fmt.Errorf("%w: %d (want 3 or 5)", ErrUnsupportedAperture, aperture)
	}
	deriv := sobelDeriv[aperture]

	src := planeFromGray(gray)
	dx := sepFilter(src, deriv, smooth)
	dy := sepFilter(src, smooth, deriv)

	scale := 1.0 / (float64(int(1)<<(aperture-1)) * float64(blockSize) * 255.0)

	xx, xy, yy := newPlane(src.w, src.h), newPlane(src.w, src.h), newPlane(src.w, src.h)
	for i := range src.pix {
		gx, gy := dx.pix[i]*scale, dy.pix[i]*scale
		xx.pix[i] = gx * gx
		xy.pix[i] = gx * gy
		yy.pix[i] = gy * gy
	}

	return &tensor{
		xx: boxSum(xx, blockSize),
		xy: boxSum(xy, blockSize),
		yy: boxSum(yy, blockSize),
	}, nil
}
