package detection

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// FASTType selects the Bresenham circle the segment test runs on.
type FASTType string

const (
	// FAST916 needs 9 contiguous pixels on a 16 pixel circle of radius 3.
	FAST916 FASTType = "9_16"
	// FAST712 needs 7 contiguous pixels on a 12 pixel circle of radius 2.
	FAST712 FASTType = "7_12"
	// FAST58 needs 5 contiguous pixels on an 8 pixel circle of radius 1.
	FAST58 FASTType = "5_8"
)

// fastKeypointSize is the diameter reported for every FAST keypoint.
const fastKeypointSize = 7

type fastPattern struct {
	offsets [][2]int // (dx, dy)
	arc     int
	border  int
}

var fastPatterns = map[FASTType]fastPattern{
	FAST916: {
		offsets: [][2]int{
			{0, 3}, {1, 3}, {2, 2}, {3, 1}, {3, 0}, {3, -1}, {2, -2}, {1, -3},
			{0, -3}, {-1, -3}, {-2, -2}, {-3, -1}, {-3, 0}, {-3, 1}, {-2, 2}, {-1, 3},
		},
		arc:    9,
		border: 3,
	},
	FAST712: {
		offsets: [][2]int{
			{0, 2}, {1, 2}, {2, 1}, {2, 0}, {2, -1}, {1, -2},
			{0, -2}, {-1, -2}, {-2, -1}, {-2, 0}, {-2, 1}, {-1, 2},
		},
		arc:    7,
		border: 2,
	},
	FAST58: {
		offsets: [][2]int{
			{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
		},
		arc:    5,
		border: 1,
	},
}

// FASTParams configures the FAST detector.
type FASTParams struct {
	// Threshold is the intensity difference a circle pixel must exceed.
	// It is clamped to 0..255.
	Threshold int `json:"threshold"`

	// NonmaxSuppression keeps only corners whose score beats all eight
	// neighbours.
	NonmaxSuppression bool `json:"nonmax_suppression"`

	// Type is the circle pattern. Empty means FAST916.
	Type FASTType `json:"type,omitempty"`
}

// DefaultFASTParams returns threshold 50 with non-maximum suppression on the
// 9/16 circle.
func DefaultFASTParams() FASTParams {
	return FASTParams{Threshold: 50, NonmaxSuppression: true, Type: FAST916}
}

// FAST runs the FAST segment test on a grayscale image.
//
// A pixel p is a corner when at least arc contiguous circle pixels are all
// brighter than p+Threshold or all darker than p-Threshold. Its score is the
// largest threshold for which that still holds, minus one, and is reported
// as the keypoint response. Keypoints come back in raster order.
//
// # Errors
//
//   - keypoints.ErrInvalidInput for an empty image or an unknown Type
func FAST(gray *image.Gray, p FASTParams) ([]keypoints.Keypoint, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", keypoints.ErrInvalidInput)
	}
	typ := p.Type
	if typ == "" {
		typ = FAST916
	}
	pat, ok := fastPatterns[typ]
	if !ok {
		return nil, fmt.Errorf("%w: unknown FAST type %q", keypoints.ErrInvalidInput, p.Type)
	}
	threshold := p.Threshold
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 255 {
		threshold = 255
	}

	src := rebase(gray)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	// score is zero for non-corners, which also serves NMS.
	score := make([]int, w*h)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			if y < pat.border || y >= h-pat.border {
				continue
			}
			for x := pat.border; x < w-pat.border; x++ {
				if s := pat.score(src, x, y); s >= threshold {
					// A corner at threshold 0 still needs a non-zero mark.
					score[y*w+x] = s + 1
				}
			}
		}
	})

	kps := make([]keypoints.Keypoint, 0)
	for y := pat.border; y < h-pat.border; y++ {
		for x := pat.border; x < w-pat.border; x++ {
			s := score[y*w+x]
			if s == 0 {
				continue
			}
			if p.NonmaxSuppression && !strictLocalMax(score, w, h, x, y) {
				continue
			}
			kps = append(kps, keypoints.Keypoint{
				X:        float64(x),
				Y:        float64(y),
				Size:     fastKeypointSize,
				Response: float64(s - 1),
			})
		}
	}
	return kps, nil
}

// score returns the FAST score at (x, y): the largest t for which an arc of
// pat.arc circle pixels all differ from the centre by more than t in the
// same direction. It returns -1 if no arc differs at all.
func (pat fastPattern) score(img *image.Gray, x, y int) int {
	n := len(pat.offsets)
	centre := int(img.Pix[y*img.Stride+x])

	var diff [16]int
	for i, o := range pat.offsets {
		diff[i] = int(img.Pix[(y+o[1])*img.Stride+x+o[0]]) - centre
	}

	best := -1
	for start := 0; start < n; start++ {
		brighter, darker := 255, 255
		for k := 0; k < pat.arc; k++ {
			d := diff[(start+k)%n]
			if d < brighter {
				brighter = d
			}
			if -d < darker {
				darker = -d
			}
		}
		// min difference along the arc, minus one for the strict comparison
		if brighter-1 > best {
			best = brighter - 1
		}
		if darker-1 > best {
			best = darker - 1
		}
	}
	return best
}

func strictLocalMax(score []int, w, h, x, y int) bool {
	s := score[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			if score[ny*w+nx] >= s {
				return false
			}
		}
	}
	return true
}
