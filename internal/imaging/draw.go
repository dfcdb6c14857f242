package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// DrawOptions controls keypoint and match rendering.
type DrawOptions struct {
	// Color is a hex color such as "#00ff00". Empty assigns each keypoint
	// (or match) its own hue.
	Color string `json:"color,omitempty"`

	// Rich draws a circle of the keypoint's size around its center.
	// Otherwise a small cross marks the center only.
	Rich bool `json:"rich,omitempty"`

	// ShowIndex writes the keypoint index next to its marker. DrawMatches
	// writes the match index next to the first image's keypoint.
	ShowIndex bool `json:"show_index,omitempty"`

	// Grid draws a coordinate grid with this spacing in pixels under the
	// keypoints of DrawKeypoints. Zero disables it.
	Grid int `json:"grid,omitempty"`
}

// Correspondence pairs keypoint A of the first image with keypoint B of the
// second.
type Correspondence struct {
	A int `json:"a"`
	B int `json:"b"`
}

type palette struct {
	fixed color.Color
}

func newPalette(hex string) (*palette, error) {
	if hex == "" {
		return &palette{}, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return &palette{fixed: c}, nil
}

// at returns the color for item i. Hues step by the golden angle so that
// neighbouring indices stay distinguishable.
func (p *palette) at(i int) color.Color {
	if p.fixed != nil {
		return p.fixed
	}
	hue := math.Mod(float64(i)*137.508, 360)
	return colorful.Hsv(hue, 0.85, 1.0).Clamped()
}

// DrawKeypoints renders keypoints on top of a copy of img.
func DrawKeypoints(img image.Image, kps []keypoints.Keypoint, opts DrawOptions) (*image.NRGBA, error) {
	pal, err := newPalette(opts.Color)
	if err != nil {
		return nil, err
	}

	canvas := imaging.Clone(img)
	if opts.Grid > 0 {
		drawGrid(canvas, opts.Grid)
	}
	for i, kp := range kps {
		if !drawable(kp) {
			continue
		}
		markKeypoint(canvas, kp, 0, pal.at(i), opts)
		if opts.ShowIndex {
			drawLabel(canvas, int(kp.X)+3, int(kp.Y)+3, strconv.Itoa(i), color.White, color.Black)
		}
	}
	return canvas, nil
}

// DrawMatches places imgA and imgB side by side and joins each
// correspondence with a line.
//
// # Errors
//
// Returns an error if a correspondence indexes past either keypoint list.
// Correspondences touching a NaN or infinite keypoint are not drawn.
func DrawMatches(imgA image.Image, kpsA []keypoints.Keypoint, imgB image.Image, kpsB []keypoints.Keypoint, matches []Correspondence, opts DrawOptions) (*image.NRGBA, error) {
	pal, err := newPalette(opts.Color)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.A < 0 || m.A >= len(kpsA) || m.B < 0 || m.B >= len(kpsB) {
			return nil, fmt.Errorf("match (%d,%d) out of range: %d and %d keypoints", m.A, m.B, len(kpsA), len(kpsB))
		}
	}

	ba, bb := imgA.Bounds(), imgB.Bounds()
	width := ba.Dx() + bb.Dx()
	height := ba.Dy()
	if bb.Dy() > height {
		height = bb.Dy()
	}
	canvas := imaging.New(width, height, color.Black)
	canvas = imaging.Paste(canvas, imgA, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, imgB, image.Pt(ba.Dx(), 0))

	shift := float64(ba.Dx())
	for i, m := range matches {
		c := pal.at(i)
		a, b := kpsA[m.A], kpsB[m.B]
		if !drawable(a) || !drawable(b) {
			continue
		}
		markKeypoint(canvas, a, 0, c, opts)
		markKeypoint(canvas, b, shift, c, opts)
		drawLine(canvas, a.X, a.Y, b.X+shift, b.Y, c)
		if opts.ShowIndex {
			drawLabel(canvas, int(a.X)+3, int(a.Y)+3, strconv.Itoa(i), color.White, color.Black)
		}
	}
	return canvas, nil
}

// drawGrid draws grid lines every spacing pixels, labelled with their x
// coordinate along the top edge and their y coordinate along the left edge.
func drawGrid(img *image.NRGBA, spacing int) {
	gridColor := color.NRGBA{255, 0, 0, 128}
	labelColor := color.White
	bgColor := color.NRGBA{0, 0, 0, 180}
	b := img.Bounds()

	w, h := float64(b.Dx()-1), float64(b.Dy()-1)
	for x := spacing; x < b.Dx(); x += spacing {
		drawLine(img, float64(x), 0, float64(x), h, gridColor)
	}
	for y := spacing; y < b.Dy(); y += spacing {
		drawLine(img, 0, float64(y), w, float64(y), gridColor)
	}
	for x := spacing; x < b.Dx(); x += spacing {
		drawLabel(img, x+2, 2, strconv.Itoa(x), labelColor, bgColor)
	}
	for y := spacing; y < b.Dy(); y += spacing {
		drawLabel(img, 2, y+2, strconv.Itoa(y), labelColor, bgColor)
	}
}

func drawable(kp keypoints.Keypoint) bool {
	for _, v := range [3]float64{kp.X, kp.Y, kp.Size} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func markKeypoint(img *image.NRGBA, kp keypoints.Keypoint, dx float64, c color.Color, opts DrawOptions) {
	x, y := math.Round(kp.X+dx), math.Round(kp.Y)
	if opts.Rich && kp.Size > 0 {
		drawCircle(img, x, y, math.Round(kp.Size/2), c)
	}
	drawLine(img, x-2, y, x+2, y, c)
	drawLine(img, x, y-2, x, y+2, c)
}

// clipSegment clips the segment to the pixel centers of r (Liang-Barsky).
// ok is false when nothing of it lies inside.
func clipSegment(r image.Rectangle, x0, y0, x1, y1 float64) (ax, ay, bx, by float64, ok bool) {
	for _, v := range [4]float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, pq := range [4][2]float64{
		{-dx, x0 - float64(r.Min.X)},
		{dx, float64(r.Max.X-1) - x0},
		{-dy, y0 - float64(r.Min.Y)},
		{dy, float64(r.Max.Y-1) - y0},
	} {
		p, q := pq[0], pq[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// drawLine draws a one pixel Bresenham line. The segment is clipped to the
// image first, so the walk never leaves it.
func drawLine(img *image.NRGBA, fx0, fy0, fx1, fy1 float64, c color.Color) {
	ax, ay, bx, by, ok := clipSegment(img.Bounds(), fx0, fy0, fx1, fy1)
	if !ok {
		return
	}
	x0, y0 := int(math.Round(ax)), int(math.Round(ay))
	x1, y1 := int(math.Round(bx)), int(math.Round(by))

	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		setClipped(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// drawCircle draws a midpoint circle outline, clipped to the image. Circles
// whose bounding box misses the image are skipped, as are radii beyond twice
// the image's width plus height.
func drawCircle(img *image.NRGBA, fcx, fcy, fr float64, c color.Color) {
	b := img.Bounds()
	limit := float64(2 * (b.Dx() + b.Dy()))
	if fr > limit ||
		fcx+fr < float64(b.Min.X) || fcx-fr >= float64(b.Max.X) ||
		fcy+fr < float64(b.Min.Y) || fcy-fr >= float64(b.Max.Y) {
		return
	}
	cx, cy, r := int(fcx), int(fcy), int(fr)
	if r <= 0 {
		setClipped(img, cx, cy, c)
		return
	}
	x, y := r, 0
	d := 1 - r
	for x >= y {
		for _, p := range [8][2]int{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			setClipped(img, cx+p[0], cy+p[1], c)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func setClipped(img *image.NRGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// drawLabel draws digits in a 3x5 pixel font on a filled background.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	const charWidth, labelHeight = 4, 6
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
