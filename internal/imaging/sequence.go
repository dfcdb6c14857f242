package imaging

import (
	"fmt"
	"path/filepath"

	"github.com/nfnt/resize"
)

// SequenceSpec describes a numbered run of image files such as
// img0005.jpg ... img0009.jpg.
type SequenceSpec struct {
	// Dir is the directory holding the frames.
	Dir string `json:"dir"`

	// Prefix precedes the frame number, e.g. "img".
	Prefix string `json:"prefix"`

	// First and Last are the inclusive frame number range.
	First int `json:"first"`
	Last  int `json:"last"`

	// Digits is the zero-padded width of the frame number.
	Digits int `json:"digits"`

	// Ext is the file extension including the dot, e.g. ".jpg".
	Ext string `json:"ext"`

	// Skip lists frame numbers that are loaded but not displayed.
	Skip []int `json:"skip,omitempty"`

	// ThumbnailSize bounds the longer edge of the preview generated for
	// each displayed frame. Zero disables previews.
	ThumbnailSize int `json:"thumbnail_size,omitempty"`
}

// FrameName returns the file path of frame n.
func (s SequenceSpec) FrameName(n int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s%0*d%s", s.Prefix, s.Digits, n, s.Ext))
}

func (s SequenceSpec) skipped(n int) bool {
	for _, k := range s.Skip {
		if k == n {
			return true
		}
	}
	return false
}

// SequenceFrame is one loaded frame of a sequence.
type SequenceFrame struct {
	Number    int    `json:"number"`
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Skipped   bool   `json:"skipped"`
	Thumbnail string `json:"thumbnail_base64,omitempty"`
}

// Sequence is the result of LoadSequence.
type Sequence struct {
	Frames    []SequenceFrame `json:"frames"`
	Loaded    int             `json:"loaded"`
	Displayed int             `json:"displayed"`
}

// LoadSequence loads every frame of spec through the cache, in order.
//
// All frames are decoded, including skipped ones, so that a missing file is
// reported even if the frame would not be shown. Skipped frames get no
// thumbnail. Loading stops at the first frame that fails.
//
// # Errors
//
//   - Last < First, or Digits < 0
//   - Any frame that cannot be opened or decoded
func LoadSequence(cache *ImageCache, spec SequenceSpec) (*Sequence, error) {
	if spec.Last < spec.First {
		return nil, fmt.Errorf("invalid frame range %d..%d", spec.First, spec.Last)
	}
	if spec.Digits < 0 {
		return nil, fmt.Errorf("invalid digit count %d", spec.Digits)
	}

	seq := &Sequence{Frames: make([]SequenceFrame, 0, spec.Last-spec.First+1)}
	for n := spec.First; n <= spec.Last; n++ {
		path := spec.FrameName(n)
		img, err := cache.Load(path)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", n, err)
		}

		frame := SequenceFrame{
			Number:  n,
			Path:    path,
			Width:   img.Bounds().Dx(),
			Height:  img.Bounds().Dy(),
			Skipped: spec.skipped(n),
		}
		if !frame.Skipped {
			seq.Displayed++
			if spec.ThumbnailSize > 0 {
				size := uint(spec.ThumbnailSize)
				thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)
				if frame.Thumbnail, err = EncodePNG(thumb); err != nil {
					return nil, fmt.Errorf("frame %d: %w", n, err)
				}
			}
		}
		seq.Frames = append(seq.Frames, frame)
	}
	seq.Loaded = len(seq.Frames)

	return seq, nil
}
