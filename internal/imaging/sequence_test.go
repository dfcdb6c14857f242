package imaging

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSequence writes frames first..last as dir/img%04d.png.
func writeSequence(t *testing.T, first, last int) string {
	t.Helper()
	dir := t.TempDir()
	spec := SequenceSpec{Dir: dir, Prefix: "img", Digits: 4, Ext: ".png"}
	for n := first; n <= last; n++ {
		f, err := os.Create(spec.FrameName(n))
		if err != nil {
			t.Fatalf("failed to create frame: %v", err)
		}
		if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 64, 32))); err != nil {
			f.Close()
			t.Fatalf("failed to encode frame: %v", err)
		}
		f.Close()
	}
	return dir
}

func TestSequenceSpec_FrameName(t *testing.T) {
	spec := SequenceSpec{Dir: "/data", Prefix: "img", Digits: 4, Ext: ".jpg"}

	if got, want := spec.FrameName(5), filepath.Join("/data", "img0005.jpg"); got != want {
		t.Errorf("FrameName(5): got %s, want %s", got, want)
	}
	if got, want := spec.FrameName(12345), filepath.Join("/data", "img12345.jpg"); got != want {
		t.Errorf("FrameName(12345): got %s, want %s", got, want)
	}
}

func TestLoadSequence(t *testing.T) {
	dir := writeSequence(t, 5, 9)
	cache := NewImageCache()

	seq, err := LoadSequence(cache, SequenceSpec{
		Dir: dir, Prefix: "img", First: 5, Last: 9, Digits: 4, Ext: ".png",
		Skip:          []int{6, 7},
		ThumbnailSize: 16,
	})
	if err != nil {
		t.Fatalf("LoadSequence failed: %v", err)
	}

	if seq.Loaded != 5 {
		t.Errorf("Loaded: got %d, want 5", seq.Loaded)
	}
	if seq.Displayed != 3 {
		t.Errorf("Displayed: got %d, want 3", seq.Displayed)
	}

	for _, f := range seq.Frames {
		skip := f.Number == 6 || f.Number == 7
		if f.Skipped != skip {
			t.Errorf("frame %d Skipped: got %v, want %v", f.Number, f.Skipped, skip)
		}
		if skip && f.Thumbnail != "" {
			t.Errorf("frame %d: skipped frame has a thumbnail", f.Number)
		}
		if !skip && f.Thumbnail == "" {
			t.Errorf("frame %d: displayed frame has no thumbnail", f.Number)
		}
		if f.Width != 64 || f.Height != 32 {
			t.Errorf("frame %d dimensions: got %dx%d, want 64x32", f.Number, f.Width, f.Height)
		}
	}

	if !strings.HasSuffix(seq.Frames[0].Path, "img0005.png") {
		t.Errorf("first frame path: got %s", seq.Frames[0].Path)
	}
}

func TestLoadSequence_MissingFrame(t *testing.T) {
	dir := writeSequence(t, 1, 3)

	_, err := LoadSequence(NewImageCache(), SequenceSpec{
		Dir: dir, Prefix: "img", First: 1, Last: 4, Digits: 4, Ext: ".png",
	})
	if err == nil {
		t.Fatal("LoadSequence should fail on a missing frame")
	}
	if !strings.Contains(err.Error(), "frame 4") {
		t.Errorf("error should name the frame: %v", err)
	}
}

func TestLoadSequence_InvalidRange(t *testing.T) {
	tests := []struct {
		name string
		spec SequenceSpec
	}{
		{"last before first", SequenceSpec{First: 5, Last: 4}},
		{"negative digits", SequenceSpec{First: 1, Last: 1, Digits: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSequence(NewImageCache(), tt.spec); err == nil {
				t.Error("LoadSequence should fail")
			}
		})
	}
}
