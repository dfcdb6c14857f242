package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writePNGFile(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

// createTestImage writes a uniformly colored PNG into a temp dir and returns
// its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uniform.png")
	writePNGFile(t, path, createInMemoryImage(width, height, c))
	return path
}

// createTestImageWithPattern writes quadrants of red, green, blue and white.
func createTestImageWithPattern(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x < width/2 && y < height/2:
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			case y < height/2:
				img.Set(x, y, color.RGBA{0, 255, 0, 255})
			case x < width/2:
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			default:
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}
	path := filepath.Join(t.TempDir(), "pattern.png")
	writePNGFile(t, path, img)
	return path
}

func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestImageCache_Load(t *testing.T) {
	dir := t.TempDir()
	notImage := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(notImage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"png frame", createTestImage(t, 64, 48, color.RGBA{90, 90, 90, 255}), false},
		{"missing frame", filepath.Join(dir, "img0005.png"), true},
		{"undecodable frame", notImage, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewImageCache()
			img, err := cache.Load(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("Load should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
				t.Errorf("dimensions: got %dx%d, want 64x48", b.Dx(), b.Dy())
			}

			again, err := cache.Load(tt.path)
			if err != nil || again != img {
				t.Errorf("second Load should return the cached image (err %v)", err)
			}
		})
	}
}

func TestImageCache_LoadGray_CachedUntilEvicted(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 20, 10, color.RGBA{255, 255, 255, 255})

	first, err := cache.LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray failed: %v", err)
	}
	if first.GrayAt(5, 5).Y != 255 {
		t.Errorf("white pixel: got %d, want 255", first.GrayAt(5, 5).Y)
	}

	// The file changes on disk; detectors keep seeing the cached frame.
	writePNGFile(t, path, createInMemoryImage(20, 10, color.RGBA{0, 0, 0, 255}))
	cached, err := cache.LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray failed: %v", err)
	}
	if cached != first {
		t.Error("LoadGray did not return the cached conversion")
	}

	cache.Evict(path)
	reloaded, err := cache.LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray after Evict failed: %v", err)
	}
	if reloaded.GrayAt(5, 5).Y != 0 {
		t.Errorf("after Evict: got %d, want the new black frame", reloaded.GrayAt(5, 5).Y)
	}

	// Evicting an unknown path is a no-op.
	cache.Evict(filepath.Join(t.TempDir(), "never-loaded.png"))
}

func TestImageCache_ConcurrentLoadGray(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 32, 32, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := cache.LoadGray(path)
			if err != nil {
				errs <- err
				return
			}
			if g.Bounds().Dx() != 32 {
				t.Errorf("width: got %d, want 32", g.Bounds().Dx())
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent LoadGray error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	dir := t.TempDir()
	grayPath := filepath.Join(dir, "gray.png")
	writePNGFile(t, grayPath, image.NewGray(image.Rect(0, 0, 8, 4)))
	// A PNG saved under a JPEG name is reported by its content.
	misnamed := filepath.Join(dir, "img0005.jpg")
	writePNGFile(t, misnamed, createInMemoryImage(10, 6, color.RGBA{1, 2, 3, 255}))

	tests := []struct {
		name          string
		path          string
		width, height int
		grayscale     bool
	}{
		{"color frame", createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255}), 200, 150, false},
		{"grayscale frame", grayPath, 8, 4, true},
		{"misnamed frame", misnamed, 10, 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := LoadImageInfo(NewImageCache(), tt.path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Width != tt.width || info.Height != tt.height {
				t.Errorf("dimensions: got %dx%d, want %dx%d", info.Width, info.Height, tt.width, tt.height)
			}
			if info.Format != "png" {
				t.Errorf("Format: got %s, want png", info.Format)
			}
			if info.Grayscale != tt.grayscale {
				t.Errorf("Grayscale: got %v, want %v", info.Grayscale, tt.grayscale)
			}
			if info.FileSizeBytes <= 0 {
				t.Error("FileSizeBytes should be positive")
			}
		})
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 300, 200, color.RGBA{100, 100, 100, 255})

	dims, err := GetDimensions(cache, path)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 300 || dims.Height != 200 {
		t.Errorf("dimensions: got %dx%d, want 300x200", dims.Width, dims.Height)
	}

	if _, err := GetDimensions(cache, filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("GetDimensions should fail for a missing file")
	}
	if _, err := LoadImageInfo(cache, filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("LoadImageInfo should fail for a missing file")
	}
}
