package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
)

// ImageCache caches decoded images, and their grayscale conversions, by path.
//
// Detectors always run on grayscale input, and a typical session runs several
// detectors over the same files. Caching the conversion next to the decoded
// image avoids repeating both the disk read and the luminance pass.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until removed via Evict() or Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	gray, err := cache.LoadGray("/path/to/img1.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	grays  map[string]*image.Gray
	format map[string]string
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		grays:  make(map[string]*image.Gray),
		format: make(map[string]string),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG and GIF. The image is cached under the exact
// path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.format[path] = format
	c.mu.Unlock()

	return img, nil
}

// LoadGray returns the grayscale version of the image at path, converting and
// caching it on first use.
func (c *ImageCache) LoadGray(path string) (*image.Gray, error) {
	c.mu.RLock()
	if g, ok := c.grays[path]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	gray := ToGray(img)

	c.mu.Lock()
	c.grays[path] = gray
	c.mu.Unlock()

	return gray, nil
}

// Evict removes one image and its grayscale conversion from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.grays, path)
	delete(c.format, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels (number of surface columns).
	Width int `json:"width"`

	// Height is the image height in pixels (number of surface rows).
	Height int `json:"height"`

	// Format is the decoder that accepted the file: "png", "jpeg" or "gif".
	Format string `json:"format"`

	// Grayscale reports whether the image is already single-channel.
	Grayscale bool `json:"grayscale"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and describes it.
//
// Unlike a purely extension-based check, the format is the one reported by
// the decoder, so a PNG saved as ".jpg" is reported as "png".
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cache.mu.RLock()
	format := cache.format[path]
	cache.mu.RUnlock()
	if format == "" {
		format = "unknown"
	}

	grayscale := false
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		grayscale = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Grayscale:     grayscale,
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional metadata.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
