package templates

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
	"time"

	"jordanella.com/sun-clicker/internal/cv"
)

// CachedImage is a decoded template after grayscale conversion and scaling
type CachedImage struct {
	Path           string
	Gray           *image.Gray
	OriginalWidth  int
	OriginalHeight int
	modTime        time.Time
	size           int64
}

type cacheKey struct {
	path      string
	downscale float64
}

// ImageCache keeps preprocessed template images so an engine restart does
// not decode and resample every file again. Entries are invalidated when
// the file's size or modification time changes.
type ImageCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*CachedImage
	stats   CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits     int64 // Served from memory
	Misses   int64 // Had to decode
	Failures int64 // Decode failures
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		entries: make(map[cacheKey]*CachedImage),
	}
}

// Get returns the preprocessed image for path at the given downscale
func (ic *ImageCache) Get(path string, downscale float64) (*CachedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		ic.recordFailure()
		return nil, &DecodeError{Path: path, Err: err}
	}

	key := cacheKey{path: path, downscale: downscale}

	ic.mu.Lock()
	if cached, ok := ic.entries[key]; ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		ic.stats.Hits++
		ic.mu.Unlock()
		return cached, nil
	}
	ic.mu.Unlock()

	cached, err := decodeTemplate(path, downscale)
	if err != nil {
		ic.recordFailure()
		return nil, err
	}
	cached.modTime = info.ModTime()
	cached.size = info.Size()

	ic.mu.Lock()
	ic.entries[key] = cached
	ic.stats.Misses++
	ic.mu.Unlock()

	return cached, nil
}

func (ic *ImageCache) recordFailure() {
	ic.mu.Lock()
	ic.stats.Failures++
	ic.mu.Unlock()
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.stats
}

// Len returns the number of cached images
func (ic *ImageCache) Len() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return len(ic.entries)
}

// Clear drops every cached image
func (ic *ImageCache) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.entries = make(map[cacheKey]*CachedImage)
}

// decodeTemplate reads a color image and converts it to the matching scale
func decodeTemplate(path string, downscale float64) (*CachedImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("empty image")}
	}

	return &CachedImage{
		Path:           path,
		Gray:           cv.Preprocess(img, downscale),
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
	}, nil
}
