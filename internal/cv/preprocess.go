package cv

import (
	"image"
	"math"

	"github.com/disintegration/gift"
)

// ScaledLength returns floor(n*factor), never less than 1 for positive n
func ScaledLength(n int, factor float64) int {
	if n <= 0 {
		return 0
	}
	l := int(math.Floor(float64(n) * factor))
	if l < 1 {
		return 1
	}
	return l
}

// Grayscale converts any image to single-channel luminance
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	filter := gift.New(gift.Grayscale())
	dst := image.NewGray(filter.Bounds(img.Bounds()))
	filter.Draw(dst, img)
	return dst
}

// Downscale shrinks a grayscale image by factor using box (area) resampling.
// A factor of 1.0 returns the input unchanged.
func Downscale(img *image.Gray, factor float64) *image.Gray {
	if factor == 1.0 || factor <= 0 {
		return img
	}

	b := img.Bounds()
	w := ScaledLength(b.Dx(), factor)
	h := ScaledLength(b.Dy(), factor)

	filter := gift.New(gift.Resize(w, h, gift.BoxResampling))
	dst := image.NewGray(filter.Bounds(b))
	filter.Draw(dst, img)
	return dst
}

// Preprocess converts a color image to grayscale at the given scale
func Preprocess(img image.Image, factor float64) *image.Gray {
	return Downscale(Grayscale(img), factor)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// CropRect returns the rectangle of a frame with the given bounds that roi
// selects, relative to the frame origin. An empty roi, or one that does not
// overlap the frame, selects the whole frame. A partly outside roi is clipped.
func CropRect(bounds, roi image.Rectangle) image.Rectangle {
	whole := image.Rect(0, 0, bounds.Dx(), bounds.Dy())
	if roi.Empty() {
		return whole
	}
	if r := roi.Intersect(whole); !r.Empty() {
		return r
	}
	return whole
}

// Crop returns the part of img that CropRect selects
func Crop(img image.Image, roi image.Rectangle) image.Image {
	b := img.Bounds()
	r := CropRect(b, roi).Add(b.Min)
	if r == b {
		return img
	}

	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}

	filter := gift.New(gift.Crop(r))
	dst := image.NewRGBA(filter.Bounds(b))
	filter.Draw(dst, img)
	return dst
}
