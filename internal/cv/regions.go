package cv

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// ParseRect parses "x,y,w,h" into a rectangle. An empty string yields the
// empty rectangle.
func ParseRect(s string) (image.Rectangle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return image.Rectangle{}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rect %q: want x,y,w,h", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rect %q: %w", s, err)
		}
		v[i] = n
	}

	if v[0] < 0 || v[1] < 0 || v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("rect %q: negative origin or empty size", s)
	}

	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// FormatRect is the inverse of ParseRect
func FormatRect(r image.Rectangle) string {
	if r.Empty() {
		return ""
	}
	return fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// ToScreen maps a point in search-frame coordinates back to absolute screen
// coordinates: undo the downscale, then add offset, the absolute position of
// the search frame's top-left pixel (region origin plus applied crop).
func ToScreen(p image.Point, downscale float64, offset image.Point) image.Point {
	if downscale <= 0 {
		downscale = 1
	}
	return image.Point{
		X: int(float64(p.X)/downscale) + offset.X,
		Y: int(float64(p.Y)/downscale) + offset.Y,
	}
}

// ScaleRect maps a search-frame rectangle back to capture-frame pixels, where
// offset is the applied crop origin
func ScaleRect(r image.Rectangle, downscale float64, offset image.Point) image.Rectangle {
	if downscale <= 0 {
		downscale = 1
	}
	return image.Rect(
		int(float64(r.Min.X)/downscale), int(float64(r.Min.Y)/downscale),
		int(float64(r.Max.X)/downscale), int(float64(r.Max.Y)/downscale),
	).Add(offset)
}
