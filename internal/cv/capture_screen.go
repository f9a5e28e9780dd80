package cv

import (
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenSource captures physical displays. Region 0 spans every display,
// regions 1..N map to displays 0..N-1.
type ScreenSource struct{}

// NewScreenSource creates a display-backed frame source
func NewScreenSource() *ScreenSource {
	return &ScreenSource{}
}

// Regions enumerates the active displays
func (s *ScreenSource) Regions() ([]Region, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, &CaptureError{Region: 0, Err: ErrBackendUnavailable}
	}

	regions := make([]Region, 0, n+1)
	var all image.Rectangle
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		all = all.Union(b)
		regions = append(regions, Region{Index: i + 1, Bounds: b})
	}

	return append([]Region{{Index: 0, Bounds: all}}, regions...), nil
}

// Capture grabs the pixels of one region
func (s *ScreenSource) Capture(index int) (*image.RGBA, error) {
	regions, err := s.Regions()
	if err != nil {
		return nil, err
	}

	region, ok := RegionAt(regions, index)
	if !ok {
		return nil, &CaptureError{Region: index, Err: ErrInvalidRegion}
	}

	img, err := screenshot.CaptureRect(region.Bounds)
	if err != nil {
		return nil, &CaptureError{Region: index, Err: err}
	}
	return img, nil
}
