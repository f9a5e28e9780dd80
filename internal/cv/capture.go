package cv

import (
	"errors"
	"fmt"
	"image"
)

// FrameSource yields raw frames for display regions.
// Region 0 is the union of all displays and is never selected for matching;
// selectable regions start at 1.
type FrameSource interface {
	Regions() ([]Region, error)
	Capture(index int) (*image.RGBA, error)
}

// Region is a capturable area in absolute screen coordinates
type Region struct {
	Index  int
	Bounds image.Rectangle
}

// Origin returns the absolute top-left corner of the region
func (r Region) Origin() image.Point {
	return r.Bounds.Min
}

func (r Region) String() string {
	return fmt.Sprintf("region %d %dx%d@(%d,%d)", r.Index, r.Bounds.Dx(), r.Bounds.Dy(), r.Bounds.Min.X, r.Bounds.Min.Y)
}

// FirstSelectableRegion is the lowest region index usable for matching
const FirstSelectableRegion = 1

var (
	ErrInvalidRegion      = errors.New("invalid region index")
	ErrBackendUnavailable = errors.New("capture backend unavailable")
)

// CaptureError reports a failed frame acquisition
type CaptureError struct {
	Region int
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture region %d: %v", e.Region, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// SelectableCount returns how many regions may be used for matching
func SelectableCount(regions []Region) int {
	if len(regions) <= FirstSelectableRegion {
		return 0
	}
	return len(regions) - FirstSelectableRegion
}

// RegionAt looks up a region by index
func RegionAt(regions []Region, index int) (Region, bool) {
	if index < 0 || index >= len(regions) {
		return Region{}, false
	}
	return regions[index], true
}

// NextRegion returns the region after current, wrapping from the last back
// to the first selectable one. With fewer than two selectable regions the
// current index is returned unchanged.
func NextRegion(current, regionCount int) int {
	if regionCount-FirstSelectableRegion < 2 {
		return current
	}
	next := current + 1
	if next >= regionCount || next < FirstSelectableRegion {
		next = FirstSelectableRegion
	}
	return next
}
