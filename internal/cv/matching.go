package cv

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
)

// Pattern is a preprocessed grayscale template ready for matching
type Pattern struct {
	Name  string
	Image *image.Gray
}

// Match is a candidate location for one pattern in one frame
type Match struct {
	Template   string
	Confidence float64     // TM_CCOEFF_NORMED score, -1..1
	TopLeft    image.Point // In search-frame coordinates
	Width      int
	Height     int
}

// Center returns the match center in search-frame coordinates
func (m Match) Center() image.Point {
	return image.Point{X: m.TopLeft.X + m.Width/2, Y: m.TopLeft.Y + m.Height/2}
}

// Rect returns the matched area in search-frame coordinates
func (m Match) Rect() image.Rectangle {
	return image.Rect(m.TopLeft.X, m.TopLeft.Y, m.TopLeft.X+m.Width, m.TopLeft.Y+m.Height)
}

// Error types
var (
	ErrTemplateTooLarge = errors.New("template larger than search image")
	ErrInvalidImage     = errors.New("invalid image provided")
)

// MatchError reports a failure while matching a single template
type MatchError struct {
	Template string
	Err      error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("match %s: %v", e.Template, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// integral holds summed-area tables of a frame for O(1) window sums
type integral struct {
	width, height int
	sum           []float64
	sumSq         []float64
}

func newIntegral(img *image.Gray) *integral {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w + 1

	ii := &integral{
		width:  w,
		height: h,
		sum:    make([]float64, stride*(h+1)),
		sumSq:  make([]float64, stride*(h+1)),
	}

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		var rowSum, rowSq float64
		for x := 0; x < w; x++ {
			v := float64(row[x])
			rowSum += v
			rowSq += v * v
			idx := (y+1)*stride + x + 1
			ii.sum[idx] = ii.sum[idx-stride] + rowSum
			ii.sumSq[idx] = ii.sumSq[idx-stride] + rowSq
		}
	}

	return ii
}

// window returns sum and sum of squares of the w x h window at (x, y)
func (ii *integral) window(x, y, w, h int) (float64, float64) {
	stride := ii.width + 1
	a := y*stride + x
	b := y*stride + x + w
	c := (y+h)*stride + x
	d := (y+h)*stride + x + w
	return ii.sum[d] - ii.sum[b] - ii.sum[c] + ii.sum[a],
		ii.sumSq[d] - ii.sumSq[b] - ii.sumSq[c] + ii.sumSq[a]
}

// MatchTemplate returns the best normalized correlation coefficient of needle
// within haystack and where it occurs. Locations are relative to the
// haystack bounds origin.
func MatchTemplate(haystack, needle *image.Gray) (float64, image.Point, error) {
	if haystack == nil || needle == nil {
		return 0, image.Point{}, ErrInvalidImage
	}
	return matchWithIntegral(haystack, newIntegral(haystack), needle)
}

func matchWithIntegral(haystack *image.Gray, ii *integral, needle *image.Gray) (float64, image.Point, error) {
	hb := haystack.Bounds()
	nb := needle.Bounds()
	tw, th := nb.Dx(), nb.Dy()

	if tw == 0 || th == 0 || hb.Empty() {
		return 0, image.Point{}, ErrInvalidImage
	}
	if tw > hb.Dx() || th > hb.Dy() {
		return 0, image.Point{}, ErrTemplateTooLarge
	}
	if len(haystack.Pix) < (hb.Dy()-1)*haystack.Stride+hb.Dx() ||
		len(needle.Pix) < (th-1)*needle.Stride+tw {
		return 0, image.Point{}, ErrInvalidImage
	}

	// Zero-mean template; the window mean then drops out of the numerator
	n := float64(tw * th)
	kernel := make([]float64, tw*th)
	var mean float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			mean += float64(needle.Pix[y*needle.Stride+x])
		}
	}
	mean /= n

	var sumTT float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			v := float64(needle.Pix[y*needle.Stride+x]) - mean
			kernel[y*tw+x] = v
			sumTT += v * v
		}
	}

	best := math.Inf(-1)
	bestLoc := image.Point{}

	maxX := hb.Dx() - tw
	maxY := hb.Dy() - th

	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			score := 0.0

			if sumTT > 0 {
				s, sq := ii.window(x, y, tw, th)
				// n*sq - s*s stays integral, so a flat window is exactly zero
				spread := n*sq - s*s
				if spread > 0 {
					varW := spread / n
					var cross float64
					for ky := 0; ky < th; ky++ {
						row := haystack.Pix[(y+ky)*haystack.Stride+x : (y+ky)*haystack.Stride+x+tw]
						k := kernel[ky*tw : ky*tw+tw]
						for kx, v := range row {
							cross += k[kx] * float64(v)
						}
					}
					score = cross / math.Sqrt(sumTT*varW)
				}
			}

			if score > best {
				best = score
				bestLoc = image.Point{X: x, Y: y}
			}
		}
	}

	return clampScore(best), bestLoc, nil
}

func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// rankMatches sorts by confidence descending and keeps at most limit entries
func rankMatches(matches []Match, limit int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
