package cv

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Renderer receives annotation primitives for a frame and displays it.
// Primitives apply to the next Show call.
type Renderer interface {
	DrawRect(r image.Rectangle, c color.Color)
	DrawText(text string, at image.Point, c color.Color)
	Show(frame *image.RGBA)
}

// Display consumes a finished, annotated frame
type Display func(img image.Image)

// Overlay colors
var (
	ColorMatch   = color.RGBA{0, 255, 0, 255}
	ColorAlt     = color.RGBA{255, 0, 255, 255}
	ColorStats   = color.RGBA{0, 255, 255, 255}
	ColorWarning = color.RGBA{255, 0, 0, 255}
)

const rectThickness = 2

type rectOp struct {
	rect  image.Rectangle
	color color.Color
}

type textOp struct {
	text  string
	at    image.Point
	color color.Color
}

// Annotator paints queued primitives on a copy of the frame, shrinks it to
// the display scale and hands it to a Display.
type Annotator struct {
	mu      sync.Mutex
	rects   []rectOp
	texts   []textOp
	scale   float64
	display Display
}

// NewAnnotator creates a renderer that shows frames at scale (e.g. 0.5)
func NewAnnotator(scale float64, display Display) *Annotator {
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	return &Annotator{scale: scale, display: display}
}

func (a *Annotator) DrawRect(r image.Rectangle, c color.Color) {
	a.mu.Lock()
	a.rects = append(a.rects, rectOp{rect: r, color: c})
	a.mu.Unlock()
}

func (a *Annotator) DrawText(text string, at image.Point, c color.Color) {
	a.mu.Lock()
	a.texts = append(a.texts, textOp{text: text, at: at, color: c})
	a.mu.Unlock()
}

// Show renders the pending primitives and clears them
func (a *Annotator) Show(frame *image.RGBA) {
	a.mu.Lock()
	rects, texts := a.rects, a.texts
	a.rects, a.texts = nil, nil
	a.mu.Unlock()

	if frame == nil || a.display == nil {
		return
	}

	canvas := annotate(frame, rects, texts)

	var out image.Image = canvas
	if a.scale != 1 {
		b := canvas.Bounds()
		out = resize.Resize(uint(ScaledLength(b.Dx(), a.scale)), uint(ScaledLength(b.Dy(), a.scale)), canvas, resize.Bilinear)
	}
	a.display(out)
}

// annotate returns a copy of frame with the primitives painted on it
func annotate(frame *image.RGBA, rects []rectOp, texts []textOp) *image.RGBA {
	canvas := image.NewRGBA(frame.Bounds())
	draw.Draw(canvas, canvas.Bounds(), frame, frame.Bounds().Min, draw.Src)

	for _, r := range rects {
		strokeRect(canvas, r.rect.Add(frame.Bounds().Min), r.color, rectThickness)
	}

	for _, t := range texts {
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(t.color),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(frame.Bounds().Min.X+t.at.X, frame.Bounds().Min.Y+t.at.Y),
		}
		d.DrawString(t.text)
	}

	return canvas
}

func strokeRect(img draw.Image, r image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	for i := 0; i < thickness; i++ {
		inner := r.Inset(i)
		if inner.Empty() {
			return
		}
		edges := []image.Rectangle{
			image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1),
			image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y),
			image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y),
			image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(img, e.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
		}
	}
}
