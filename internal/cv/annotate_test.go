package cv

import (
	"image"
	"testing"
)

func TestAnnotatorShowScalesFrame(t *testing.T) {
	var shown []image.Image
	a := NewAnnotator(0.5, func(img image.Image) { shown = append(shown, img) })

	a.DrawRect(image.Rect(10, 10, 30, 30), ColorMatch)
	a.DrawText("0.93", image.Pt(10, 8), ColorStats)
	a.Show(image.NewRGBA(image.Rect(0, 0, 100, 60)))

	if len(shown) != 1 {
		t.Fatalf("Expected one displayed frame, got %d", len(shown))
	}
	if b := shown[0].Bounds(); b.Dx() != 50 || b.Dy() != 30 {
		t.Errorf("Expected 50x30 frame, got %v", b)
	}
}

func TestAnnotateLeavesSourceUntouched(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 40, 40))
	out := annotate(frame, []rectOp{{rect: image.Rect(5, 5, 20, 20), color: ColorWarning}}, nil)

	if out.RGBAAt(5, 5) != ColorWarning {
		t.Errorf("Expected rect outline at (5,5), got %v", out.RGBAAt(5, 5))
	}
	if out.RGBAAt(10, 10) == ColorWarning {
		t.Error("Expected rect interior to stay unpainted")
	}
	if frame.RGBAAt(5, 5) == ColorWarning {
		t.Error("Expected source frame to be unchanged")
	}
}

func TestAnnotatorClearsPrimitives(t *testing.T) {
	a := NewAnnotator(1, nil)
	a.DrawRect(image.Rect(0, 0, 5, 5), ColorMatch)
	a.Show(nil)

	if len(a.rects) != 0 || len(a.texts) != 0 {
		t.Error("Expected primitives to be cleared after Show")
	}
}
