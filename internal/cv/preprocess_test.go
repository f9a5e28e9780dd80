package cv

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestScaledLength(t *testing.T) {
	tests := []struct {
		n      int
		factor float64
		want   int
	}{
		{10, 0.75, 7},
		{100, 0.5, 50},
		{1, 0.25, 1},
		{0, 0.5, 0},
		{33, 1.0, 33},
	}
	for _, tt := range tests {
		if got := ScaledLength(tt.n, tt.factor); got != tt.want {
			t.Errorf("ScaledLength(%d, %v) = %d, want %d", tt.n, tt.factor, got, tt.want)
		}
	}
}

func TestPreprocess(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{100, 100, 100, 255}), image.Point{}, draw.Src)

	gray := Preprocess(img, 0.75)
	if gray.Bounds().Dx() != 30 || gray.Bounds().Dy() != 15 {
		t.Fatalf("Expected 30x15, got %v", gray.Bounds())
	}

	v := int(gray.GrayAt(gray.Bounds().Min.X+5, gray.Bounds().Min.Y+5).Y)
	if v < 99 || v > 101 {
		t.Errorf("Expected luminance near 100, got %d", v)
	}
}

func TestDownscaleUnitFactorIsIdentity(t *testing.T) {
	img := texture(8, 8, 1)
	if Downscale(img, 1.0) != img {
		t.Error("Expected factor 1.0 to return the input")
	}
}

func TestCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	cropped := Crop(img, image.Rect(10, 10, 40, 30))
	if cropped.Bounds().Dx() != 30 || cropped.Bounds().Dy() != 20 {
		t.Errorf("Expected 30x20 crop, got %v", cropped.Bounds())
	}

	if Crop(img, image.Rectangle{}) != image.Image(img) {
		t.Error("Expected empty ROI to return the frame")
	}
	if Crop(img, image.Rect(200, 200, 300, 300)) != image.Image(img) {
		t.Error("Expected ROI outside the frame to return the frame")
	}

	clipped := Crop(img, image.Rect(80, 80, 150, 150))
	if clipped.Bounds().Dx() != 20 || clipped.Bounds().Dy() != 20 {
		t.Errorf("Expected ROI to be clipped to 20x20, got %v", clipped.Bounds())
	}
}

func TestEnginePrepareAppliesROI(t *testing.T) {
	e := newTestEngine(t, WithROI(image.Rect(0, 0, 20, 10)), WithDownscale(0.5))
	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))

	gray, crop := e.Prepare(frame)
	if gray.Bounds().Dx() != 10 || gray.Bounds().Dy() != 5 {
		t.Errorf("Expected 10x5 search frame, got %v", gray.Bounds())
	}
	if crop != image.Rect(0, 0, 20, 10) {
		t.Errorf("Expected crop (0,0)-(20,10), got %v", crop)
	}
}

func TestEnginePrepareROIOutsideFrame(t *testing.T) {
	e := newTestEngine(t, WithROI(image.Rect(500, 500, 600, 600)))
	patch := texture(10, 10, 1)
	frame := image.NewRGBA(image.Rect(0, 0, 200, 200))
	draw.Draw(frame, frame.Bounds(), scene(200, 200, map[image.Point]*image.Gray{{X: 50, Y: 50}: patch}), image.Point{}, draw.Src)

	gray, crop := e.Prepare(frame)
	if crop != image.Rect(0, 0, 200, 200) {
		t.Fatalf("Expected the whole frame to be searched, got crop %v", crop)
	}

	matches := e.Search(gray, []Pattern{{Name: "a", Image: patch}}, 0.9, true, false)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if p := ToScreen(matches[0].Center(), e.Downscale(), crop.Min); p != image.Pt(55, 55) {
		t.Errorf("Expected screen point (55,55), got %v", p)
	}
}

func TestCropRect(t *testing.T) {
	bounds := image.Rect(100, 100, 300, 200)
	tests := []struct {
		roi, want image.Rectangle
	}{
		{image.Rectangle{}, image.Rect(0, 0, 200, 100)},
		{image.Rect(10, 20, 50, 60), image.Rect(10, 20, 50, 60)},
		{image.Rect(150, 50, 400, 400), image.Rect(150, 50, 200, 100)},
		{image.Rect(500, 500, 600, 600), image.Rect(0, 0, 200, 100)},
	}
	for _, tt := range tests {
		if got := CropRect(bounds, tt.roi); got != tt.want {
			t.Errorf("CropRect(%v) = %v, want %v", tt.roi, got, tt.want)
		}
	}
}
