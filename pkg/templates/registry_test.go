package templates

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"jordanella.com/sun-clicker/internal/logging"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 20), uint8(y * 20), 80, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func testOptions() LoadOptions {
	return LoadOptions{Logger: logging.Discard("test")}
}

func TestLoadFiltersByPrefixAndExtension(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sun_small.png"), 8, 8)
	writePNG(t, filepath.Join(dir, "SUN_Big.PNG"), 12, 10)
	writePNG(t, filepath.Join(dir, "moon.png"), 8, 8)
	if err := os.WriteFile(filepath.Join(dir, "sun_notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	lib, err := Load(dir, testOptions())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	if lib.Count() != 2 {
		t.Fatalf("Expected 2 templates, got %d: %v", lib.Count(), lib.Names())
	}
	if _, ok := lib.Get("moon.png"); ok {
		t.Error("Expected moon.png to be ignored")
	}
	big, ok := lib.Get("SUN_Big.PNG")
	if !ok {
		t.Fatal("Expected SUN_Big.PNG to be loaded")
	}
	if big.Width != 12 || big.Height != 10 || big.Priority != 0 || big.DetectionCount != 0 {
		t.Errorf("Unexpected template %+v", big)
	}
}

func TestLoadAppliesDownscale(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sun.png"), 10, 8)

	opts := testOptions()
	opts.Downscale = 0.75
	lib, err := Load(dir, opts)
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	tmpl, _ := lib.Get("sun.png")
	if tmpl.Width != 7 || tmpl.Height != 6 {
		t.Errorf("Expected 7x6 after downscale, got %dx%d", tmpl.Width, tmpl.Height)
	}
	if tmpl.OriginalWidth != 10 || tmpl.OriginalHeight != 8 {
		t.Errorf("Expected original size 10x8, got %dx%d", tmpl.OriginalWidth, tmpl.OriginalHeight)
	}
}

func TestLoadSkipsUndecodableFiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sun_ok.png"), 8, 8)
	if err := os.WriteFile(filepath.Join(dir, "sun_broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	lib, err := Load(dir, testOptions())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}
	if lib.Count() != 1 {
		t.Errorf("Expected 1 template, got %d", lib.Count())
	}

	var decodeErr *DecodeError
	if len(lib.Skipped()) != 1 || !errors.As(lib.Skipped()[0], &decodeErr) {
		t.Errorf("Expected one DecodeError, got %v", lib.Skipped())
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), testOptions())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Expected LoadError for missing directory, got %v", err)
	}

	empty := t.TempDir()
	writePNG(t, filepath.Join(empty, "moon.png"), 8, 8)
	if _, err := Load(empty, testOptions()); !errors.Is(err, ErrNoTemplates) {
		t.Errorf("Expected ErrNoTemplates, got %v", err)
	}
}

func TestSearchOrderFollowsPriority(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"sun_a.png", "sun_b.png", "sun_c.png"} {
		writePNG(t, filepath.Join(dir, name), 6, 6)
	}

	lib, err := Load(dir, testOptions())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	assertOrder := func(want ...string) {
		t.Helper()
		patterns := lib.Patterns()
		for i, name := range want {
			if patterns[i].Name != name {
				t.Fatalf("Expected %v, got order starting %s at %d", want, patterns[i].Name, i)
			}
		}
	}

	assertOrder("sun_a.png", "sun_b.png", "sun_c.png")

	if err := lib.RecordDetection("sun_c.png"); err != nil {
		t.Fatalf("Failed to record detection: %v", err)
	}
	assertOrder("sun_c.png", "sun_a.png", "sun_b.png")

	if err := lib.UpdatePriority("sun_b.png", 5); err != nil {
		t.Fatalf("Failed to update priority: %v", err)
	}
	assertOrder("sun_b.png", "sun_c.png", "sun_a.png")

	if err := lib.UpdatePriority("sun_a.png", -1); err == nil {
		t.Error("Expected negative delta to be rejected")
	}
	if err := lib.RecordDetection("missing.png"); err == nil {
		t.Error("Expected unknown template to be rejected")
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"sun_a.png", "sun_b.png", "sun_c.png"} {
		writePNG(t, filepath.Join(dir, name), 6, 6)
	}
	lib, err := Load(dir, testOptions())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	lib.RecordDetection("sun_b.png")
	lib.RecordDetection("sun_b.png")
	lib.RecordDetection("sun_a.png")

	stats := lib.Stats()
	if len(stats) != 2 {
		t.Fatalf("Expected 2 detected templates, got %d", len(stats))
	}
	if stats[0].Name != "sun_b.png" || stats[0].Count != 2 || stats[0].Priority != 2 {
		t.Errorf("Unexpected first stat %+v", stats[0])
	}
	if stats[1].Name != "sun_a.png" || stats[1].Count != 1 {
		t.Errorf("Unexpected second stat %+v", stats[1])
	}
}

func TestManifestSeedsAndDisables(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sun_a.png"), 6, 6)
	writePNG(t, filepath.Join(dir, "sun_b.png"), 6, 6)
	writePNG(t, filepath.Join(dir, "flare.png"), 6, 6)

	manifest := `templates:
  - file: flare.png
    priority: 3
  - file: sun_a.png
    disabled: true
`
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	lib, err := Load(dir, testOptions())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	if _, ok := lib.Get("sun_a.png"); ok {
		t.Error("Expected disabled template to be skipped")
	}
	flare, ok := lib.Get("flare.png")
	if !ok || flare.Priority != 3 {
		t.Errorf("Expected manifest entry to be loaded with priority 3, got %+v, %v", flare, ok)
	}
	if lib.Patterns()[0].Name != "flare.png" {
		t.Error("Expected seeded template to be searched first")
	}
}

func TestLoadManifestValidation(t *testing.T) {
	if m, err := LoadManifest(t.TempDir()); m != nil || err != nil {
		t.Errorf("Expected missing manifest to yield nil, got %v, %v", m, err)
	}

	for _, bad := range []string{
		"templates:\n  - file: \"\"\n",
		"templates:\n  - file: sun.png\n    priority: -2\n",
		"templates:\n  - file: ../sun.png\n",
	} {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(bad), 0644); err != nil {
			t.Fatalf("Failed to write manifest: %v", err)
		}
		if _, err := LoadManifest(dir); err == nil {
			t.Errorf("Expected manifest %q to be rejected", bad)
		}
	}
}

func TestImageCacheReusesDecodedImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sun.png"), 8, 8)

	cache := NewImageCache()
	opts := testOptions()
	opts.Cache = cache

	for i := 0; i < 2; i++ {
		if _, err := Load(dir, opts); err != nil {
			t.Fatalf("Failed to load templates: %v", err)
		}
	}

	stats := cache.Stats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("Expected 1 miss and 1 hit, got %+v", stats)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 cached image, got %d", cache.Len())
	}

	if _, err := cache.Get(filepath.Join(dir, "missing.png"), 1); err == nil {
		t.Error("Expected error for missing file")
	}
	if cache.Stats().Failures != 1 {
		t.Errorf("Expected 1 failure, got %d", cache.Stats().Failures)
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Error("Expected cache to be empty after Clear")
	}
}

func TestSymlinkedTemplateKeepsListedName(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	if err := os.Mkdir(assets, 0755); err != nil {
		t.Fatalf("Failed to create assets dir: %v", err)
	}
	writePNG(t, filepath.Join(assets, "x.png"), 8, 8)
	if err := os.Symlink(filepath.Join(assets, "x.png"), filepath.Join(dir, "sun_big.png")); err != nil {
		t.Skipf("Symlinks unavailable: %v", err)
	}

	manifest := "templates:\n  - file: sun_big.png\n    priority: 4\n"
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	lib, err := Load(dir, testOptions())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	tmpl, ok := lib.Get("sun_big.png")
	if !ok {
		t.Fatalf("Expected template under its listed name, got %v", lib.Names())
	}
	if tmpl.Priority != 4 {
		t.Errorf("Expected manifest priority 4, got %d", tmpl.Priority)
	}
	if filepath.Base(tmpl.Path) != "x.png" {
		t.Errorf("Expected path to point at the link target, got %s", tmpl.Path)
	}
}
