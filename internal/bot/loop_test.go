package bot

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/internal/input"
	"jordanella.com/sun-clicker/internal/logging"
	"jordanella.com/sun-clicker/pkg/templates"
)

// fakeSource serves one static frame, optionally failing the first calls
type fakeSource struct {
	mu        sync.Mutex
	regions   []cv.Region
	frame     *image.RGBA
	failFirst int
	calls     int
}

func (s *fakeSource) Regions() ([]cv.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cv.Region(nil), s.regions...), nil
}

func (s *fakeSource) Capture(index int) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFirst {
		return nil, &cv.CaptureError{Region: index, Err: errors.New("device busy")}
	}
	out := image.NewRGBA(s.frame.Bounds())
	copy(out.Pix, s.frame.Pix)
	return out, nil
}

// stallingSource blocks its first Capture until release is closed
type stallingSource struct {
	fakeSource
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *stallingSource) Capture(index int) (*image.RGBA, error) {
	first := false
	s.once.Do(func() {
		first = true
		close(s.entered)
	})
	if first {
		<-s.release
	}
	return s.fakeSource.Capture(index)
}

// fakeRenderer records drawn text
type fakeRenderer struct {
	mu    sync.Mutex
	texts []string
	shown int
}

func (r *fakeRenderer) DrawRect(image.Rectangle, color.Color) {}

func (r *fakeRenderer) DrawText(text string, _ image.Point, _ color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *fakeRenderer) Show(*image.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown++
}

func (r *fakeRenderer) has(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.texts {
		if t == text {
			return true
		}
	}
	return false
}

// sunPixel is a textured 10x10 patch that stands out from a flat background
func sunPixel(x, y int) uint8 {
	return uint8(40 + (x*37+y*23+x*y*5)%200)
}

func sunFrame(w, h int, at image.Point) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{30, 30, 30, 255})
		}
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := sunPixel(x, y)
			img.Set(at.X+x, at.Y+y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func writeSunTemplate(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: sunPixel(x, y)})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode template: %v", err)
	}
}

func twoRegions() []cv.Region {
	return []cv.Region{
		{Index: 0, Bounds: image.Rect(0, 0, 300, 200)},
		{Index: 1, Bounds: image.Rect(100, 0, 300, 200)},
	}
}

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.TemplateDir = dir
	cfg.Downscale = 1
	cfg.FrameSkip = 1
	cfg.Confidence = 0.75
	cfg.CaptureBackoff = time.Millisecond
	return cfg
}

func newTestLoop(t *testing.T, cfg Config, src cv.FrameSource, deps Deps) (*DispatchLoop, *input.Recorder, *logging.ErrorReporter) {
	t.Helper()
	rec := input.NewRecorder()
	logger := logging.Discard("DispatchLoop")
	reporter := logging.NewErrorReporter(logger, 0)

	deps.Source = src
	deps.Clicker = rec
	deps.Logger = logger
	deps.Reporter = reporter

	loop, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("Failed to create loop: %v", err)
	}
	t.Cleanup(func() { loop.Stop() })
	return loop, rec, reporter
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestLoopClicksSun(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	loop, rec, _ := newTestLoop(t, testConfig(dir), src, Deps{})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	if loop.State() != StateRunning {
		t.Errorf("Expected running, got %s", loop.State())
	}

	waitFor(t, "first click", func() bool { return rec.Count() > 0 })

	click := rec.Clicks()[0]
	if click.Point != image.Pt(155, 55) {
		t.Errorf("Expected click at (155,55), got %v", click.Point)
	}

	if err := loop.Stop(); err != nil {
		t.Fatalf("Failed to stop loop: %v", err)
	}
	if loop.State() != StateStopped {
		t.Errorf("Expected stopped, got %s", loop.State())
	}
	if loop.ClickCount() != int64(rec.Count()) {
		t.Errorf("Click counter %d does not match recorded clicks %d", loop.ClickCount(), rec.Count())
	}
}

func TestLoopSuppressesDuplicateSun(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_a.png")
	writeSunTemplate(t, dir, "sun_b.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	cfg := testConfig(dir)
	cfg.EarlyExit = false
	cfg.DuplicateWindow = 2 * time.Second
	loop, rec, _ := newTestLoop(t, cfg, src, Deps{})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	waitFor(t, "first click", func() bool { return rec.Count() > 0 })
	time.Sleep(100 * time.Millisecond)

	if err := loop.Stop(); err != nil {
		t.Fatalf("Failed to stop loop: %v", err)
	}
	if rec.Count() != 1 {
		t.Errorf("Expected exactly one click, got %d", rec.Count())
	}
}

func TestLoopRecoversFromCaptureFailures(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50)), failFirst: 3}
	loop, rec, reporter := newTestLoop(t, testConfig(dir), src, Deps{})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	waitFor(t, "click after recovery", func() bool { return rec.Count() > 0 })

	if got := reporter.Count(logging.ErrorCategoryCapture); got != 3 {
		t.Errorf("Expected 3 capture errors, got %d", got)
	}
	if loop.Err() != nil {
		t.Errorf("Expected no fatal error, got %v", loop.Err())
	}
	if loop.State() != StateRunning {
		t.Errorf("Expected running, got %s", loop.State())
	}
}

func TestLoopStopsAfterPersistentCaptureFailure(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50)), failFirst: 1000}
	cfg := testConfig(dir)
	cfg.MaxCaptureFailures = 3
	loop, rec, _ := newTestLoop(t, cfg, src, Deps{})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	loop.Wait()

	if loop.State() != StateStopped {
		t.Errorf("Expected stopped, got %s", loop.State())
	}
	var captureErr *cv.CaptureError
	if !errors.As(loop.Err(), &captureErr) {
		t.Fatalf("Expected CaptureError, got %v", loop.Err())
	}
	if rec.Count() != 0 {
		t.Errorf("Expected no clicks, got %d", rec.Count())
	}
}

func TestStartWithoutTemplates(t *testing.T) {
	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	loop, _, _ := newTestLoop(t, testConfig(t.TempDir()), src, Deps{})

	err := loop.Start()
	if err == nil {
		t.Fatal("Expected Start to fail without templates")
	}
	var loadErr *templates.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Expected LoadError, got %T: %v", err, err)
	}
	if !errors.Is(err, templates.ErrNoTemplates) {
		t.Errorf("Expected ErrNoTemplates, got %v", err)
	}
	if loop.State() != StateStopped {
		t.Errorf("Expected stopped, got %s", loop.State())
	}
}

func TestStartWithoutRegions(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions()[:1], frame: sunFrame(200, 200, image.Pt(50, 50))}
	loop, _, _ := newTestLoop(t, testConfig(dir), src, Deps{})

	if err := loop.Start(); !errors.Is(err, ErrNoRegions) {
		t.Errorf("Expected ErrNoRegions, got %v", err)
	}
}

func TestCycleRegion(t *testing.T) {
	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Point{})}
	loop, _, _ := newTestLoop(t, testConfig(t.TempDir()), src, Deps{})

	if got := loop.CycleRegion(); got != 1 {
		t.Errorf("Expected region to stay 1 with one display, got %d", got)
	}

	src.mu.Lock()
	src.regions = append(src.regions, cv.Region{Index: 2, Bounds: image.Rect(300, 0, 500, 200)})
	src.mu.Unlock()

	if got := loop.CycleRegion(); got != 2 {
		t.Errorf("Expected region 2, got %d", got)
	}
	if got := loop.CycleRegion(); got != 1 {
		t.Errorf("Expected wrap to region 1, got %d", got)
	}
}

func TestPausedLoopDoesNotClick(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	cfg := testConfig(dir)
	cfg.StartPaused = true
	cfg.Debug = true
	renderer := &fakeRenderer{}
	loop, rec, _ := newTestLoop(t, cfg, src, Deps{Renderer: renderer})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	if loop.State() != StatePaused {
		t.Errorf("Expected paused, got %s", loop.State())
	}
	waitFor(t, "paused overlay", func() bool { return renderer.has("PAUSED") })

	if rec.Count() != 0 {
		t.Errorf("Expected no clicks while paused, got %d", rec.Count())
	}

	if paused := loop.TogglePause(); paused {
		t.Fatal("Expected TogglePause to resume")
	}
	waitFor(t, "click after resume", func() bool { return rec.Count() > 0 })
}

func TestControlSurface(t *testing.T) {
	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Point{})}
	loop, _, _ := newTestLoop(t, testConfig(t.TempDir()), src, Deps{})

	loop.SetConfidenceThreshold(1.7)
	if got := loop.Runtime().Confidence; got != 1 {
		t.Errorf("Expected confidence clamped to 1, got %v", got)
	}
	loop.SetConfidenceThreshold(-0.2)
	if got := loop.Runtime().Confidence; got != 0 {
		t.Errorf("Expected confidence clamped to 0, got %v", got)
	}

	loop.SetEarlyExit(false)
	if loop.Runtime().EarlyExit {
		t.Error("Expected early exit disabled")
	}
	if !loop.ToggleDebugVisible() || !loop.Runtime().DebugVisible {
		t.Error("Expected debug view enabled")
	}
	if loop.State() != StateStopped {
		t.Errorf("Expected stopped before Start, got %s", loop.State())
	}

	loop.SetPaused(true)
	if status := loop.Status(); !status.Paused || status.State != StateStopped {
		t.Errorf("Expected a pending pause while stopped, got paused=%v state=%s", status.Paused, status.State)
	}
}

func TestRestartAfterStop(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	loop, _, _ := newTestLoop(t, testConfig(dir), src, Deps{})

	for i := 0; i < 2; i++ {
		if err := loop.Start(); err != nil {
			t.Fatalf("Failed to start loop (run %d): %v", i+1, err)
		}
		if err := loop.Stop(); err != nil {
			t.Fatalf("Failed to stop loop (run %d): %v", i+1, err)
		}
	}
	if loop.TemplateCount() != 1 {
		t.Errorf("Expected 1 template, got %d", loop.TemplateCount())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameSkip = 0

	_, err := New(cfg, Deps{Source: &fakeSource{}, Clicker: input.NewRecorder()})
	if err == nil {
		t.Fatal("Expected invalid config to be rejected")
	}
}

func TestReconfigure(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	loop, _, _ := newTestLoop(t, testConfig(dir), src, Deps{})

	next := loop.Config()
	next.PostClickDelay = 0
	if err := loop.Reconfigure(next); err != nil {
		t.Fatalf("Failed to reconfigure stopped loop: %v", err)
	}
	if loop.Config().PostClickDelay != 0 {
		t.Errorf("Expected new post-click delay to be kept")
	}

	bad := next
	bad.Confidence = 2
	if err := loop.Reconfigure(bad); err == nil {
		t.Error("Expected invalid config to be rejected")
	}

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	if err := loop.Reconfigure(next); !errors.Is(err, ErrRunning) {
		t.Errorf("Expected ErrRunning, got %v", err)
	}
}

func TestLoopROIOutsideRegionKeepsClickPosition(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	cfg := testConfig(dir)
	cfg.ROI = image.Rect(500, 500, 600, 600)
	loop, rec, _ := newTestLoop(t, cfg, src, Deps{})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	waitFor(t, "first click", func() bool { return rec.Count() > 0 })

	if click := rec.Clicks()[0]; click.Point != image.Pt(155, 55) {
		t.Errorf("Expected click at (155,55), got %v", click.Point)
	}
}

func TestLoopROIOffsetsClicks(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))}
	cfg := testConfig(dir)
	cfg.ROI = image.Rect(40, 30, 120, 100)
	loop, rec, _ := newTestLoop(t, cfg, src, Deps{})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	waitFor(t, "first click", func() bool { return rec.Count() > 0 })

	if click := rec.Clicks()[0]; click.Point != image.Pt(155, 55) {
		t.Errorf("Expected click at (155,55), got %v", click.Point)
	}
}

func TestStopTimeoutAbandonedRunDoesNotClick(t *testing.T) {
	dir := t.TempDir()
	writeSunTemplate(t, dir, "sun_1.png")

	src := &stallingSource{
		fakeSource: fakeSource{regions: twoRegions(), frame: sunFrame(200, 200, image.Pt(50, 50))},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	cfg := testConfig(dir)
	cfg.StopTimeout = 50 * time.Millisecond
	loop, rec, _ := newTestLoop(t, cfg, src, Deps{})

	if err := loop.Start(); err != nil {
		t.Fatalf("Failed to start loop: %v", err)
	}
	<-src.entered

	if err := loop.Stop(); !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("Expected ErrStopTimeout, got %v", err)
	}
	if loop.State() != StateStopped {
		t.Errorf("Expected stopped, got %s", loop.State())
	}

	close(src.release)
	time.Sleep(100 * time.Millisecond)

	if rec.Count() != 0 {
		t.Errorf("Expected no clicks after Stop returned, got %d", rec.Count())
	}
	if loop.Err() != nil {
		t.Errorf("Expected no error from the abandoned run, got %v", loop.Err())
	}
}
