package bot

import (
	"image"
	"testing"
	"time"

	"jordanella.com/sun-clicker/internal/cv"
)

func testGate() *ClickGate {
	return NewClickGate(GateConfig{
		Cooldown:        50 * time.Millisecond,
		DuplicateRadius: 30,
		DuplicateWindow: 500 * time.Millisecond,
		RecentClicks:    10,
		Downscale:       1,
	})
}

func matchAt(name string, x, y int, conf float64) cv.Match {
	return cv.Match{Template: name, Confidence: conf, TopLeft: image.Pt(x, y), Width: 10, Height: 10}
}

func TestGateCoordinates(t *testing.T) {
	g := NewClickGate(GateConfig{
		Cooldown:        50 * time.Millisecond,
		DuplicateRadius: 30,
		DuplicateWindow: 500 * time.Millisecond,
		RecentClicks:    10,
		Downscale:       0.5,
	})

	// Center (25,25) in the half-size frame is (50,50) in cropped pixels;
	// the crop starts at (10,20) in a region at (1920,0)
	targets := g.Filter([]cv.Match{matchAt("sun.png", 20, 20, 0.9)}, image.Pt(1920+10, 20), time.Now())
	if len(targets) != 1 {
		t.Fatalf("Expected 1 target, got %d", len(targets))
	}
	if targets[0].X != 50+10+1920 || targets[0].Y != 50+20 {
		t.Errorf("Expected click at (1980,70), got (%d,%d)", targets[0].X, targets[0].Y)
	}
}

func TestGateTwoNearbyMatchesClickOnce(t *testing.T) {
	g := testGate()
	now := time.Now()

	matches := []cv.Match{
		matchAt("sun_big.png", 100, 100, 0.92),
		matchAt("sun_small.png", 112, 108, 0.81),
	}

	targets := g.Filter(matches, image.Point{}, now)
	if len(targets) != 1 {
		t.Fatalf("Expected 1 target, got %d", len(targets))
	}
	if targets[0].Template != "sun_big.png" {
		t.Errorf("Expected higher confidence match to win, got %s", targets[0].Template)
	}

	// Same sun seen again 300ms later is still a duplicate
	targets = g.Filter(matches[1:], image.Point{}, now.Add(300*time.Millisecond))
	if len(targets) != 0 {
		t.Errorf("Expected duplicate to be suppressed, got %d targets", len(targets))
	}
}

func TestGateDuplicateWindow(t *testing.T) {
	g := testGate()
	now := time.Now()

	if len(g.Filter([]cv.Match{matchAt("a", 0, 0, 0.9)}, image.Point{}, now)) != 1 {
		t.Fatalf("Expected first click to pass")
	}

	if !g.IsDuplicate(10, 10, now.Add(499*time.Millisecond)) {
		t.Error("Expected click 7px away inside the window to be a duplicate")
	}
	if g.IsDuplicate(10, 10, now.Add(500*time.Millisecond)) {
		t.Error("Expected click at the window boundary to be allowed")
	}
	if g.IsDuplicate(40, 5, now.Add(100*time.Millisecond)) {
		t.Error("Expected click 35px away to be allowed")
	}
}

func TestGateCooldown(t *testing.T) {
	g := testGate()
	now := time.Now()

	g.Filter([]cv.Match{matchAt("a", 0, 0, 0.9)}, image.Point{}, now)

	far := []cv.Match{matchAt("b", 500, 500, 0.9)}
	if got := g.Filter(far, image.Point{}, now.Add(49*time.Millisecond)); len(got) != 0 {
		t.Errorf("Expected cooldown to block click, got %d targets", len(got))
	}
	if got := g.Filter(far, image.Point{}, now.Add(50*time.Millisecond)); len(got) != 1 {
		t.Errorf("Expected click after cooldown, got %d targets", len(got))
	}
}

func TestGateZeroCooldownAcceptsSeveral(t *testing.T) {
	g := NewClickGate(GateConfig{DuplicateRadius: 30, DuplicateWindow: time.Second, RecentClicks: 10, Downscale: 1})

	matches := []cv.Match{
		matchAt("a", 0, 0, 0.9),
		matchAt("b", 200, 0, 0.8),
		matchAt("c", 5, 5, 0.7),
	}
	targets := g.Filter(matches, image.Point{}, time.Now())
	if len(targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d", len(targets))
	}
	if targets[0].Template != "a" || targets[1].Template != "b" {
		t.Errorf("Unexpected targets: %s, %s", targets[0].Template, targets[1].Template)
	}
}

func TestGateRingIsBounded(t *testing.T) {
	g := NewClickGate(GateConfig{DuplicateRadius: 1, DuplicateWindow: time.Second, RecentClicks: 3, Downscale: 1})
	now := time.Now()

	for i := 0; i < 5; i++ {
		g.Filter([]cv.Match{matchAt("a", i*100, 0, 0.9)}, image.Point{}, now.Add(time.Duration(i)*time.Millisecond))
	}

	recent := g.Recent()
	if len(recent) != 3 {
		t.Fatalf("Expected 3 remembered clicks, got %d", len(recent))
	}
	if recent[0].X != 205 || recent[2].X != 405 {
		t.Errorf("Expected oldest clicks to be evicted, got %+v", recent)
	}

	g.Reset()
	if len(g.Recent()) != 0 {
		t.Error("Expected Reset to clear history")
	}
}
