package bot

import (
	"image"
	"math"
	"sync"
	"time"

	"jordanella.com/sun-clicker/internal/cv"
)

// GateConfig controls click rate limiting and duplicate suppression
type GateConfig struct {
	Cooldown        time.Duration // Minimum time between any two clicks
	DuplicateRadius float64       // Pixels; closer recent clicks suppress a target
	DuplicateWindow time.Duration // How long a click suppresses its neighbourhood
	RecentClicks    int           // Ring size
	Downscale       float64
}

// ClickEvent is an accepted click in absolute screen coordinates
type ClickEvent struct {
	X, Y int
	At   time.Time
}

// Target is a match that passed the gate, with its screen position
type Target struct {
	cv.Match
	X, Y int
}

// ClickGate decides which matches become clicks
type ClickGate struct {
	cfg GateConfig

	mu        sync.Mutex
	recent    []ClickEvent // Oldest first, at most cfg.RecentClicks
	lastClick time.Time
}

// NewClickGate creates a gate with an empty click history
func NewClickGate(cfg GateConfig) *ClickGate {
	if cfg.RecentClicks < 1 {
		cfg.RecentClicks = 1
	}
	if cfg.Downscale <= 0 {
		cfg.Downscale = 1
	}
	return &ClickGate{
		cfg:    cfg,
		recent: make([]ClickEvent, 0, cfg.RecentClicks),
	}
}

// Filter walks matches in order (best first) and returns those that should
// be clicked, recording each accepted one. offset is the absolute screen
// position of the search frame's top-left pixel before downscaling. The cooldown ends the walk, so
// with a non-zero cooldown at most one target is returned per call.
func (g *ClickGate) Filter(matches []cv.Match, offset image.Point, now time.Time) []Target {
	g.mu.Lock()
	defer g.mu.Unlock()

	var targets []Target
	for _, m := range matches {
		if !g.lastClick.IsZero() && now.Sub(g.lastClick) < g.cfg.Cooldown {
			break
		}

		p := cv.ToScreen(m.Center(), g.cfg.Downscale, offset)
		if g.isDuplicate(p.X, p.Y, now) {
			continue
		}

		g.push(ClickEvent{X: p.X, Y: p.Y, At: now})
		g.lastClick = now
		targets = append(targets, Target{Match: m, X: p.X, Y: p.Y})
	}
	return targets
}

// IsDuplicate reports whether a click at (x, y) would repeat a recent one
func (g *ClickGate) IsDuplicate(x, y int, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isDuplicate(x, y, now)
}

func (g *ClickGate) isDuplicate(x, y int, now time.Time) bool {
	for _, c := range g.recent {
		if now.Sub(c.At) >= g.cfg.DuplicateWindow {
			continue
		}
		dist := math.Hypot(float64(x-c.X), float64(y-c.Y))
		if dist < g.cfg.DuplicateRadius {
			return true
		}
	}
	return false
}

func (g *ClickGate) push(c ClickEvent) {
	if len(g.recent) == g.cfg.RecentClicks {
		copy(g.recent, g.recent[1:])
		g.recent = g.recent[:len(g.recent)-1]
	}
	g.recent = append(g.recent, c)
}

// Recent returns the remembered clicks, oldest first
func (g *ClickGate) Recent() []ClickEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]ClickEvent, len(g.recent))
	copy(out, g.recent)
	return out
}

// Reset forgets every click
func (g *ClickGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.recent = g.recent[:0]
	g.lastClick = time.Time{}
}
