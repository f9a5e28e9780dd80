package bot

import (
	"fmt"
	"image"
	"time"

	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/pkg/templates"
)

// Config holds the engine settings fixed for the lifetime of one run.
// Values that may change while running live in RuntimeConfig.
type Config struct {
	// Templates
	TemplateDir        string
	TemplatePrefix     string
	TemplateExtensions []string

	// Matching
	Confidence float64
	Downscale  float64
	ROI        image.Rectangle // Capture-frame pixels, empty = whole region
	EarlyExit  bool
	Parallel   bool
	Workers    int
	MaxMatches int

	// Click gating
	ClickCooldown   time.Duration
	DuplicateRadius float64
	DuplicateWindow time.Duration
	RecentClicks    int
	PostClickDelay  time.Duration

	// Pacing
	FrameSkip int
	SkipSleep time.Duration
	IdleSleep time.Duration
	FPSWindow int

	// Capture failure handling
	MaxCaptureFailures int
	CaptureBackoff     time.Duration
	MaxCaptureBackoff  time.Duration

	StopTimeout time.Duration

	// Initial runtime values
	RegionIndex int
	StartPaused bool
	Debug       bool
	DryRun      bool
}

// DefaultConfig returns the settings the clicker ships with
func DefaultConfig() Config {
	return Config{
		TemplateDir:        templates.DefaultDir,
		TemplatePrefix:     templates.DefaultPrefix,
		TemplateExtensions: append([]string(nil), templates.DefaultExtensions...),

		Confidence: 0.70,
		Downscale:  cv.DefaultDownscale,
		EarlyExit:  true,
		Parallel:   true,
		Workers:    cv.DefaultWorkers,
		MaxMatches: cv.DefaultMaxMatches,

		ClickCooldown:   50 * time.Millisecond,
		DuplicateRadius: 30,
		DuplicateWindow: 500 * time.Millisecond,
		RecentClicks:    10,
		PostClickDelay:  20 * time.Millisecond,

		FrameSkip: 2,
		SkipSleep: time.Millisecond,
		IdleSleep: time.Millisecond,
		FPSWindow: 30,

		MaxCaptureFailures: 10,
		CaptureBackoff:     100 * time.Millisecond,
		MaxCaptureBackoff:  time.Second,

		StopTimeout: time.Second,

		RegionIndex: cv.FirstSelectableRegion,
	}
}

// Validate rejects settings the loop cannot run with
func (c *Config) Validate() error {
	if c.TemplateDir == "" {
		return fmt.Errorf("template directory cannot be empty")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence must be in [0,1], got %v", c.Confidence)
	}
	if c.Downscale <= 0 || c.Downscale > 1 {
		return fmt.Errorf("downscale must be in (0,1], got %v", c.Downscale)
	}
	if c.ROI.Min.X < 0 || c.ROI.Min.Y < 0 {
		return fmt.Errorf("roi cannot start at negative coordinates: %v", c.ROI)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxMatches < 1 {
		return fmt.Errorf("max matches must be at least 1, got %d", c.MaxMatches)
	}
	if c.ClickCooldown < 0 || c.DuplicateWindow < 0 || c.PostClickDelay < 0 {
		return fmt.Errorf("click timings cannot be negative")
	}
	if c.DuplicateRadius < 0 {
		return fmt.Errorf("duplicate radius cannot be negative: %v", c.DuplicateRadius)
	}
	if c.RecentClicks < 1 {
		return fmt.Errorf("recent clicks must be at least 1, got %d", c.RecentClicks)
	}
	if c.FrameSkip < 1 {
		return fmt.Errorf("frame skip must be at least 1, got %d", c.FrameSkip)
	}
	if c.FPSWindow < 1 {
		return fmt.Errorf("fps window must be at least 1, got %d", c.FPSWindow)
	}
	if c.MaxCaptureFailures < 1 {
		return fmt.Errorf("max capture failures must be at least 1, got %d", c.MaxCaptureFailures)
	}
	if c.CaptureBackoff < 0 || c.MaxCaptureBackoff < 0 {
		return fmt.Errorf("capture backoff cannot be negative")
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("stop timeout must be positive")
	}
	if c.RegionIndex < cv.FirstSelectableRegion {
		return fmt.Errorf("region index must be at least %d, got %d", cv.FirstSelectableRegion, c.RegionIndex)
	}
	return nil
}

// GateConfig derives the click gate settings
func (c *Config) GateConfig() GateConfig {
	return GateConfig{
		Cooldown:        c.ClickCooldown,
		DuplicateRadius: c.DuplicateRadius,
		DuplicateWindow: c.DuplicateWindow,
		RecentClicks:    c.RecentClicks,
		Downscale:       c.Downscale,
	}
}

// captureBackoff returns the wait after the given number of consecutive failures
func (c *Config) captureBackoff(failures int) time.Duration {
	d := c.CaptureBackoff * time.Duration(failures)
	if c.MaxCaptureBackoff > 0 && d > c.MaxCaptureBackoff {
		d = c.MaxCaptureBackoff
	}
	return d
}
