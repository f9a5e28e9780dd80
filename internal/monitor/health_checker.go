package monitor

import (
	"image"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
)

// Defaults for frozen screen detection
const (
	DefaultCheckInterval = 5 * time.Second
	DefaultThreshold     = 3
)

// FrozenCallback is called once when a region's capture stops changing
type FrozenCallback func(region int, unchangedFor time.Duration)

// HealthChecker watches captured frames for a screen that no longer changes,
// which usually means the capture backend is returning a stale buffer or
// the game has hung. Frames are sampled at most once per interval and
// compared by perceptual hash.
type HealthChecker struct {
	interval    time.Duration
	threshold   int
	maxDistance int
	onFrozen    FrozenCallback
	now         func() time.Time

	mu          sync.Mutex
	region      int
	lastSample  time.Time
	lastHash    *goimagehash.ImageHash
	identical   int
	stableSince time.Time
	fired       bool
}

// NewHealthChecker creates a checker that reports after threshold
// consecutive samples within maxDistance bits of each other
func NewHealthChecker(interval time.Duration, threshold, maxDistance int) *HealthChecker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	if maxDistance < 0 {
		maxDistance = 0
	}
	return &HealthChecker{
		interval:    interval,
		threshold:   threshold,
		maxDistance: maxDistance,
		now:         time.Now,
		region:      -1,
	}
}

// WithFrozenCallback sets the callback for frozen screens
func (hc *HealthChecker) WithFrozenCallback(callback FrozenCallback) *HealthChecker {
	hc.onFrozen = callback
	return hc
}

// WithClock replaces the time source
func (hc *HealthChecker) WithClock(now func() time.Time) *HealthChecker {
	hc.now = now
	return hc
}

// Observe samples a captured frame
func (hc *HealthChecker) Observe(region int, frame image.Image) {
	now := hc.now()

	hc.mu.Lock()
	if region != hc.region {
		hc.resetLocked(region)
	}
	if !hc.lastSample.IsZero() && now.Sub(hc.lastSample) < hc.interval {
		hc.mu.Unlock()
		return
	}
	hc.lastSample = now
	hc.mu.Unlock()

	// Hash outside the lock; Observe is called from one goroutine
	hash, err := goimagehash.DifferenceHash(frame)
	if err != nil {
		return
	}

	hc.mu.Lock()
	var fire bool
	var unchanged time.Duration
	if hc.lastHash != nil {
		dist, err := hc.lastHash.Distance(hash)
		if err == nil && dist <= hc.maxDistance {
			hc.identical++
			if hc.identical >= hc.threshold && !hc.fired {
				hc.fired = true
				fire = true
				unchanged = now.Sub(hc.stableSince)
			}
		} else {
			hc.identical = 0
			hc.fired = false
			hc.stableSince = now
		}
	} else {
		hc.stableSince = now
	}
	hc.lastHash = hash
	callback := hc.onFrozen
	hc.mu.Unlock()

	if fire && callback != nil {
		callback(region, unchanged)
	}
}

// Frozen reports whether the current region is considered frozen
func (hc *HealthChecker) Frozen() bool {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.fired
}

// Reset forgets all samples
func (hc *HealthChecker) Reset() {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.resetLocked(-1)
}

func (hc *HealthChecker) resetLocked(region int) {
	hc.region = region
	hc.lastSample = time.Time{}
	hc.lastHash = nil
	hc.identical = 0
	hc.stableSince = time.Time{}
	hc.fired = false
}
