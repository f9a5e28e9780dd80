package bot

import "time"

// PerformanceCounters keeps the last few frame durations and the click total.
// Not safe for concurrent use; the loop guards it with its state mutex.
type PerformanceCounters struct {
	durations []time.Duration
	next      int
	filled    int
	clicks    int64
	frames    uint64
}

// NewPerformanceCounters creates counters averaging over window frames
func NewPerformanceCounters(window int) *PerformanceCounters {
	if window < 1 {
		window = 1
	}
	return &PerformanceCounters{durations: make([]time.Duration, window)}
}

// RecordFrame adds one processed frame's duration
func (p *PerformanceCounters) RecordFrame(d time.Duration) {
	p.durations[p.next] = d
	p.next = (p.next + 1) % len(p.durations)
	if p.filled < len(p.durations) {
		p.filled++
	}
	p.frames++
}

// AddClick increments the click total and returns the new value
func (p *PerformanceCounters) AddClick() int64 {
	p.clicks++
	return p.clicks
}

// AverageFrame returns the mean recorded duration, zero before any frame
func (p *PerformanceCounters) AverageFrame() time.Duration {
	if p.filled == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < p.filled; i++ {
		total += p.durations[i]
	}
	return total / time.Duration(p.filled)
}

// FPS is the reciprocal of the average frame duration
func (p *PerformanceCounters) FPS() float64 {
	avg := p.AverageFrame()
	if avg <= 0 {
		return 0
	}
	return 1 / avg.Seconds()
}

func (p *PerformanceCounters) Clicks() int64 {
	return p.clicks
}

func (p *PerformanceCounters) Frames() uint64 {
	return p.frames
}
