package input

import (
	"fmt"
	"image"
	"sync"
	"time"
)

// Clicker performs a left click at absolute screen coordinates
type Clicker interface {
	Click(x, y int) error
}

// ClickError reports a click that could not be delivered. It is logged and
// never stops the dispatch loop.
type ClickError struct {
	X, Y int
	Err  error
}

func (e *ClickError) Error() string {
	return fmt.Sprintf("click at (%d,%d): %v", e.X, e.Y, e.Err)
}

func (e *ClickError) Unwrap() error {
	return e.Err
}

// RecordedClick is one click captured by a Recorder
type RecordedClick struct {
	Point image.Point
	At    time.Time
}

// Recorder is a Clicker that only remembers clicks. Used for dry runs and
// tests.
type Recorder struct {
	mu     sync.Mutex
	clicks []RecordedClick
	fail   error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent clicks fail with err (nil restores success)
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *Recorder) Click(x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		return &ClickError{X: x, Y: y, Err: r.fail}
	}
	r.clicks = append(r.clicks, RecordedClick{Point: image.Pt(x, y), At: time.Now()})
	return nil
}

// Clicks returns a copy of the recorded clicks
func (r *Recorder) Clicks() []RecordedClick {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RecordedClick, len(r.clicks))
	copy(out, r.clicks)
	return out
}

// Count returns the number of recorded clicks
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clicks)
}
