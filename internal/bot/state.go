package bot

import "errors"

// State is the lifecycle state of the dispatch loop
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

var (
	// ErrNoRegions is returned by Start when the source offers nothing to capture
	ErrNoRegions = errors.New("no selectable capture region")

	// ErrStopTimeout is returned by Stop when the loop did not exit in time
	ErrStopTimeout = errors.New("dispatch loop did not stop in time")

	// ErrRunning is returned by Reconfigure while the loop is active
	ErrRunning = errors.New("dispatch loop is running")
)

// RuntimeConfig is the mutable configuration shared between the control
// surface and the loop. The loop reads it as one snapshot per frame.
type RuntimeConfig struct {
	Confidence   float64
	EarlyExit    bool
	DebugVisible bool
	Paused       bool
	RegionIndex  int
}

// Status is a poll-friendly snapshot for status displays
type Status struct {
	State         State
	Paused        bool // Requested pause, also while stopped (the next Start begins paused)
	RegionIndex   int
	RegionCount   int // Selectable regions
	TemplateCount int
	Clicks        int64
	Frames        uint64
	FPS           float64
	Confidence    float64
	EarlyExit     bool
	DebugVisible  bool
	Err           error
}
