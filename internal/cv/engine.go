package cv

import (
	"fmt"
	"image"

	"jordanella.com/sun-clicker/internal/logging"
)

const (
	DefaultDownscale  = 0.75
	DefaultWorkers    = 3
	DefaultMaxMatches = 5

	// Parallel dispatch only pays off above this many patterns
	sequentialLimit = 2
)

// Engine searches preprocessed frames for a set of patterns
type Engine struct {
	downscale  float64
	roi        image.Rectangle
	maxMatches int
	pool       *Pool
	logger     *logging.Logger
}

// NewEngine creates an engine and starts its worker pool
func NewEngine(opts ...Option) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewLogger("MatchEngine")
	}

	return &Engine{
		downscale:  o.downscale,
		roi:        o.roi,
		maxMatches: o.maxMatches,
		pool:       NewPool(o.workers),
		logger:     o.logger,
	}
}

// Downscale returns the factor frames are shrunk by
func (e *Engine) Downscale() float64 {
	return e.downscale
}

// ROI returns the configured region of interest (empty when unset)
func (e *Engine) ROI() image.Rectangle {
	return e.roi
}

// Close releases the worker pool. In-flight tasks finish on their own.
func (e *Engine) Close() {
	e.pool.Close()
}

// Prepare crops, converts and scales a captured frame exactly as templates
// were scaled at load time. It also returns the crop actually applied,
// relative to the frame origin, which maps matches back to the frame.
func (e *Engine) Prepare(frame image.Image) (*image.Gray, image.Rectangle) {
	crop := CropRect(frame.Bounds(), e.roi)
	return Preprocess(Crop(frame, crop), e.downscale), crop
}

type outcome struct {
	order int
	match Match
	found bool
}

// Search matches every pattern against frame and returns the matches at or
// above threshold, best first. Patterns are tried in the given order.
func (e *Engine) Search(frame *image.Gray, patterns []Pattern, threshold float64, earlyExit, parallel bool) []Match {
	if frame == nil || len(patterns) == 0 {
		return nil
	}

	ii := newIntegral(frame)

	var found []Match
	if parallel && len(patterns) > sequentialLimit {
		found = e.searchParallel(frame, ii, patterns, threshold, earlyExit)
	} else {
		for i, p := range patterns {
			res := e.matchOne(i, frame, ii, p, threshold)
			if res.found {
				found = append(found, res.match)
				if earlyExit {
					break
				}
			}
		}
	}

	return rankMatches(found, e.maxMatches)
}

// searchParallel fans patterns out to the pool. With earlyExit the first
// match ends consumption; remaining tasks still run and write into the
// buffered channel, their results are dropped.
func (e *Engine) searchParallel(frame *image.Gray, ii *integral, patterns []Pattern, threshold float64, earlyExit bool) []Match {
	results := make(chan outcome, len(patterns))

	submitted := 0
	for i, p := range patterns {
		i, p := i, p
		err := e.pool.Submit(func() {
			results <- e.matchOne(i, frame, ii, p, threshold)
		})
		if err != nil {
			e.logger.Warn((&MatchError{Template: p.Name, Err: err}).Error())
			continue
		}
		submitted++
	}

	var collected []outcome
	for n := 0; n < submitted; n++ {
		res := <-results
		if !res.found {
			continue
		}
		collected = append(collected, res)
		if earlyExit {
			break
		}
	}

	// Arrival order is not deterministic; restore pattern order before the
	// stable confidence sort so ties resolve the same way every frame
	ordered := make([]Match, 0, len(collected))
	for i := range patterns {
		for _, c := range collected {
			if c.order == i {
				ordered = append(ordered, c.match)
			}
		}
	}
	return ordered
}

func (e *Engine) matchOne(order int, frame *image.Gray, ii *integral, p Pattern, threshold float64) (res outcome) {
	res.order = order

	defer func() {
		if r := recover(); r != nil {
			err := &MatchError{Template: p.Name, Err: fmt.Errorf("panic: %v", r)}
			e.logger.Error("Template match failed", err)
			res = outcome{order: order}
		}
	}()

	if p.Image == nil {
		e.logger.Warn((&MatchError{Template: p.Name, Err: ErrInvalidImage}).Error())
		return res
	}

	score, loc, err := matchWithIntegral(frame, ii, p.Image)
	if err != nil {
		e.logger.DebugWithContext("Template skipped", map[string]interface{}{
			"error": (&MatchError{Template: p.Name, Err: err}).Error(),
		})
		return res
	}

	if score < threshold {
		return res
	}

	b := p.Image.Bounds()
	res.found = true
	res.match = Match{
		Template:   p.Name,
		Confidence: score,
		TopLeft:    loc,
		Width:      b.Dx(),
		Height:     b.Dy(),
	}
	return res
}
