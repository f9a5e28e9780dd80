package cv

import (
	"image"

	"jordanella.com/sun-clicker/internal/logging"
)

// Engine construction options
type Option func(*engineOptions)

type engineOptions struct {
	downscale  float64
	roi        image.Rectangle
	workers    int
	maxMatches int
	logger     *logging.Logger
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		downscale:  DefaultDownscale,
		workers:    DefaultWorkers,
		maxMatches: DefaultMaxMatches,
	}
}

// WithDownscale sets the factor frames are shrunk by before matching
func WithDownscale(f float64) Option {
	return func(opts *engineOptions) {
		if f > 0 && f <= 1 {
			opts.downscale = f
		}
	}
}

// WithROI restricts matching to a sub-rectangle of the captured frame
func WithROI(r image.Rectangle) Option {
	return func(opts *engineOptions) {
		opts.roi = r
	}
}

// WithWorkers sets the parallel matching pool size
func WithWorkers(n int) Option {
	return func(opts *engineOptions) {
		if n > 0 {
			opts.workers = n
		}
	}
}

// WithMaxMatches caps the number of matches returned per frame
func WithMaxMatches(n int) Option {
	return func(opts *engineOptions) {
		if n > 0 {
			opts.maxMatches = n
		}
	}
}

// WithLogger sets the logger used for per-template failures
func WithLogger(l *logging.Logger) Option {
	return func(opts *engineOptions) {
		opts.logger = l
	}
}
