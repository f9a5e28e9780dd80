package bot

import (
	"fmt"
	"image"
	"sync"
	"time"

	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/internal/events"
	"jordanella.com/sun-clicker/internal/input"
	"jordanella.com/sun-clicker/internal/logging"
	"jordanella.com/sun-clicker/pkg/templates"
)

// Journal records accepted clicks for the session report
type Journal interface {
	RecordClick(template string, x, y int, confidence float64, region int, at time.Time) error
	DetectionCounts() ([]templates.DetectionStat, error)
}

// FrameObserver is fed every captured frame (e.g. a frozen screen detector)
type FrameObserver interface {
	Observe(region int, frame image.Image)
}

// Deps are the collaborators of a DispatchLoop. Source and Clicker are
// required; everything else is optional.
type Deps struct {
	Source   cv.FrameSource
	Clicker  input.Clicker
	Library  *templates.Library // Loaded from Config.TemplateDir on Start when nil
	Cache    *templates.ImageCache
	Renderer cv.Renderer
	Bus      events.EventBus
	Journal  Journal
	Observer FrameObserver
	Logger   *logging.Logger
	Reporter *logging.ErrorReporter
	Clock    func() time.Time
}

// run is one Start..Stop cycle
type run struct {
	cfg      Config
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	engine   *cv.Engine
	gate     *ClickGate
	library  *templates.Library
}

func (r *run) signal() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// stopped reports whether a stop was requested, without blocking
func (r *run) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// DispatchLoop captures, matches and clicks until stopped
type DispatchLoop struct {
	cfg      Config
	deps     Deps
	logger   *logging.Logger
	reporter *logging.ErrorReporter
	now      func() time.Time

	lifecycle sync.Mutex // Serializes Start and Stop

	mu      sync.Mutex
	runtime RuntimeConfig
	perf    *PerformanceCounters
	regions []cv.Region
	current *run
	library *templates.Library
	err     error
}

// New creates a stopped loop
func New(cfg Config, deps Deps) (*DispatchLoop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("frame source is required")
	}
	if deps.Clicker == nil {
		return nil, fmt.Errorf("clicker is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewLogger("DispatchLoop")
	}
	if deps.Reporter == nil {
		deps.Reporter = logging.NewErrorReporter(deps.Logger, 0)
	}
	if deps.Cache == nil {
		deps.Cache = templates.NewImageCache()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &DispatchLoop{
		cfg:      cfg,
		deps:     deps,
		logger:   deps.Logger,
		reporter: deps.Reporter,
		now:      deps.Clock,
		runtime: RuntimeConfig{
			Confidence:   cfg.Confidence,
			EarlyExit:    cfg.EarlyExit,
			DebugVisible: cfg.Debug,
			Paused:       cfg.StartPaused,
			RegionIndex:  cfg.RegionIndex,
		},
		perf:    NewPerformanceCounters(cfg.FPSWindow),
		library: deps.Library,
	}, nil
}

// Config returns the settings the next Start will use
func (l *DispatchLoop) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Start loads templates, enumerates regions and launches the loop goroutine.
// Calling Start on an active loop does nothing.
func (l *DispatchLoop) Start() error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if l.active() {
		return nil
	}

	lib, err := l.loadLibrary()
	if err != nil {
		l.reporter.ReportCritical(logging.ErrorCategoryTemplate, "Failed to load templates", err)
		return err
	}

	regions, err := l.deps.Source.Regions()
	if err != nil {
		return fmt.Errorf("failed to enumerate regions: %w", err)
	}
	if cv.SelectableCount(regions) == 0 {
		return ErrNoRegions
	}

	engine := cv.NewEngine(
		cv.WithDownscale(l.cfg.Downscale),
		cv.WithROI(l.cfg.ROI),
		cv.WithWorkers(l.cfg.Workers),
		cv.WithMaxMatches(l.cfg.MaxMatches),
		cv.WithLogger(l.logger),
	)

	r := &run{
		cfg:     l.cfg,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		engine:  engine,
		gate:    NewClickGate(l.cfg.GateConfig()),
		library: lib,
	}

	l.mu.Lock()
	if l.runtime.RegionIndex >= len(regions) {
		l.logger.Warn(fmt.Sprintf("Region %d not available, using %d", l.runtime.RegionIndex, cv.FirstSelectableRegion))
		l.runtime.RegionIndex = cv.FirstSelectableRegion
	}
	if roi := l.cfg.ROI; !roi.Empty() && cv.CropRect(regions[l.runtime.RegionIndex].Bounds, roi).Min != roi.Min {
		l.logger.Warn(fmt.Sprintf("ROI %s lies outside region %d, searching the whole region", cv.FormatRect(roi), l.runtime.RegionIndex))
	}
	l.regions = regions
	l.library = lib
	l.current = r
	l.err = nil
	to := l.stateLocked()
	region := l.runtime.RegionIndex
	l.mu.Unlock()

	l.logger.InfoWithContext("Dispatch loop starting", map[string]interface{}{
		"templates": lib.Count(),
		"region":    region,
		"regions":   cv.SelectableCount(regions),
		"downscale": l.cfg.Downscale,
		"parallel":  l.cfg.Parallel,
	})

	go l.loop(r)

	l.publish(events.NewStateChangedEvent(string(StateStopped), string(to), "start"))
	return nil
}

func (l *DispatchLoop) loadLibrary() (*templates.Library, error) {
	if lib := l.deps.Library; lib != nil {
		if lib.Downscale() != l.cfg.Downscale {
			return nil, fmt.Errorf("templates scaled by %v but frames are scaled by %v", lib.Downscale(), l.cfg.Downscale)
		}
		return lib, nil
	}

	return templates.Load(l.cfg.TemplateDir, templates.LoadOptions{
		Prefix:     l.cfg.TemplatePrefix,
		Extensions: l.cfg.TemplateExtensions,
		Downscale:  l.cfg.Downscale,
		Cache:      l.deps.Cache,
		Logger:     l.logger,
	})
}

// Stop asks the loop to exit and waits up to StopTimeout for it. On timeout
// the loop is abandoned and ErrStopTimeout returned; state is Stopped either way.
func (l *DispatchLoop) Stop() error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	l.mu.Lock()
	r := l.current
	l.mu.Unlock()
	if r == nil {
		return nil
	}

	r.signal()

	select {
	case <-r.done:
		return nil
	case <-time.After(l.cfg.StopTimeout):
		l.finish(r, "stop timeout")
		return ErrStopTimeout
	}
}

// RequestStop signals the loop without waiting
func (l *DispatchLoop) RequestStop() {
	l.mu.Lock()
	r := l.current
	l.mu.Unlock()
	if r != nil {
		r.signal()
	}
}

// Wait blocks until the current run has exited
func (l *DispatchLoop) Wait() {
	l.mu.Lock()
	r := l.current
	l.mu.Unlock()
	if r != nil {
		<-r.done
	}
}

// finish tears a run down once. Only the first caller for a run acts.
func (l *DispatchLoop) finish(r *run, reason string) {
	l.mu.Lock()
	if l.current != r {
		l.mu.Unlock()
		return
	}
	from := l.stateLocked()
	l.current = nil
	l.mu.Unlock()

	r.engine.Close()
	l.publish(events.NewStateChangedEvent(string(from), string(StateStopped), reason))
	l.logStats(r.library)
}

func (l *DispatchLoop) logStats(lib *templates.Library) {
	var stats []templates.DetectionStat
	if l.deps.Journal != nil {
		var err error
		stats, err = l.deps.Journal.DetectionCounts()
		if err != nil {
			l.reporter.ReportError(logging.ErrorCategoryJournal, logging.ErrorSeverityMedium, "Failed to read session journal", err, nil)
			stats = lib.Stats()
		}
		for i := range stats {
			if t, ok := lib.Get(stats[i].Name); ok {
				stats[i].Priority = t.Priority
			}
		}
	} else {
		stats = lib.Stats()
	}

	l.logger.Info(fmt.Sprintf("=== Detection Statistics (%d clicks) ===", l.ClickCount()))
	for _, s := range stats {
		l.logger.Info(fmt.Sprintf("  %s: %d detections (priority: %d)", s.Name, s.Count, s.Priority))
	}
}

func (l *DispatchLoop) loop(r *run) {
	reason := "stopped"
	defer close(r.done)
	defer func() { l.finish(r, reason) }()

	var frameCounter uint64
	failures := 0

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		frameCounter++
		if frameCounter%uint64(r.cfg.FrameSkip) != 0 {
			time.Sleep(r.cfg.SkipSleep)
			continue
		}

		started := l.now()
		snap, origin := l.snapshot()

		frame, err := l.deps.Source.Capture(snap.RegionIndex)
		if r.stopped() {
			return
		}
		if err != nil {
			failures++
			l.reporter.ReportError(logging.ErrorCategoryCapture, logging.ErrorSeverityMedium, "Capture failed", err, map[string]interface{}{
				"region":      snap.RegionIndex,
				"consecutive": failures,
			})
			l.publish(events.NewCaptureFailedEvent(snap.RegionIndex, failures, err))

			if failures >= r.cfg.MaxCaptureFailures {
				fatal := fmt.Errorf("capture failed %d times in a row: %w", failures, err)
				l.reporter.ReportCritical(logging.ErrorCategoryCapture, "Capture unavailable, stopping", fatal)
				l.mu.Lock()
				if l.current == r {
					l.err = fatal
				}
				l.mu.Unlock()
				l.publish(events.NewFatalEvent(fatal))
				reason = "fatal"
				return
			}

			if !r.wait(r.cfg.captureBackoff(failures)) {
				return
			}
			continue
		}
		failures = 0

		if l.deps.Observer != nil {
			l.deps.Observer.Observe(snap.RegionIndex, frame)
		}

		if snap.Paused {
			if snap.DebugVisible && l.deps.Renderer != nil {
				l.deps.Renderer.DrawText("PAUSED", image.Pt(50, 50), cv.ColorWarning)
			}
		} else {
			if !l.process(r, frame, snap, origin) {
				return
			}
		}

		l.mu.Lock()
		l.perf.RecordFrame(l.now().Sub(started))
		fps, clicks := l.perf.FPS(), l.perf.Clicks()
		l.mu.Unlock()

		if snap.DebugVisible && l.deps.Renderer != nil {
			l.deps.Renderer.DrawText(fmt.Sprintf("FPS: %.1f | Clicks: %d", fps, clicks), image.Pt(10, 30), cv.ColorStats)
			l.deps.Renderer.DrawText(fmt.Sprintf("Templates: %d | Skip: %d | Scale: %.2f", r.library.Count(), r.cfg.FrameSkip, r.cfg.Downscale), image.Pt(10, 60), cv.ColorStats)
			l.deps.Renderer.Show(frame)
		}

		time.Sleep(r.cfg.IdleSleep)
	}
}

// process searches one frame and clicks the accepted targets. It returns
// false when a stop was requested during the post-click delay.
func (l *DispatchLoop) process(r *run, frame *image.RGBA, snap RuntimeConfig, origin image.Point) bool {
	gray, crop := r.engine.Prepare(frame)
	matches := r.engine.Search(gray, r.library.Patterns(), snap.Confidence, snap.EarlyExit, r.cfg.Parallel)
	targets := r.gate.Filter(matches, origin.Add(crop.Min), l.now())

	for i, t := range targets {
		if r.stopped() {
			return false
		}

		if snap.DebugVisible && l.deps.Renderer != nil {
			c := cv.ColorMatch
			if i > 0 {
				c = cv.ColorAlt
			}
			box := cv.ScaleRect(t.Rect(), r.cfg.Downscale, crop.Min)
			l.deps.Renderer.DrawRect(box, c)
			l.deps.Renderer.DrawText(fmt.Sprintf("%.2f", t.Confidence), image.Pt(box.Min.X, box.Min.Y-5), c)
		}

		if err := l.deps.Clicker.Click(t.X, t.Y); err != nil {
			l.reporter.ReportError(logging.ErrorCategoryClick, logging.ErrorSeverityMedium, "Click failed", err, map[string]interface{}{
				"template": t.Template,
				"x":        t.X,
				"y":        t.Y,
			})
			continue
		}

		if err := r.library.RecordDetection(t.Template); err != nil {
			l.logger.Warn(err.Error())
		}

		l.mu.Lock()
		total := l.perf.AddClick()
		l.mu.Unlock()

		if l.deps.Journal != nil {
			if err := l.deps.Journal.RecordClick(t.Template, t.X, t.Y, t.Confidence, snap.RegionIndex, l.now()); err != nil {
				l.reporter.ReportError(logging.ErrorCategoryJournal, logging.ErrorSeverityLow, "Failed to journal click", err, nil)
			}
		}

		l.publish(events.NewClickEvent(t.Template, t.X, t.Y, t.Confidence, total))

		if !r.wait(r.cfg.PostClickDelay) {
			return false
		}
	}
	return true
}

// wait sleeps for d and reports false if a stop arrived first
func (r *run) wait(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-r.stop:
		return false
	case <-t.C:
		return true
	}
}

func (l *DispatchLoop) snapshot() (RuntimeConfig, image.Point) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var origin image.Point
	if region, ok := cv.RegionAt(l.regions, l.runtime.RegionIndex); ok {
		origin = region.Origin()
	}
	return l.runtime, origin
}

func (l *DispatchLoop) publish(event events.Event) {
	if l.deps.Bus == nil {
		return
	}
	if !l.deps.Bus.TryPublish(event) {
		l.logger.Debug(fmt.Sprintf("Event queue full, dropped %s", event.Type))
	}
}

func (l *DispatchLoop) active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil
}

func (l *DispatchLoop) stateLocked() State {
	switch {
	case l.current == nil:
		return StateStopped
	case l.runtime.Paused:
		return StatePaused
	default:
		return StateRunning
	}
}
