package coordinator

import (
	"fmt"
	"io"
	"time"

	"jordanella.com/sun-clicker/internal/bot"
	"jordanella.com/sun-clicker/internal/config"
	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/internal/database"
	"jordanella.com/sun-clicker/internal/events"
	"jordanella.com/sun-clicker/internal/input"
	"jordanella.com/sun-clicker/internal/logging"
	"jordanella.com/sun-clicker/internal/monitor"
	"jordanella.com/sun-clicker/pkg/templates"
)

// eventBufferSize is the event bus queue length
const eventBufferSize = 256

// Options selects the collaborators a front end supplies. Zero values pick
// the desktop defaults.
type Options struct {
	SettingsPath string
	Display      cv.Display     // Debug frame sink, nil disables annotation
	Source       cv.FrameSource // Defaults to the screen
	Clicker      input.Clicker  // Defaults to the OS pointer, or a Recorder in dry-run mode
	Console      io.Writer      // Defaults to stdout
}

// Session owns one dispatch loop and everything wired around it: settings,
// logging, the event bus, the session journal and the frozen screen monitor
type Session struct {
	Settings     *config.Settings
	SettingsPath string
	Bus          *events.DefaultEventBus
	Journal      *database.DB
	Reporter     *logging.ErrorReporter
	Health       *monitor.HealthChecker
	Loop         *bot.DispatchLoop
	Logger       *logging.Logger

	logCloser   io.Closer
	eventLogger *logging.EventLogger
}

// New loads settings and builds a stopped session
func New(opts Options) (*Session, error) {
	path := opts.SettingsPath
	if path == "" {
		path = config.DefaultPath
	}

	settings, err := config.Load(path, logging.NewLogger("Config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	level, err := logging.ParseLevel(settings.Logging.Level)
	if err != nil {
		return nil, err
	}
	logCloser, err := logging.Configure(logging.Options{
		Level:      level,
		Dir:        settings.Logging.Dir,
		MaxSizeMB:  settings.Logging.MaxSizeMB,
		MaxBackups: settings.Logging.MaxBackups,
		MaxAgeDays: settings.Logging.MaxAgeDays,
		Compress:   settings.Logging.Compress,
		Console:    opts.Console,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		Settings:     settings,
		SettingsPath: path,
		Logger:       logging.NewLogger("Session"),
		logCloser:    logCloser,
	}

	s.Bus = events.NewEventBus(eventBufferSize)
	if settings.Logging.EventLog {
		s.eventLogger = logging.NewEventLogger(s.Bus, logging.NewLogger("Events"))
	}

	s.Journal, err = database.OpenJournal()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	s.Reporter = logging.NewErrorReporter(logging.NewLogger("Errors"), 0)
	for _, severity := range []logging.ErrorSeverity{
		logging.ErrorSeverityMedium,
		logging.ErrorSeverityHigh,
		logging.ErrorSeverityCritical,
	} {
		s.Reporter.OnError(severity, s.journalError)
	}

	s.Health = monitor.NewHealthChecker(
		settings.Monitor.FrozenCheck,
		settings.Monitor.FrozenThreshold,
		settings.Monitor.HashDistance,
	).WithFrozenCallback(func(region int, unchangedFor time.Duration) {
		s.Bus.TryPublish(events.NewScreenFrozenEvent(region, unchangedFor))
	})

	deps := bot.Deps{
		Source:   opts.Source,
		Clicker:  opts.Clicker,
		Cache:    templates.NewImageCache(),
		Bus:      s.Bus,
		Journal:  s.Journal,
		Observer: s.Health,
		Logger:   logging.NewLogger("DispatchLoop"),
		Reporter: s.Reporter,
	}
	if deps.Source == nil {
		deps.Source = cv.NewScreenSource()
	}
	if deps.Clicker == nil {
		deps.Clicker = DefaultClicker(settings.Engine.DryRun)
	}
	if opts.Display != nil {
		deps.Renderer = cv.NewAnnotator(settings.Display.Scale, opts.Display)
	}

	s.Loop, err = bot.New(settings.Engine, deps)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Logger.InfoWithContext("Session ready", map[string]interface{}{
		"settings":  path,
		"templates": settings.Engine.TemplateDir,
		"dry_run":   settings.Engine.DryRun,
	})
	return s, nil
}

// DefaultClicker returns the OS pointer backend, or a Recorder when dryRun
// is set so nothing on the desktop is touched
func DefaultClicker(dryRun bool) input.Clicker {
	if dryRun {
		return input.NewRecorder()
	}
	return input.NewClicker()
}

// journalError copies escalated errors into the session error log
func (s *Session) journalError(report *logging.ErrorReport) {
	if s.Journal == nil {
		return
	}

	var text *string
	if report.Error != nil {
		msg := report.Error.Error()
		text = &msg
	}

	if _, err := s.Journal.LogError(string(report.Category), string(report.Severity), report.Message, text, report.Recoverable, report.Timestamp); err != nil {
		s.Logger.Debug(fmt.Sprintf("Failed to journal error: %v", err))
	}
}

// Close stops the loop and releases everything the session opened. It is
// safe to call on a partially built session.
func (s *Session) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.Loop != nil {
		keep(s.Loop.Stop())
	}
	if s.eventLogger != nil {
		keep(s.eventLogger.Close())
	}
	if s.Bus != nil {
		s.Bus.Stop()
	}
	if s.Journal != nil {
		keep(s.Journal.Close())
	}
	if s.logCloser != nil {
		keep(s.logCloser.Close())
	}
	return firstErr
}
