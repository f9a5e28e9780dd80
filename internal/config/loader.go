package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"jordanella.com/sun-clicker/internal/bot"
	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/internal/logging"
)

// DefaultPath is where the clicker looks for its settings
const DefaultPath = "Settings.ini"

// Settings is everything read from Settings.ini
type Settings struct {
	Engine  bot.Config
	Logging LoggingSettings
	Monitor MonitorSettings
	Display DisplaySettings
}

type LoggingSettings struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	EventLog   bool // Log every engine event
}

// MonitorSettings controls frozen screen detection
type MonitorSettings struct {
	FrozenCheck     time.Duration
	FrozenThreshold int
	HashDistance    int
}

// DisplaySettings controls the control panel and debug viewer
type DisplaySettings struct {
	Scale         float64
	ConfidenceMin float64
	ConfidenceMax float64
	Poll          time.Duration
}

// NewDefault creates settings with default values
func NewDefault() *Settings {
	return &Settings{
		Engine: bot.DefaultConfig(),
		Logging: LoggingSettings{
			Level:      string(logging.LogLevelInfo),
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			EventLog:   true,
		},
		Monitor: MonitorSettings{
			FrozenCheck:     5 * time.Second,
			FrozenThreshold: 3,
		},
		Display: DisplaySettings{
			Scale:         0.5,
			ConfidenceMin: 0.5,
			ConfidenceMax: 0.95,
			Poll:          500 * time.Millisecond,
		},
	}
}

// Load reads path, falling back to defaults when the file does not exist
func Load(path string, logger *logging.Logger) (*Settings, error) {
	settings, err := LoadFromINI(path)
	if errors.Is(err, os.ErrNotExist) {
		if logger != nil {
			logger.Warn(fmt.Sprintf("%s not found, using defaults", path))
		}
		return NewDefault(), nil
	}
	return settings, err
}

// LoadFromINI loads configuration from a Settings.ini file
func LoadFromINI(path string) (*Settings, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	s := NewDefault()
	e := &s.Engine

	section := cfg.Section("Engine")

	// Templates
	e.TemplateDir = section.Key("TemplateDir").MustString(e.TemplateDir)
	e.TemplatePrefix = section.Key("TemplatePrefix").MustString(e.TemplatePrefix)
	if exts := section.Key("Extensions").String(); exts != "" {
		e.TemplateExtensions = ParseExtensions(exts)
	}

	// Matching
	e.Confidence = section.Key("Confidence").MustFloat64(e.Confidence)
	e.Downscale = section.Key("Downscale").MustFloat64(e.Downscale)
	e.EarlyExit = section.Key("EarlyExit").MustBool(e.EarlyExit)
	e.Parallel = section.Key("Parallel").MustBool(e.Parallel)
	e.Workers = section.Key("Workers").MustInt(e.Workers)
	e.MaxMatches = section.Key("MaxMatches").MustInt(e.MaxMatches)
	if roi := section.Key("ROI").String(); roi != "" {
		r, err := cv.ParseRect(roi)
		if err != nil {
			return nil, fmt.Errorf("invalid ROI: %w", err)
		}
		e.ROI = r
	}

	// Click gating
	e.ClickCooldown = millis(section.Key("ClickCooldownMs").MustInt(ms(e.ClickCooldown)))
	e.DuplicateRadius = section.Key("DuplicateRadius").MustFloat64(e.DuplicateRadius)
	e.DuplicateWindow = millis(section.Key("DuplicateWindowMs").MustInt(ms(e.DuplicateWindow)))
	e.RecentClicks = section.Key("RecentClicks").MustInt(e.RecentClicks)
	e.PostClickDelay = millis(section.Key("PostClickDelayMs").MustInt(ms(e.PostClickDelay)))

	// Pacing
	e.FrameSkip = section.Key("FrameSkip").MustInt(e.FrameSkip)
	e.SkipSleep = millis(section.Key("SkipSleepMs").MustInt(ms(e.SkipSleep)))

	// Failure handling
	e.MaxCaptureFailures = section.Key("MaxCaptureFailures").MustInt(e.MaxCaptureFailures)
	e.CaptureBackoff = millis(section.Key("CaptureBackoffMs").MustInt(ms(e.CaptureBackoff)))
	e.StopTimeout = millis(section.Key("StopTimeoutMs").MustInt(ms(e.StopTimeout)))

	// Startup state
	e.RegionIndex = section.Key("RegionIndex").MustInt(e.RegionIndex)
	e.StartPaused = section.Key("StartPaused").MustBool(e.StartPaused)
	e.Debug = section.Key("Debug").MustBool(e.Debug)
	e.DryRun = section.Key("DryRun").MustBool(e.DryRun)

	section = cfg.Section("Logging")
	s.Logging.Level = section.Key("LogLevel").MustString(s.Logging.Level)
	s.Logging.Dir = section.Key("LogDir").MustString(s.Logging.Dir)
	s.Logging.MaxSizeMB = section.Key("MaxSizeMB").MustInt(s.Logging.MaxSizeMB)
	s.Logging.MaxBackups = section.Key("MaxBackups").MustInt(s.Logging.MaxBackups)
	s.Logging.MaxAgeDays = section.Key("MaxAgeDays").MustInt(s.Logging.MaxAgeDays)
	s.Logging.Compress = section.Key("Compress").MustBool(s.Logging.Compress)
	s.Logging.EventLog = section.Key("EventLog").MustBool(s.Logging.EventLog)

	section = cfg.Section("Monitor")
	s.Monitor.FrozenCheck = time.Duration(section.Key("FrozenCheckSeconds").MustInt(int(s.Monitor.FrozenCheck/time.Second))) * time.Second
	s.Monitor.FrozenThreshold = section.Key("FrozenThreshold").MustInt(s.Monitor.FrozenThreshold)
	s.Monitor.HashDistance = section.Key("HashDistance").MustInt(s.Monitor.HashDistance)

	section = cfg.Section("Display")
	s.Display.Scale = section.Key("DisplayScale").MustFloat64(s.Display.Scale)
	s.Display.ConfidenceMin = section.Key("ConfidenceMin").MustFloat64(s.Display.ConfidenceMin)
	s.Display.ConfidenceMax = section.Key("ConfidenceMax").MustFloat64(s.Display.ConfidenceMax)
	s.Display.Poll = millis(section.Key("PollMs").MustInt(ms(s.Display.Poll)))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects out-of-range values
func (s *Settings) Validate() error {
	if err := s.Engine.Validate(); err != nil {
		return fmt.Errorf("[Engine] %w", err)
	}
	if _, err := logging.ParseLevel(s.Logging.Level); err != nil {
		return fmt.Errorf("[Logging] %w", err)
	}
	if s.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("[Logging] MaxSizeMB must be at least 1, got %d", s.Logging.MaxSizeMB)
	}
	if s.Monitor.FrozenCheck < 0 || s.Monitor.FrozenThreshold < 0 || s.Monitor.HashDistance < 0 {
		return fmt.Errorf("[Monitor] values cannot be negative")
	}
	if s.Display.Scale <= 0 || s.Display.Scale > 1 {
		return fmt.Errorf("[Display] DisplayScale must be in (0,1], got %v", s.Display.Scale)
	}
	if s.Display.ConfidenceMin < 0 || s.Display.ConfidenceMax > 1 || s.Display.ConfidenceMin >= s.Display.ConfidenceMax {
		return fmt.Errorf("[Display] confidence range [%v,%v] is invalid", s.Display.ConfidenceMin, s.Display.ConfidenceMax)
	}
	if s.Display.Poll <= 0 {
		return fmt.Errorf("[Display] PollMs must be positive")
	}
	return nil
}

// SaveToINI saves configuration to an INI file
func SaveToINI(s *Settings, path string) error {
	cfg := ini.Empty()
	e := s.Engine

	section := cfg.Section("Engine")
	section.Key("TemplateDir").SetValue(e.TemplateDir)
	section.Key("TemplatePrefix").SetValue(e.TemplatePrefix)
	section.Key("Extensions").SetValue(strings.Join(e.TemplateExtensions, ","))
	section.Key("Confidence").SetValue(fmt.Sprintf("%.2f", e.Confidence))
	section.Key("Downscale").SetValue(fmt.Sprintf("%g", e.Downscale))
	section.Key("EarlyExit").SetValue(fmt.Sprintf("%t", e.EarlyExit))
	section.Key("Parallel").SetValue(fmt.Sprintf("%t", e.Parallel))
	section.Key("Workers").SetValue(fmt.Sprintf("%d", e.Workers))
	section.Key("MaxMatches").SetValue(fmt.Sprintf("%d", e.MaxMatches))
	section.Key("ROI").SetValue(cv.FormatRect(e.ROI))
	section.Key("ClickCooldownMs").SetValue(fmt.Sprintf("%d", ms(e.ClickCooldown)))
	section.Key("DuplicateRadius").SetValue(fmt.Sprintf("%g", e.DuplicateRadius))
	section.Key("DuplicateWindowMs").SetValue(fmt.Sprintf("%d", ms(e.DuplicateWindow)))
	section.Key("RecentClicks").SetValue(fmt.Sprintf("%d", e.RecentClicks))
	section.Key("PostClickDelayMs").SetValue(fmt.Sprintf("%d", ms(e.PostClickDelay)))
	section.Key("FrameSkip").SetValue(fmt.Sprintf("%d", e.FrameSkip))
	section.Key("SkipSleepMs").SetValue(fmt.Sprintf("%d", ms(e.SkipSleep)))
	section.Key("MaxCaptureFailures").SetValue(fmt.Sprintf("%d", e.MaxCaptureFailures))
	section.Key("CaptureBackoffMs").SetValue(fmt.Sprintf("%d", ms(e.CaptureBackoff)))
	section.Key("StopTimeoutMs").SetValue(fmt.Sprintf("%d", ms(e.StopTimeout)))
	section.Key("RegionIndex").SetValue(fmt.Sprintf("%d", e.RegionIndex))
	section.Key("StartPaused").SetValue(fmt.Sprintf("%t", e.StartPaused))
	section.Key("Debug").SetValue(fmt.Sprintf("%t", e.Debug))
	section.Key("DryRun").SetValue(fmt.Sprintf("%t", e.DryRun))

	section = cfg.Section("Logging")
	section.Key("LogLevel").SetValue(s.Logging.Level)
	section.Key("LogDir").SetValue(s.Logging.Dir)
	section.Key("MaxSizeMB").SetValue(fmt.Sprintf("%d", s.Logging.MaxSizeMB))
	section.Key("MaxBackups").SetValue(fmt.Sprintf("%d", s.Logging.MaxBackups))
	section.Key("MaxAgeDays").SetValue(fmt.Sprintf("%d", s.Logging.MaxAgeDays))
	section.Key("Compress").SetValue(fmt.Sprintf("%t", s.Logging.Compress))
	section.Key("EventLog").SetValue(fmt.Sprintf("%t", s.Logging.EventLog))

	section = cfg.Section("Monitor")
	section.Key("FrozenCheckSeconds").SetValue(fmt.Sprintf("%d", int(s.Monitor.FrozenCheck/time.Second)))
	section.Key("FrozenThreshold").SetValue(fmt.Sprintf("%d", s.Monitor.FrozenThreshold))
	section.Key("HashDistance").SetValue(fmt.Sprintf("%d", s.Monitor.HashDistance))

	section = cfg.Section("Display")
	section.Key("DisplayScale").SetValue(fmt.Sprintf("%g", s.Display.Scale))
	section.Key("ConfidenceMin").SetValue(fmt.Sprintf("%g", s.Display.ConfidenceMin))
	section.Key("ConfidenceMax").SetValue(fmt.Sprintf("%g", s.Display.ConfidenceMax))
	section.Key("PollMs").SetValue(fmt.Sprintf("%d", ms(s.Display.Poll)))

	return cfg.SaveTo(path)
}

// ParseExtensions splits a comma separated list into lowercase dotted
// extensions
func ParseExtensions(s string) []string {
	var exts []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		exts = append(exts, part)
	}
	return exts
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func ms(d time.Duration) int {
	return int(d / time.Millisecond)
}
