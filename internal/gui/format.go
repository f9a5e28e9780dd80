package gui

import (
	"fmt"
	"strings"

	"jordanella.com/sun-clicker/internal/bot"
	"jordanella.com/sun-clicker/internal/events"
	"jordanella.com/sun-clicker/internal/logging"
)

// Engine is the control surface the panel drives
type Engine interface {
	Start() error
	Stop() error
	Status() bot.Status
	TogglePause() bool
	CycleRegion() int
	SetConfidenceThreshold(v float64)
	SetEarlyExit(enabled bool)
	SetDebugVisible(visible bool)
	Config() bot.Config
	Reconfigure(cfg bot.Config) error
}

// StatusLines renders a status snapshot for the panel labels
func StatusLines(s bot.Status) (state, region, stats string) {
	state = strings.ToUpper(string(s.State))
	if s.Err != nil {
		state += " (error)"
	}

	if s.RegionCount > 0 {
		region = fmt.Sprintf("Region %d of %d", s.RegionIndex, s.RegionCount)
	} else {
		region = fmt.Sprintf("Region %d", s.RegionIndex)
	}

	stats = fmt.Sprintf("Templates: %d | Clicks: %d | FPS: %.1f", s.TemplateCount, s.Clicks, s.FPS)
	return state, region, stats
}

// ClampConfidence bounds a slider value to the panel range
func ClampConfidence(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// DescribeEvent turns an engine event into a log line and its level
func DescribeEvent(ev events.Event) (logging.LogLevel, string) {
	d := ev.Data
	switch ev.Type {
	case events.EventTypeClick:
		return logging.LogLevelInfo, fmt.Sprintf("Clicked %v at (%v,%v) conf %.2f, total %v",
			d["template"], d["x"], d["y"], toFloat(d["confidence"]), d["total"])
	case events.EventTypeStateChanged:
		return logging.LogLevelInfo, fmt.Sprintf("Engine %v -> %v (%v)", d["from"], d["to"], d["reason"])
	case events.EventTypeCaptureFailed:
		return logging.LogLevelWarn, fmt.Sprintf("Capture failed on region %v (%v in a row): %v", d["region"], d["consecutive"], d["error"])
	case events.EventTypeFatal:
		return logging.LogLevelError, fmt.Sprintf("Engine stopped: %v", d["error"])
	case events.EventTypeRegionChanged:
		return logging.LogLevelInfo, fmt.Sprintf("Region %v -> %v", d["from"], d["to"])
	case events.EventTypeConfigChanged:
		return logging.LogLevelDebug, fmt.Sprintf("%v = %v", d["key"], d["value"])
	case events.EventTypeScreenFrozen:
		return logging.LogLevelWarn, fmt.Sprintf("Region %v unchanged for %v", d["region"], d["unchanged_for"])
	default:
		return logging.LogLevelDebug, string(ev.Type)
	}
}

func toFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}
