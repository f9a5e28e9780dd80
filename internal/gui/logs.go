package gui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/sun-clicker/internal/events"
	"jordanella.com/sun-clicker/internal/logging"
)

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time
	Level     logging.LogLevel
	Source    string
	Message   string
}

// LogTab displays engine events
type LogTab struct {
	bus           events.EventBus
	subscriptions []events.SubscriptionID

	// Log storage
	logs    []LogEntry
	logsMu  sync.RWMutex
	maxLogs int

	// Widgets
	logList         *widget.List
	filterSelect    *widget.Select
	autoScrollCheck *widget.Check
}

// NewLogTab creates a log tab fed by every engine event on bus
func NewLogTab(bus events.EventBus) *LogTab {
	tab := &LogTab{
		bus:     bus,
		logs:    make([]LogEntry, 0, 1000),
		maxLogs: 1000,
	}

	if bus != nil {
		for _, eventType := range events.AllEventTypes {
			tab.subscriptions = append(tab.subscriptions, bus.Subscribe(eventType, tab.handleEvent))
		}
	}

	return tab
}

func (l *LogTab) handleEvent(ev events.Event) {
	level, message := DescribeEvent(ev)
	l.addEntry(LogEntry{Timestamp: ev.Timestamp, Level: level, Source: ev.Source, Message: message})
}

// Build constructs the log viewer UI
func (l *LogTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Event Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	l.filterSelect = widget.NewSelect(
		[]string{"All", "DEBUG", "INFO", "WARN", "ERROR"},
		func(selected string) {
			if l.logList != nil {
				l.logList.Refresh()
			}
		},
	)
	l.filterSelect.PlaceHolder = "All"

	l.autoScrollCheck = widget.NewCheck("Auto-scroll", nil)
	l.autoScrollCheck.SetChecked(true)

	clearBtn := widget.NewButton("Clear", func() {
		l.ClearLogs()
	})

	controls := container.NewHBox(
		widget.NewLabel("Filter:"),
		l.filterSelect,
		l.autoScrollCheck,
		clearBtn,
	)

	l.logList = widget.NewList(
		func() int {
			return len(l.filtered())
		},
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("timestamp"),
				widget.NewLabel("level"),
				widget.NewLabel("message"),
			)
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			entries := l.filtered()
			if id < 0 || id >= len(entries) {
				return
			}
			entry := entries[id]

			box := item.(*fyne.Container)
			box.Objects[0].(*widget.Label).SetText(entry.Timestamp.Format("15:04:05"))

			levelLabel := box.Objects[1].(*widget.Label)
			levelLabel.SetText(fmt.Sprintf("[%s]", entry.Level))
			switch entry.Level {
			case logging.LogLevelDebug:
				levelLabel.Importance = widget.LowImportance
			case logging.LogLevelWarn:
				levelLabel.Importance = widget.WarningImportance
			case logging.LogLevelError, logging.LogLevelFatal:
				levelLabel.Importance = widget.DangerImportance
			default:
				levelLabel.Importance = widget.MediumImportance
			}

			box.Objects[2].(*widget.Label).SetText(entry.Message)
		},
	)

	return container.NewBorder(
		container.NewVBox(header, controls),
		nil,
		nil,
		nil,
		l.logList,
	)
}

// addEntry stores an entry and schedules a list refresh on the UI goroutine
func (l *LogTab) addEntry(entry LogEntry) {
	l.logsMu.Lock()
	l.logs = append(l.logs, entry)
	if len(l.logs) > l.maxLogs {
		l.logs = l.logs[len(l.logs)-l.maxLogs:]
	}
	l.logsMu.Unlock()

	if l.logList != nil {
		fyne.Do(func() {
			l.logList.Refresh()
			if l.autoScrollCheck != nil && l.autoScrollCheck.Checked {
				l.logList.ScrollToBottom()
			}
		})
	}
}

// Entries returns a copy of all stored entries
func (l *LogTab) Entries() []LogEntry {
	l.logsMu.RLock()
	defer l.logsMu.RUnlock()

	out := make([]LogEntry, len(l.logs))
	copy(out, l.logs)
	return out
}

// ClearLogs removes all log entries
func (l *LogTab) ClearLogs() {
	l.logsMu.Lock()
	l.logs = make([]LogEntry, 0, 1000)
	l.logsMu.Unlock()

	if l.logList != nil {
		l.logList.Refresh()
	}
}

// Close unsubscribes from the bus
func (l *LogTab) Close() {
	for _, id := range l.subscriptions {
		l.bus.Unsubscribe(id)
	}
	l.subscriptions = nil
}

// filtered returns the entries matching the selected level
func (l *LogTab) filtered() []LogEntry {
	selected := "All"
	if l.filterSelect != nil && l.filterSelect.Selected != "" {
		selected = l.filterSelect.Selected
	}

	l.logsMu.RLock()
	defer l.logsMu.RUnlock()

	if selected == "All" {
		return l.logs
	}

	var out []LogEntry
	for _, entry := range l.logs {
		if string(entry.Level) == selected {
			out = append(out, entry)
		}
	}
	return out
}
