package gui

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"jordanella.com/sun-clicker/internal/database"
	"jordanella.com/sun-clicker/internal/gui/components"
	"jordanella.com/sun-clicker/pkg/templates"
)

// SessionJournal is the read side of the click journal
type SessionJournal interface {
	DetectionCounts() ([]templates.DetectionStat, error)
	ClicksPerRegion() ([]database.RegionClicks, error)
	GetRecentClicks(limit int) ([]*database.ClickRecord, error)
	ClickRate(since time.Time, now time.Time) (float64, error)
}

const recentClickRows = 15

// SessionTab shows per-template and per-region click totals for this session
type SessionTab struct {
	journal SessionJournal

	rateLabel    *widget.Label
	templateText *widget.RichText
	regionText   *widget.RichText
	recentList   *widget.List
	recent       []*database.ClickRecord
}

// NewSessionTab creates a session tab over journal
func NewSessionTab(journal SessionJournal) *SessionTab {
	return &SessionTab{journal: journal}
}

// Build constructs the session UI
func (s *SessionTab) Build() fyne.CanvasObject {
	s.rateLabel = widget.NewLabel("")
	s.templateText = components.Monospace("")
	s.regionText = components.Monospace("")

	s.recentList = widget.NewList(
		func() int { return len(s.recent) },
		func() fyne.CanvasObject { return widget.NewLabel("00:00:00 template (0000,0000) 0.00") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < 0 || id >= len(s.recent) {
				return
			}
			c := s.recent[id]
			item.(*widget.Label).SetText(fmt.Sprintf("%s %s (%d,%d) %.2f region %d",
				c.ClickedAt.Format("15:04:05"), c.Template, c.X, c.Y, c.Confidence, c.Region))
		},
	)

	refreshBtn := widget.NewButton("Refresh", func() { s.Refresh() })

	s.Refresh()

	top := container.NewVBox(
		container.NewHBox(components.Subheading("Session"), refreshBtn),
		s.rateLabel,
		components.Section("Detections by template", s.templateText),
		components.Section("Clicks by region", s.regionText),
		components.Subheading("Recent clicks"),
	)
	return container.NewBorder(top, nil, nil, nil, s.recentList)
}

// Refresh reloads all journal views. Must run on the UI goroutine.
func (s *SessionTab) Refresh() {
	if s.rateLabel == nil || s.journal == nil {
		return
	}

	now := time.Now()
	if rate, err := s.journal.ClickRate(now.Add(-time.Minute), now); err == nil {
		s.rateLabel.SetText(fmt.Sprintf("Clicks per minute: %.1f", rate))
	}

	if stats, err := s.journal.DetectionCounts(); err == nil {
		setMonospace(s.templateText, FormatDetections(stats))
	}

	if regions, err := s.journal.ClicksPerRegion(); err == nil {
		setMonospace(s.regionText, FormatRegionClicks(regions))
	}

	if recent, err := s.journal.GetRecentClicks(recentClickRows); err == nil {
		s.recent = recent
		s.recentList.Refresh()
	}
}

// FormatDetections renders one line per template, most detected first
func FormatDetections(stats []templates.DetectionStat) string {
	if len(stats) == 0 {
		return "No detections yet"
	}
	var b strings.Builder
	for i, st := range stats {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-24s %6d", st.Name, st.Count)
	}
	return b.String()
}

// FormatRegionClicks renders one line per region
func FormatRegionClicks(regions []database.RegionClicks) string {
	if len(regions) == 0 {
		return "No clicks yet"
	}
	var b strings.Builder
	for i, r := range regions {
		if i > 0 {
			b.WriteByte('\n')
		}
		name := fmt.Sprintf("Region %d", r.Region)
		if r.Region == 0 {
			name = "All screens"
		}
		fmt.Fprintf(&b, "%-24s %6d", name, r.Clicks)
	}
	return b.String()
}

func setMonospace(rt *widget.RichText, text string) {
	if len(rt.Segments) == 0 {
		return
	}
	if seg, ok := rt.Segments[0].(*widget.TextSegment); ok {
		seg.Text = text
		rt.Refresh()
	}
}
