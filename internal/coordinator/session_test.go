package coordinator

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"jordanella.com/sun-clicker/internal/cv"
	"jordanella.com/sun-clicker/internal/input"
	"jordanella.com/sun-clicker/internal/logging"
	"jordanella.com/sun-clicker/pkg/templates"
)

type blankSource struct{}

func (blankSource) Regions() ([]cv.Region, error) {
	return []cv.Region{
		{Index: 0, Bounds: image.Rect(0, 0, 64, 64)},
		{Index: 1, Bounds: image.Rect(0, 0, 64, 64)},
	}, nil
}

func (blankSource) Capture(int) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 64, 64)), nil
}

func writeSettings(t *testing.T, dir, templateDir string) string {
	t.Helper()
	path := filepath.Join(dir, "Settings.ini")
	content := fmt.Sprintf(`[Engine]
TemplateDir = %s
DryRun = true

[Logging]
LogLevel = DEBUG
LogDir = %s
EventLog = true
`, templateDir, filepath.Join(dir, "logs"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}

func newTestSession(t *testing.T, templateDir string) *Session {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Options{
		SettingsPath: writeSettings(t, dir, templateDir),
		Source:       blankSource{},
		Clicker:      input.NewRecorder(),
		Console:      io.Discard,
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t, t.TempDir())

	if !s.Settings.Engine.DryRun {
		t.Error("Expected DryRun from settings file")
	}
	if s.Loop == nil || s.Journal == nil || s.Health == nil {
		t.Fatal("Expected loop, journal and health checker to be wired")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(s.SettingsPath), "logs", logging.FileName)); err != nil {
		t.Errorf("Expected rotating log file to be created: %v", err)
	}
}

func TestSessionJournalsEscalatedErrors(t *testing.T) {
	s := newTestSession(t, t.TempDir())

	s.Reporter.ReportError(logging.ErrorCategoryCapture, logging.ErrorSeverityHigh, "capture failed", errors.New("no display"), nil)
	s.Reporter.ReportError(logging.ErrorCategoryClick, logging.ErrorSeverityLow, "click dropped", nil, nil)

	logged, err := s.Journal.GetRecentErrors(10)
	if err != nil {
		t.Fatalf("Failed to read error log: %v", err)
	}
	if len(logged) != 1 {
		t.Fatalf("Expected only the high severity error to be journaled, got %d", len(logged))
	}
	if logged[0].Category != string(logging.ErrorCategoryCapture) {
		t.Errorf("Expected capture category, got %s", logged[0].Category)
	}
	if logged[0].ErrorText == nil || *logged[0].ErrorText != "no display" {
		t.Errorf("Expected error text to be kept, got %v", logged[0].ErrorText)
	}
}

func TestSessionStartWithoutTemplates(t *testing.T) {
	s := newTestSession(t, t.TempDir())

	err := s.Loop.Start()
	if !errors.Is(err, templates.ErrNoTemplates) {
		t.Fatalf("Expected ErrNoTemplates, got %v", err)
	}
}

func TestDefaultClicker(t *testing.T) {
	if _, ok := DefaultClicker(true).(*input.Recorder); !ok {
		t.Error("Expected a Recorder in dry-run mode")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newTestSession(t, t.TempDir())
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close session: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}
