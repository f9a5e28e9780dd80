package input

import (
	"errors"
	"image"
	"testing"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	if err := r.Click(10, 20); err != nil {
		t.Fatalf("Failed to click: %v", err)
	}
	if err := r.Click(30, 40); err != nil {
		t.Fatalf("Failed to click: %v", err)
	}

	clicks := r.Clicks()
	if r.Count() != 2 || clicks[1].Point != image.Pt(30, 40) {
		t.Errorf("Unexpected clicks %+v", clicks)
	}
}

func TestRecorderFailure(t *testing.T) {
	r := NewRecorder()
	cause := errors.New("input blocked")
	r.FailWith(cause)

	err := r.Click(5, 5)
	var clickErr *ClickError
	if !errors.As(err, &clickErr) || clickErr.X != 5 || !errors.Is(err, cause) {
		t.Errorf("Expected ClickError wrapping cause, got %v", err)
	}
	if r.Count() != 0 {
		t.Error("Expected failed click not to be recorded")
	}

	r.FailWith(nil)
	if err := r.Click(5, 5); err != nil {
		t.Errorf("Expected clicks to succeed again, got %v", err)
	}
}
