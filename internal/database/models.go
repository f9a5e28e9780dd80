package database

import (
	"time"
)

// ClickRecord is one accepted click
type ClickRecord struct {
	ID         int64     `db:"id"`
	Template   string    `db:"template_name"`
	X          int       `db:"x"`
	Y          int       `db:"y"`
	Confidence float64   `db:"confidence"`
	Region     int       `db:"region"`
	ClickedAt  time.Time `db:"clicked_at"`
}

// RegionClicks is the click total for one capture region
type RegionClicks struct {
	Region int
	Clicks int
}

// ErrorLog represents an error reported during the session
type ErrorLog struct {
	ID          int64     `db:"id"`
	Category    string    `db:"category"`
	Severity    string    `db:"severity"`
	Message     string    `db:"message"`
	ErrorText   *string   `db:"error_text"`
	Recoverable bool      `db:"recoverable"`
	OccurredAt  time.Time `db:"occurred_at"`
}
