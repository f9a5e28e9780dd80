package database

import (
	"fmt"
	"time"

	"jordanella.com/sun-clicker/pkg/templates"
)

// Click journal operations

// RecordClick stores an accepted click
func (db *DB) RecordClick(template string, x, y int, confidence float64, region int, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO clicks (template_name, x, y, confidence, region, clicked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, template, x, y, confidence, region, at)
	if err != nil {
		return fmt.Errorf("failed to insert click: %w", err)
	}
	return nil
}

// ClickCount returns the number of journaled clicks
func (db *DB) ClickCount() (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM clicks`).Scan(&count)
	return count, err
}

// DetectionCounts returns clicks per template, most clicked first. Priority
// is not known to the journal and is left zero.
func (db *DB) DetectionCounts() ([]templates.DetectionStat, error) {
	rows, err := db.conn.Query(`
		SELECT template_name, COUNT(*) AS n
		FROM clicks
		GROUP BY template_name
		ORDER BY n DESC, template_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []templates.DetectionStat{}
	for rows.Next() {
		var s templates.DetectionStat
		if err := rows.Scan(&s.Name, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// ClicksPerRegion returns click totals grouped by capture region
func (db *DB) ClicksPerRegion() ([]RegionClicks, error) {
	rows, err := db.conn.Query(`
		SELECT region, COUNT(*)
		FROM clicks
		GROUP BY region
		ORDER BY region
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RegionClicks{}
	for rows.Next() {
		var rc RegionClicks
		if err := rows.Scan(&rc.Region, &rc.Clicks); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}

	return out, rows.Err()
}

// GetRecentClicks returns the latest clicks, newest first
func (db *DB) GetRecentClicks(limit int) ([]*ClickRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT id, template_name, x, y, confidence, region, clicked_at
		FROM clicks
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clicks := []*ClickRecord{}
	for rows.Next() {
		c := &ClickRecord{}
		if err := rows.Scan(&c.ID, &c.Template, &c.X, &c.Y, &c.Confidence, &c.Region, &c.ClickedAt); err != nil {
			return nil, err
		}
		clicks = append(clicks, c)
	}

	return clicks, rows.Err()
}

// ClickRate returns clicks per minute since the given time
func (db *DB) ClickRate(since time.Time, now time.Time) (float64, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM clicks WHERE clicked_at >= ?`, since).Scan(&count)
	if err != nil {
		return 0, err
	}
	minutes := now.Sub(since).Minutes()
	if minutes <= 0 {
		return 0, nil
	}
	return float64(count) / minutes, nil
}
