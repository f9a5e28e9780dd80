package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Error logging operations

// LogError creates a new error log entry
func (db *DB) LogError(category, severity, message string, errorText *string, recoverable bool, at time.Time) (int64, error) {
	var errorID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO error_log (category, severity, message, error_text, recoverable, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, category, severity, message, errorText, recoverable, at)

		if err != nil {
			return fmt.Errorf("failed to insert error log: %w", err)
		}

		errorID, err = result.LastInsertId()
		return err
	})

	return errorID, err
}

// GetRecentErrors returns the most recent errors
func (db *DB) GetRecentErrors(limit int) ([]*ErrorLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, category, severity, message, error_text, recoverable, occurred_at
		FROM error_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errors := []*ErrorLog{}
	for rows.Next() {
		errorLog := &ErrorLog{}
		err := rows.Scan(
			&errorLog.ID, &errorLog.Category, &errorLog.Severity, &errorLog.Message,
			&errorLog.ErrorText, &errorLog.Recoverable, &errorLog.OccurredAt,
		)
		if err != nil {
			return nil, err
		}
		errors = append(errors, errorLog)
	}

	return errors, rows.Err()
}

// GetErrorStatsByCategory returns error counts grouped by category
func (db *DB) GetErrorStatsByCategory() (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT category, COUNT(*)
		FROM error_log
		GROUP BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats[category] = count
	}

	return stats, rows.Err()
}
