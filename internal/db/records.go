package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dori/focuscycle/internal/model"
	"github.com/dori/focuscycle/internal/session"
	"github.com/google/uuid"
)

// RecordStage stores a finished, skipped or stopped countdown. The record's
// ID is assigned here when empty.
func (db *DB) RecordStage(r *model.StageRecord) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	_, err := db.Exec(`
		INSERT INTO stage_records (id, kind, breaks, label, planned_seconds, elapsed_seconds,
		                           completed, extended, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Kind, r.Breaks, r.Label, r.PlannedSeconds, r.ElapsedSeconds,
		r.Completed, r.Extended, r.StartedAt.UTC(), r.EndedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record stage: %w", err)
	}
	return nil
}

// RecentRecords returns the newest n records, newest first
func (db *DB) RecentRecords(n int) ([]model.StageRecord, error) {
	if n <= 0 {
		n = 20
	}

	rows, err := db.Query(`
		SELECT id, kind, breaks, label, planned_seconds, elapsed_seconds,
		       completed, extended, started_at, ended_at
		FROM stage_records
		ORDER BY ended_at DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// RecordsBetween returns records that ended in [from, to), oldest first
func (db *DB) RecordsBetween(from, to time.Time) ([]model.StageRecord, error) {
	rows, err := db.Query(`
		SELECT id, kind, breaks, label, planned_seconds, elapsed_seconds,
		       completed, extended, started_at, ended_at
		FROM stage_records
		WHERE ended_at >= ? AND ended_at < ?
		ORDER BY ended_at
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CompletedFocusSince counts focus sessions that ran to the end after since
func (db *DB) CompletedFocusSince(since time.Time) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM stage_records
		WHERE kind = 'focus' AND completed = 1 AND ended_at >= ?
	`, since.UTC()).Scan(&count)
	return count, err
}

// DaySummary totals the records of the day containing day, in day's location
func (db *DB) DaySummary(day time.Time) (*model.Summary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	summary := &model.Summary{Day: start}

	err := db.Transaction(func(tx *sql.Tx) error {
		var focusSeconds, breakSeconds int
		err := tx.QueryRow(`
			SELECT COALESCE(SUM(CASE WHEN kind = 'focus' THEN elapsed_seconds END), 0),
			       COALESCE(SUM(CASE WHEN kind != 'focus' THEN elapsed_seconds END), 0)
			FROM stage_records
			WHERE ended_at >= ? AND ended_at < ?
		`, start.UTC(), end.UTC()).Scan(&focusSeconds, &breakSeconds)
		if err != nil {
			return err
		}
		summary.FocusTime = time.Duration(focusSeconds) * time.Second
		summary.BreakTime = time.Duration(breakSeconds) * time.Second

		return tx.QueryRow(`
			SELECT COUNT(*) FROM stage_records
			WHERE kind = 'focus' AND completed = 1 AND ended_at >= ? AND ended_at < ?
		`, start.UTC(), end.UTC()).Scan(&summary.FocusCompleted)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize day: %w", err)
	}
	return summary, nil
}

// DeleteRecordsBefore prunes history older than before and returns the number
// of rows removed
func (db *DB) DeleteRecordsBefore(before time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM stage_records WHERE ended_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRecords(rows *sql.Rows) ([]model.StageRecord, error) {
	var records []model.StageRecord
	for rows.Next() {
		var r model.StageRecord
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.Breaks, &r.Label, &r.PlannedSeconds, &r.ElapsedSeconds,
			&r.Completed, &r.Extended, &r.StartedAt, &r.EndedAt,
		); err != nil {
			return nil, err
		}
		if _, err := session.ParseKind(r.Kind); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
