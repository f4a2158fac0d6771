package model

import (
	"time"
)

// StageRecord is one countdown run in the history log. A stage that was
// extended produces one record per countdown.
type StageRecord struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"` // focus, short_break, long_break
	Breaks         int       `json:"breaks"`
	Label          string    `json:"label"`
	PlannedSeconds int       `json:"planned_seconds"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Completed      bool      `json:"completed"` // false when skipped or stopped
	Extended       bool      `json:"extended"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
}

// Duration returns the time actually spent in the stage
func (r *StageRecord) Duration() time.Duration {
	return time.Duration(r.ElapsedSeconds) * time.Second
}

// Summary aggregates the history for one day
type Summary struct {
	Day            time.Time     `json:"day"`
	FocusCompleted int           `json:"focus_completed"`
	FocusTime      time.Duration `json:"focus_time"`
	BreakTime      time.Duration `json:"break_time"`
}
