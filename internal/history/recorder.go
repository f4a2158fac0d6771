// Package history turns loop events into stage records.
package history

import (
	"io"
	"log"
	"time"

	"github.com/dori/focuscycle/internal/engine"
	"github.com/dori/focuscycle/internal/model"
)

// Store persists stage records
type Store interface {
	RecordStage(r *model.StageRecord) error
}

// Recorder writes a record for every finished or skipped countdown
type Recorder struct {
	store  Store
	logger *log.Logger

	// last countdown seen, used when a stage is skipped
	total    time.Duration
	extended bool
}

// NewRecorder creates a recorder writing to store
func NewRecorder(store Store, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Recorder{store: store, logger: logger}
}

// Run consumes sub until it closes
func (r *Recorder) Run(sub *engine.Subscription) {
	for ev := range sub.Events() {
		if rec := r.Observe(ev); rec != nil {
			if err := r.store.RecordStage(rec); err != nil {
				r.logger.Printf("history: %v", err)
			}
		}
	}
}

// Observe updates the recorder with ev and returns the record it completes,
// if any
func (r *Recorder) Observe(ev engine.Event) *model.StageRecord {
	var rec *model.StageRecord

	switch ev.Kind {
	case engine.EventFinished:
		rec = newRecord(ev.Stage.Kind.String(), ev.Stage.Breaks, ev.Stage.String(), ev.Total, ev.Total, ev.At)
		rec.Completed = true
		rec.Extended = ev.Extended
	case engine.EventStageChanged:
		if ev.Skipped {
			rec = newRecord(ev.Previous.Kind.String(), ev.Previous.Breaks, ev.Previous.String(), r.total, ev.Elapsed, ev.At)
			rec.Extended = r.extended
		}
	}

	r.total = ev.Total
	r.extended = ev.Extended
	return rec
}

func newRecord(kind string, breaks int, label string, planned, elapsed time.Duration, end time.Time) *model.StageRecord {
	return &model.StageRecord{
		Kind:           kind,
		Breaks:         breaks,
		Label:          label,
		PlannedSeconds: int(planned / time.Second),
		ElapsedSeconds: int(elapsed / time.Second),
		StartedAt:      end.Add(-elapsed),
		EndedAt:        end,
	}
}
