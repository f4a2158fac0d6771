package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dori/focuscycle/internal/db"
	"github.com/dori/focuscycle/internal/engine"
	"github.com/dori/focuscycle/internal/model"
	"github.com/dori/focuscycle/internal/session"
)

var at = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestObserveFinished(t *testing.T) {
	r := NewRecorder(nil, nil)

	require.Nil(t, r.Observe(engine.Event{Kind: engine.EventTick, Total: 45 * time.Minute}))
	rec := r.Observe(engine.Event{
		Kind:     engine.EventFinished,
		Stage:    session.Focus(1),
		Total:    45 * time.Minute,
		Extended: true,
		At:       at,
	})
	require.NotNil(t, rec)
	require.Equal(t, "focus", rec.Kind)
	require.Equal(t, 1, rec.Breaks)
	require.Equal(t, "Focus Session 2", rec.Label)
	require.Equal(t, 2700, rec.PlannedSeconds)
	require.Equal(t, 2700, rec.ElapsedSeconds)
	require.True(t, rec.Completed)
	require.True(t, rec.Extended)
	require.Equal(t, at.Add(-45*time.Minute), rec.StartedAt)
	require.Equal(t, at, rec.EndedAt)
}

func TestObserveSkipped(t *testing.T) {
	r := NewRecorder(nil, nil)
	r.Observe(engine.Event{Kind: engine.EventTick, Stage: session.ShortBreak(0), Total: 5 * time.Minute})

	rec := r.Observe(engine.Event{
		Kind:     engine.EventStageChanged,
		Stage:    session.Focus(1),
		Previous: session.ShortBreak(0),
		Elapsed:  time.Minute,
		Skipped:  true,
		At:       at,
	})
	require.NotNil(t, rec)
	require.Equal(t, "short_break", rec.Kind)
	require.Equal(t, 300, rec.PlannedSeconds)
	require.Equal(t, 60, rec.ElapsedSeconds)
	require.False(t, rec.Completed)
}

func TestObserveIgnoresPlainTransitions(t *testing.T) {
	r := NewRecorder(nil, nil)
	require.Nil(t, r.Observe(engine.Event{Kind: engine.EventStageChanged, Stage: session.ShortBreak(0)}))
	require.Nil(t, r.Observe(engine.Event{Kind: engine.EventTick}))
}

type failingStore struct{ calls int }

func (s *failingStore) RecordStage(*model.StageRecord) error {
	s.calls++
	return errors.New("disk full")
}

func TestRunKeepsGoingAfterStoreErrors(t *testing.T) {
	store := &failingStore{}
	r := NewRecorder(store, nil)
	b := engine.NewBroadcaster()
	sub := b.Subscribe(8)

	b.Publish(engine.Event{Kind: engine.EventFinished, Stage: session.Focus(0), Total: time.Minute, At: at})
	b.Publish(engine.Event{Kind: engine.EventFinished, Stage: session.ShortBreak(0), Total: time.Minute, At: at})
	b.Close()

	r.Run(sub)
	require.Equal(t, 2, store.calls)
}

func TestRunWritesToDatabase(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer database.Close()

	r := NewRecorder(database, nil)
	b := engine.NewBroadcaster()
	sub := b.Subscribe(8)

	b.Publish(engine.Event{Kind: engine.EventTick, Stage: session.Focus(0), Total: 45 * time.Minute, At: at})
	b.Publish(engine.Event{Kind: engine.EventFinished, Stage: session.Focus(0), Total: 45 * time.Minute, At: at})
	b.Close()
	r.Run(sub)

	count, err := database.CompletedFocusSince(at.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
