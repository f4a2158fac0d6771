package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/focuscycle/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)

	version, err := db.Version(context.Background())
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version < 1 {
		t.Fatalf("Expected schema version >= 1, got %d", version)
	}

	// reopening an up-to-date database is a no-op
	path := filepath.Join(t.TempDir(), "again.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	first.Close()
	second, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	second.Close()
}

func TestRecordStageAssignsID(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	r := &model.StageRecord{
		Kind:           "focus",
		Label:          "Focus Session 1",
		PlannedSeconds: 2700,
		ElapsedSeconds: 2700,
		Completed:      true,
		StartedAt:      start,
		EndedAt:        start.Add(45 * time.Minute),
	}
	if err := db.RecordStage(r); err != nil {
		t.Fatalf("Failed to record stage: %v", err)
	}
	if r.ID == "" {
		t.Fatal("Expected an ID to be assigned")
	}

	records, err := db.RecentRecords(10)
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.ID != r.ID || got.Kind != "focus" || !got.Completed || got.Extended {
		t.Errorf("Unexpected record: %+v", got)
	}
	if !got.EndedAt.Equal(r.EndedAt) {
		t.Errorf("Expected ended_at %v, got %v", r.EndedAt, got.EndedAt)
	}
	if got.Duration() != 45*time.Minute {
		t.Errorf("Expected 45m duration, got %v", got.Duration())
	}
}

func TestRecentRecordsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	kinds := []string{"focus", "short_break", "focus", "long_break"}
	for i, kind := range kinds {
		end := base.Add(time.Duration(i+1) * time.Hour)
		if err := db.RecordStage(&model.StageRecord{
			Kind:      kind,
			Label:     kind,
			StartedAt: end.Add(-time.Minute),
			EndedAt:   end,
		}); err != nil {
			t.Fatalf("Failed to record stage: %v", err)
		}
	}

	records, err := db.RecentRecords(2)
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Kind != "long_break" || records[1].Kind != "focus" {
		t.Errorf("Unexpected order: %s, %s", records[0].Kind, records[1].Kind)
	}
}

func TestDaySummaryAndFocusCount(t *testing.T) {
	db := openTestDB(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	add := func(kind string, completed bool, end time.Time, elapsed int) {
		t.Helper()
		if err := db.RecordStage(&model.StageRecord{
			Kind:           kind,
			Label:          kind,
			ElapsedSeconds: elapsed,
			Completed:      completed,
			StartedAt:      end.Add(-time.Duration(elapsed) * time.Second),
			EndedAt:        end,
		}); err != nil {
			t.Fatalf("Failed to record stage: %v", err)
		}
	}

	add("focus", true, day.Add(10*time.Hour), 2700)
	add("short_break", true, day.Add(10*time.Hour+5*time.Minute), 300)
	add("focus", false, day.Add(11*time.Hour), 600)
	add("focus", true, day.Add(-time.Hour), 2700) // previous day

	summary, err := db.DaySummary(day.Add(12 * time.Hour))
	if err != nil {
		t.Fatalf("Failed to summarize: %v", err)
	}
	if summary.FocusCompleted != 1 {
		t.Errorf("Expected 1 completed focus session, got %d", summary.FocusCompleted)
	}
	if summary.FocusTime != 3300*time.Second {
		t.Errorf("Expected 55m focus time, got %v", summary.FocusTime)
	}
	if summary.BreakTime != 5*time.Minute {
		t.Errorf("Expected 5m break time, got %v", summary.BreakTime)
	}

	count, err := db.CompletedFocusSince(day.Add(-2 * time.Hour))
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 completed focus sessions, got %d", count)
	}

	between, err := db.RecordsBetween(day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(between) != 3 {
		t.Errorf("Expected 3 records for the day, got %d", len(between))
	}
}

func TestDeleteRecordsBefore(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{time.Hour, 48 * time.Hour, 240 * time.Hour} {
		if err := db.RecordStage(&model.StageRecord{
			Kind:      "focus",
			Label:     "Focus Session 1",
			StartedAt: now.Add(-age - time.Minute),
			EndedAt:   now.Add(-age),
		}); err != nil {
			t.Fatalf("Failed to record stage: %v", err)
		}
	}

	removed, err := db.DeleteRecordsBefore(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Failed to prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 rows removed, got %d", removed)
	}
}

// Scanning must finish before another query runs; with SetMaxOpenConns(1) an
// open rows cursor holds the only connection.
func TestQueriesAfterScanNoDeadlock(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if err := db.RecordStage(&model.StageRecord{
			Kind: "focus", Label: "Focus Session 1", StartedAt: now, EndedAt: now,
		}); err != nil {
			t.Fatalf("Failed to record stage: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		records, err := db.RecentRecords(5)
		if err != nil {
			done <- err
			return
		}
		for _, r := range records {
			if _, err := db.CompletedFocusSince(r.StartedAt); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}
}

func TestOpenDirUsesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("Failed to open data dir: %v", err)
	}
	defer db.Close()

	if Path(dir) != filepath.Join(dir, "focuscycle.db") {
		t.Errorf("Unexpected database path %s", Path(dir))
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Errorf("Expected database file to exist: %v", err)
	}
}

func TestScanRejectsUnknownKind(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	if err := db.RecordStage(&model.StageRecord{
		Kind: "nap", Label: "Nap", StartedAt: now, EndedAt: now,
	}); err != nil {
		t.Fatalf("Failed to record stage: %v", err)
	}

	if _, err := db.RecentRecords(5); err == nil {
		t.Error("Expected an error for an unknown stage kind")
	}
}
