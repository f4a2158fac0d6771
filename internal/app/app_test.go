package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dori/focuscycle/internal/clock"
	"github.com/dori/focuscycle/internal/config"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Notify = false
	return cfg
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg, Options{})
	require.NoError(t, err)
	defer first.Close()

	_, err = New(cfg, Options{})
	require.ErrorContains(t, err, "already running")
}

func TestFinishedStageIsRecorded(t *testing.T) {
	cfg := testConfig(t)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := clock.NewFake(start)

	a, err := New(cfg, Options{Clock: fake})
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	a.Start(ctx)
	require.NoError(t, a.Controller.Start(ctx, 2))

	fake.Advance(time.Second)
	require.Eventually(t, func() bool { return fake.Waiters() == 1 }, 2*time.Second, 5*time.Millisecond)
	fake.Advance(time.Second)

	require.Eventually(t, func() bool {
		n, err := a.DB.CompletedFocusSince(start.Add(-time.Hour))
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	records, err := a.DB.RecentRecords(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Focus Session 1", records[0].Label)
	require.Equal(t, 2, records[0].ElapsedSeconds)
}

func TestDebugLogGoesToDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Debug = true

	a, err := New(cfg, Options{Clock: clock.NewFake(time.Now())})
	require.NoError(t, err)
	a.Start(context.Background())
	require.NoError(t, a.Close())

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "focuscycle.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "engine:")
	require.Contains(t, string(data), "at schema version 1")
}

func TestCloseWithoutStart(t *testing.T) {
	a, err := New(testConfig(t), Options{})
	require.NoError(t, err)
	require.NoError(t, a.Close())
}
