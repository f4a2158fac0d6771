package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, 45, cfg.FocusMinutes)
	require.Equal(t, 5, cfg.ShortBreakMinutes)
	require.Equal(t, 15, cfg.LongBreakMinutes)
	require.Equal(t, 5, cfg.ExtendMinutes)
	require.Equal(t, 3, cfg.LongBreakAfter)
	require.True(t, cfg.Notify)
	require.False(t, cfg.AutoAdvance)
	require.Equal(t, time.Second, cfg.TickInterval)
	require.NotEmpty(t, cfg.DataDir)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`focus_minutes: 25
short_break_minutes: 3
auto_advance: true
notify: false
tick_interval: 500ms
data_dir: /tmp/focus
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.FocusMinutes)
	require.Equal(t, 3, cfg.ShortBreakMinutes)
	require.Equal(t, 15, cfg.LongBreakMinutes)
	require.True(t, cfg.AutoAdvance)
	require.False(t, cfg.Notify)
	require.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	require.Equal(t, "/tmp/focus", cfg.DataDir)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("focus_minutes: 25\n"), 0o644))
	t.Setenv("FOCUSCYCLE_FOCUS_MINUTES", "50")
	t.Setenv("FOCUSCYCLE_AUTO_ADVANCE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 50, cfg.FocusMinutes)
	require.True(t, cfg.AutoAdvance)
}

func TestLoadClampsNonsense(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`focus_minutes: 0
long_break_after: -2
tick_interval: 1h
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 45, cfg.FocusMinutes)
	require.Equal(t, 3, cfg.LongBreakAfter)
	require.Equal(t, time.Second, cfg.TickInterval)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("focus_minutes: [\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.FocusMinutes = 30
	cfg.ExtendResetsBreaks = true
	cfg.TickInterval = 250 * time.Millisecond

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestSessionConfig(t *testing.T) {
	cfg := Default()
	cfg.AutoAdvance = true
	sc := cfg.SessionConfig()
	require.Equal(t, 45*time.Minute, sc.Focus)
	require.Equal(t, 5*time.Minute, sc.ShortBreak)
	require.Equal(t, 15*time.Minute, sc.LongBreak)
	require.Equal(t, 5*time.Minute, sc.Extend)
	require.Equal(t, 3, sc.LongBreakAfter)
	require.True(t, sc.AutoAdvance)
}

func TestDefaultPathHonoursEnv(t *testing.T) {
	t.Setenv("FOCUSCYCLE_CONFIG", "/etc/focuscycle.yaml")
	require.Equal(t, "/etc/focuscycle.yaml", DefaultPath())
}
