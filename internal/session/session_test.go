package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStageCycle(t *testing.T) {
	s := New(DefaultConfig())
	require.Equal(t, Focus(0), s.Stage())

	want := []Stage{
		ShortBreak(0), Focus(1),
		ShortBreak(1), Focus(2),
		ShortBreak(2), Focus(3),
		LongBreak(),
		Focus(0),
	}
	for i, expected := range want {
		got, _ := s.Advance()
		require.Equal(t, expected, got, "advance #%d", i+1)
		require.Equal(t, expected, s.Stage())
	}
}

func TestAdvanceReturnsStageDuration(t *testing.T) {
	s := New(Config{Focus: 3 * time.Second, ShortBreak: 2 * time.Second, LongBreak: 4 * time.Second, LongBreakAfter: 1})

	stage, d := s.Advance()
	require.Equal(t, ShortBreak(0), stage)
	require.Equal(t, 2*time.Second, d)

	stage, d = s.Advance()
	require.Equal(t, Focus(1), stage)
	require.Equal(t, 3*time.Second, d)

	stage, d = s.Advance()
	require.Equal(t, LongBreak(), stage)
	require.Equal(t, 4*time.Second, d)
}

func TestDefaultDurations(t *testing.T) {
	s := New(Config{})
	require.Equal(t, 45*time.Minute, s.DurationOf(Focus(0)))
	require.Equal(t, 5*time.Minute, s.DurationOf(ShortBreak(2)))
	require.Equal(t, 15*time.Minute, s.DurationOf(LongBreak()))
	require.Equal(t, 5*time.Minute, s.Extend(0))
}

func TestFinishWithoutAutoAdvanceIsPending(t *testing.T) {
	s := New(DefaultConfig())

	next, d, advanced := s.Finish()
	require.False(t, advanced)
	require.Zero(t, d)
	require.Equal(t, Focus(0), next)
	require.True(t, s.Pending())

	extra := s.Extend(300 * time.Second)
	require.Equal(t, 300*time.Second, extra)
	require.Equal(t, Focus(0), s.Stage())
	require.False(t, s.Pending())
}

func TestFinishWithAutoAdvance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoAdvance = true
	s := New(cfg)

	next, d, advanced := s.Finish()
	require.True(t, advanced)
	require.Equal(t, ShortBreak(0), next)
	require.Equal(t, DefaultShortBreak, d)
	require.False(t, s.Pending())
}

func TestAdvanceClearsPending(t *testing.T) {
	s := New(DefaultConfig())
	s.Finish()
	require.True(t, s.Pending())

	s.Advance()
	require.False(t, s.Pending())
}

func TestExtendBreakCounterPolicy(t *testing.T) {
	keep := New(DefaultConfig())
	keep.Advance()
	keep.Advance()
	require.Equal(t, Focus(1), keep.Stage())
	keep.Extend(time.Minute)
	require.Equal(t, Focus(1), keep.Stage())

	cfg := DefaultConfig()
	cfg.ExtendResetsBreaks = true
	reset := New(cfg)
	reset.Advance()
	reset.Advance()
	reset.Extend(time.Minute)
	require.Equal(t, Focus(0), reset.Stage())
}

func TestStageLabels(t *testing.T) {
	require.Equal(t, "Focus Session 1", Focus(0).String())
	require.Equal(t, "Short Break 3", ShortBreak(2).String())
	require.Equal(t, "Long Break", LongBreak().String())
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindFocus, KindShortBreak, KindLongBreak} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}
	_, err := ParseKind("nap")
	require.Error(t, err)
}
