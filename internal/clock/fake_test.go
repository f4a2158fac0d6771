package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeTimerFiresOnAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	timer := fake.NewTimer(time.Second)
	require.Equal(t, 1, fake.Waiters())

	fake.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired before its deadline")
	default:
	}

	fake.Advance(500 * time.Millisecond)
	select {
	case at := <-timer.C():
		require.Equal(t, start.Add(time.Second), at)
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	require.Zero(t, fake.Waiters())
	require.False(t, timer.Stop())
}

func TestFakeTimerStop(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))
	timer := fake.NewTimer(time.Second)

	require.True(t, timer.Stop())
	require.Zero(t, fake.Waiters())

	fake.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeSetBackwards(t *testing.T) {
	start := time.Unix(1000, 0)
	fake := NewFake(start)
	fake.Set(start.Add(-time.Minute))
	require.Equal(t, start.Add(-time.Minute), fake.Now())
}

func TestRealClockHasNoMonotonicReading(t *testing.T) {
	now := Real().Now()
	// Round(0) is a no-op on a time without a monotonic reading
	require.Equal(t, now.String(), now.Round(0).String())
}
