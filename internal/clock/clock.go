// Package clock provides the wall-clock source used by the countdown and the
// scheduler loop, plus a manually driven fake for tests.
package clock

import "time"

// Clock abstracts time operations so timing code can be tested deterministically
type Clock interface {
	// Now returns the current wall-clock time
	Now() time.Time
	// NewTimer creates a one-shot timer that fires after d
	NewTimer(d time.Duration) Timer
}

// Timer represents a pending one-shot wake-up
type Timer interface {
	// C returns the channel the fire time is delivered on
	C() <-chan time.Time
	// Stop prevents the timer from firing. Returns false if it already fired
	// or was stopped.
	Stop() bool
}

type realClock struct{}

// Real returns a Clock backed by the time package
func Real() Clock {
	return realClock{}
}

// Now strips the monotonic reading so time spent suspended is counted and
// wall-clock rewinds stay visible to callers.
func (realClock) Now() time.Time {
	return time.Now().Round(0)
}

func (realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}
