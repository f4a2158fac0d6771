// Package timer implements the drift-compensated countdown.
//
// Remaining time is always derived from wall-clock deltas rather than from a
// per-tick decrement, so delayed ticks (suspend, scheduler jitter) never cost
// or add countdown time. Pausing folds the running span into an accumulated
// total and resuming restarts the origin, so time spent paused is free.
package timer

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/dori/focuscycle/internal/clock"
)

// ErrInvalidDuration is returned when a countdown is reset to a non-positive duration
var ErrInvalidDuration = errors.New("invalid duration: must be greater than zero")

// Outcome is the result of polling a countdown
type Outcome int

const (
	// OutcomeNone means the countdown is idle and nothing should be published
	OutcomeNone Outcome = iota
	// OutcomeTick carries the recomputed remaining time
	OutcomeTick
	// OutcomeFinished is reported once per Reset when remaining reaches zero
	OutcomeFinished
)

// String returns the display name for an outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "None"
	case OutcomeTick:
		return "Tick"
	case OutcomeFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Countdown owns one active countdown. It is not safe for concurrent use; the
// scheduler loop is its only owner.
type Countdown struct {
	clock  clock.Clock
	logger *log.Logger

	running     bool
	start       time.Time
	accumulated time.Duration
	max         time.Duration

	finished bool
	stopped  bool
	rewound  bool
}

// New creates an idle countdown. A nil logger discards output.
func New(c clock.Clock, logger *log.Logger) *Countdown {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Countdown{clock: c, logger: logger}
}

// Reset starts a fresh countdown of d
func (c *Countdown) Reset(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidDuration
	}
	c.max = d
	c.accumulated = 0
	c.start = c.clock.Now()
	c.running = true
	c.finished = false
	c.stopped = false
	c.rewound = false
	return nil
}

// Pause freezes the countdown. Calling it while paused does nothing.
func (c *Countdown) Pause() {
	if !c.running {
		return
	}
	elapsed, _ := c.sinceStart(c.clock.Now())
	c.accumulated += elapsed
	c.running = false
}

// Resume restarts a paused countdown. Does nothing if running or exhausted.
func (c *Countdown) Resume() {
	if c.running || c.Remaining() <= 0 {
		return
	}
	c.start = c.clock.Now()
	c.running = true
}

// Stop halts the countdown and exhausts it without reporting Finished. The
// time already counted is kept for Elapsed.
func (c *Countdown) Stop() {
	if c.running {
		elapsed, _ := c.sinceStart(c.clock.Now())
		c.accumulated += elapsed
	}
	c.running = false
	c.stopped = true
	c.finished = true
}

// Remaining returns the time left as of now. It does not change state.
func (c *Countdown) Remaining() time.Duration {
	return c.remainingAt(c.clock.Now())
}

// Poll recomputes the remaining time for a scheduler tick. It reports
// OutcomeFinished exactly once when the countdown runs out, then OutcomeNone
// until the next Reset.
func (c *Countdown) Poll() (Outcome, time.Duration) {
	if !c.running || c.finished {
		return OutcomeNone, c.Remaining()
	}

	// Fold the span since the last observation into the accumulated total so
	// a rewind only ever discards the current tick.
	now := c.clock.Now()
	elapsed, rewound := c.sinceStart(now)
	if rewound && !c.rewound {
		c.logger.Printf("timer: wall clock moved backwards by %s, treating as zero elapsed", c.start.Sub(now))
		c.rewound = true
	}
	c.accumulated += elapsed
	c.start = now

	remaining := c.remainingAt(now)
	if remaining > 0 {
		return OutcomeTick, remaining
	}

	c.accumulated = c.max
	c.running = false
	c.finished = true
	return OutcomeFinished, 0
}

// Elapsed returns the time counted since the last Reset, capped at the total
func (c *Countdown) Elapsed() time.Duration {
	elapsed := c.accumulated
	if c.running {
		running, _ := c.sinceStart(c.clock.Now())
		elapsed += running
	}
	if elapsed > c.max {
		return c.max
	}
	return elapsed
}

// Running reports whether the countdown is currently counting
func (c *Countdown) Running() bool {
	return c.running
}

// Total returns the duration of the current countdown
func (c *Countdown) Total() time.Duration {
	return c.max
}

// Progress returns the elapsed fraction of the countdown in [0, 1]
func (c *Countdown) Progress() float64 {
	if c.max <= 0 {
		return 0
	}
	progress := float64(c.max-c.Remaining()) / float64(c.max)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func (c *Countdown) remainingAt(now time.Time) time.Duration {
	if c.stopped {
		return 0
	}
	elapsed := c.accumulated
	if c.running {
		running, _ := c.sinceStart(now)
		elapsed += running
	}
	remaining := c.max - elapsed
	if remaining < 0 {
		return 0
	}
	if remaining > c.max {
		return c.max
	}
	return remaining
}

// sinceStart clamps a negative span (clock rewind) to zero
func (c *Countdown) sinceStart(now time.Time) (time.Duration, bool) {
	elapsed := now.Sub(c.start)
	if elapsed < 0 {
		return 0, true
	}
	return elapsed, false
}
