// Package session implements the Focus / ShortBreak / LongBreak cycle.
//
// A Session only decides which stage comes next and for how long; it never
// touches the countdown itself. The owner feeds the returned durations into
// the countdown.
package session

import "time"

// Config holds the stage durations and cycle policy
type Config struct {
	Focus      time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
	// Extend is used when an extension of zero is requested
	Extend time.Duration
	// LongBreakAfter is the number of short breaks before a long break
	LongBreakAfter int
	AutoAdvance    bool
	// ExtendResetsBreaks returns the short-break counter to zero on Extend
	ExtendResetsBreaks bool
}

// DefaultConfig returns the standard 45/5/15 cycle
func DefaultConfig() Config {
	return Config{
		Focus:          DefaultFocus,
		ShortBreak:     DefaultShortBreak,
		LongBreak:      DefaultLongBreak,
		Extend:         DefaultExtend,
		LongBreakAfter: DefaultLongBreakAfter,
	}
}

// Session tracks the current stage and whether a finished stage is waiting
// for the user to confirm the transition.
type Session struct {
	cfg     Config
	stage   Stage
	pending bool
}

// New creates a session at Focus(0). Non-positive durations fall back to the
// defaults.
func New(cfg Config) *Session {
	def := DefaultConfig()
	if cfg.Focus <= 0 {
		cfg.Focus = def.Focus
	}
	if cfg.ShortBreak <= 0 {
		cfg.ShortBreak = def.ShortBreak
	}
	if cfg.LongBreak <= 0 {
		cfg.LongBreak = def.LongBreak
	}
	if cfg.Extend <= 0 {
		cfg.Extend = def.Extend
	}
	if cfg.LongBreakAfter <= 0 {
		cfg.LongBreakAfter = def.LongBreakAfter
	}
	return &Session{cfg: cfg, stage: Focus(0)}
}

// Stage returns the current stage
func (s *Session) Stage() Stage {
	return s.stage
}

// Duration returns the nominal duration of the current stage
func (s *Session) Duration() time.Duration {
	return s.DurationOf(s.stage)
}

// DurationOf returns the nominal duration of any stage
func (s *Session) DurationOf(stage Stage) time.Duration {
	switch stage.Kind {
	case KindShortBreak:
		return s.cfg.ShortBreak
	case KindLongBreak:
		return s.cfg.LongBreak
	default:
		return s.cfg.Focus
	}
}

// Advance moves to the next stage and returns it with its duration
func (s *Session) Advance() (Stage, time.Duration) {
	s.stage = s.stage.Next(s.cfg.LongBreakAfter)
	s.pending = false
	return s.stage, s.Duration()
}

// Extend keeps the current stage and returns how long the countdown should
// run instead of the nominal duration. Zero means the configured extension.
func (s *Session) Extend(extra time.Duration) time.Duration {
	if extra <= 0 {
		extra = s.cfg.Extend
	}
	if s.cfg.ExtendResetsBreaks && s.stage.Kind != KindLongBreak {
		s.stage.Breaks = 0
	}
	s.pending = false
	return extra
}

// Finish handles the end of the current countdown. With auto-advance on it
// moves to the next stage and returns advanced=true; otherwise the session
// waits for Advance or Extend.
func (s *Session) Finish() (next Stage, d time.Duration, advanced bool) {
	if s.cfg.AutoAdvance {
		next, d = s.Advance()
		return next, d, true
	}
	s.pending = true
	return s.stage, 0, false
}

// Pending reports whether a finished stage is awaiting confirmation
func (s *Session) Pending() bool {
	return s.pending
}

// Acknowledge clears the pending condition without changing the stage. Used
// when the countdown is restarted explicitly.
func (s *Session) Acknowledge() {
	s.pending = false
}

// AutoAdvance reports whether finished stages advance without confirmation
func (s *Session) AutoAdvance() bool {
	return s.cfg.AutoAdvance
}

// SetAutoAdvance changes the auto-advance flag. It does not resolve a stage
// that is already pending.
func (s *Session) SetAutoAdvance(on bool) {
	s.cfg.AutoAdvance = on
}
