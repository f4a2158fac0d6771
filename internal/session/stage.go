package session

import (
	"fmt"
	"time"
)

// Default stage durations
const (
	DefaultFocus          = 45 * time.Minute
	DefaultShortBreak     = 5 * time.Minute
	DefaultLongBreak      = 15 * time.Minute
	DefaultExtend         = 5 * time.Minute
	DefaultLongBreakAfter = 3
)

// Kind identifies a phase of the cycle
type Kind int

const (
	KindFocus Kind = iota
	KindShortBreak
	KindLongBreak
)

// String returns the storage name for a kind
func (k Kind) String() string {
	switch k {
	case KindFocus:
		return "focus"
	case KindShortBreak:
		return "short_break"
	case KindLongBreak:
		return "long_break"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	switch s {
	case "focus":
		return KindFocus, nil
	case "short_break":
		return KindShortBreak, nil
	case "long_break":
		return KindLongBreak, nil
	}
	return 0, fmt.Errorf("unknown stage kind %q", s)
}

// Stage is one phase of the cycle. Breaks counts the short breaks completed
// so far in the current round and is meaningful for Focus and ShortBreak only.
type Stage struct {
	Kind   Kind
	Breaks int
}

// Focus returns a focus stage after n short breaks
func Focus(n int) Stage { return Stage{Kind: KindFocus, Breaks: n} }

// ShortBreak returns the short break taken after n earlier short breaks
func ShortBreak(n int) Stage { return Stage{Kind: KindShortBreak, Breaks: n} }

// LongBreak returns the long break stage
func LongBreak() Stage { return Stage{Kind: KindLongBreak} }

// Next returns the stage that follows s. threshold is the number of short
// breaks taken before a long one.
func (s Stage) Next(threshold int) Stage {
	switch s.Kind {
	case KindFocus:
		if s.Breaks >= threshold {
			return LongBreak()
		}
		return ShortBreak(s.Breaks)
	case KindShortBreak:
		return Focus(s.Breaks + 1)
	default:
		return Focus(0)
	}
}

// IsBreak reports whether s is a short or long break
func (s Stage) IsBreak() bool {
	return s.Kind != KindFocus
}

// String returns the display label, e.g. "Focus Session 2"
func (s Stage) String() string {
	switch s.Kind {
	case KindFocus:
		return fmt.Sprintf("Focus Session %d", s.Breaks+1)
	case KindShortBreak:
		return fmt.Sprintf("Short Break %d", s.Breaks+1)
	case KindLongBreak:
		return "Long Break"
	default:
		return "Unknown"
	}
}
