package engine

import (
	"sync"
	"time"

	"github.com/dori/focuscycle/internal/session"
)

// EventKind defines the type of loop event
type EventKind int

const (
	// EventTick carries the recomputed remaining time. It is also published
	// after every batch of commands so observers see the new state.
	EventTick EventKind = iota
	// EventFinished is published once when a countdown runs out
	EventFinished
	// EventStageChanged is published when the session moves to a new stage
	EventStageChanged
)

// String returns the display name for an event kind
func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "Tick"
	case EventFinished:
		return "Finished"
	case EventStageChanged:
		return "StageChanged"
	default:
		return "Unknown"
	}
}

// Event is a snapshot of the loop's state published to observers
type Event struct {
	Kind  EventKind
	Stage session.Stage

	Remaining time.Duration
	Total     time.Duration
	// Nominal is the configured duration of Stage
	Nominal time.Duration

	Running     bool
	Pending     bool
	AutoAdvance bool
	// Extended is set when the current countdown came from Extend
	Extended bool

	// Previous and Elapsed describe the stage that was left on
	// EventStageChanged. Skipped is set when it was left before finishing.
	Previous session.Stage
	Elapsed  time.Duration
	Skipped  bool

	At time.Time
}

// Seconds returns the remaining time rounded up to whole seconds, so a
// countdown only shows zero once it has actually finished.
func (e Event) Seconds() uint32 {
	if e.Remaining <= 0 {
		return 0
	}
	return uint32((e.Remaining + time.Second - 1) / time.Second)
}

// Progress returns the elapsed fraction of the current countdown
func (e Event) Progress() float64 {
	if e.Total <= 0 {
		return 0
	}
	p := float64(e.Total-e.Remaining) / float64(e.Total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Broadcaster fans events out to subscribers. A slow subscriber loses stale
// ticks; finished and stage events evict the oldest queued event instead.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	gone   chan struct{}
}

// NewBroadcaster creates a broadcaster with no subscribers
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*Subscription]struct{}),
		gone: make(chan struct{}),
	}
}

// Subscription is one observer's event stream
type Subscription struct {
	ch chan Event
	b  *Broadcaster
}

// Subscribe registers a new observer channel
func (b *Broadcaster) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	sub := &Subscription{ch: make(chan Event, buffer), b: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Events returns the subscriber's channel. It is closed when the
// subscription or the broadcaster is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unsubscribes. When the last subscriber leaves, Gone is closed and
// later subscriptions receive a closed channel.
func (s *Subscription) Close() {
	b := s.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.ch)
	if len(b.subs) == 0 && !b.closed {
		close(b.gone)
		b.closed = true
	}
}

// Gone is closed when the last subscriber leaves
func (b *Broadcaster) Gone() <-chan struct{} {
	return b.gone
}

// Publish delivers ev to every subscriber without blocking
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		deliver(sub.ch, ev)
	}
}

// Close closes every subscriber channel
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		close(sub.ch)
		delete(b.subs, sub)
	}
	if !b.closed {
		b.closed = true
		close(b.gone)
	}
}

func deliver(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	if ev.Kind == EventTick {
		return
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
