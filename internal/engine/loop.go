// Package engine runs the scheduler loop that owns the countdown and the
// session.
//
// All mutation happens on the goroutine running Loop.Run. Controllers push
// commands onto a single queue and observers read snapshots from a
// Broadcaster, so no state is shared across the loop boundary and no locks
// guard the countdown or the session.
package engine

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/dori/focuscycle/internal/clock"
	"github.com/dori/focuscycle/internal/session"
	"github.com/dori/focuscycle/internal/timer"
)

// Options contains runtime options for the loop
type Options struct {
	TickInterval time.Duration
	QueueSize    int
	Logger       *log.Logger
}

// Loop is the cooperative scheduler. It sleeps between ticks only while the
// countdown is running and applies commands as soon as they arrive.
type Loop struct {
	clock    clock.Clock
	logger   *log.Logger
	interval time.Duration

	countdown *timer.Countdown
	session   *session.Session
	extended  bool

	commands chan Command
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	events   *Broadcaster

	wait   clock.Timer
	outbox []Event
}

// New creates a loop with a fresh session at Focus(0) and an idle countdown
func New(c clock.Clock, cfg session.Config, opts Options) *Loop {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	return &Loop{
		clock:     c,
		logger:    opts.Logger,
		interval:  opts.TickInterval,
		countdown: timer.New(c, opts.Logger),
		session:   session.New(cfg),
		commands:  make(chan Command, opts.QueueSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		events:    NewBroadcaster(),
	}
}

// Controller returns a handle for sending commands to the loop
func (l *Loop) Controller() *Controller {
	return &Controller{
		commands: l.commands,
		done:     l.done,
		quit:     l.quit,
		once:     &l.quitOnce,
	}
}

// Events returns the loop's event broadcaster
func (l *Loop) Events() *Broadcaster {
	return l.events
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run drives the loop until ctx is cancelled, a controller closes the queue
// or every event subscriber has gone away. All three are normal shutdowns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	l.events.Publish(l.snapshot(EventStageChanged))

	for {
		var tick <-chan time.Time
		if l.wait != nil {
			tick = l.wait.C()
		}

		select {
		case <-ctx.Done():
			l.logger.Printf("engine: context done, stopping")
			return nil
		case <-l.quit:
			l.logger.Printf("engine: command queue closed, stopping")
			return nil
		case <-l.events.Gone():
			l.logger.Printf("engine: no event listeners left, stopping")
			return nil
		case cmd := <-l.commands:
			l.handle(l.drain(cmd))
		case <-tick:
			l.wait = nil
			// commands that arrived before the wake-up are applied first
			if batch := l.drainQueued(); len(batch) > 0 {
				l.handle(batch)
				if !l.countdown.Running() {
					continue
				}
			}
			l.tick()
		}
	}
}

// drain collects every command already queued behind first, in arrival order
func (l *Loop) drain(first Command) []Command {
	return append([]Command{first}, l.drainQueued()...)
}

func (l *Loop) drainQueued() []Command {
	var batch []Command
	for {
		select {
		case cmd := <-l.commands:
			batch = append(batch, cmd)
		default:
			return batch
		}
	}
}

func (l *Loop) handle(batch []Command) {
	errs := make([]error, len(batch))
	rearm := false
	for i, cmd := range batch {
		if cmd.Type == CmdStart && stoppedLater(batch[i+1:]) {
			l.logger.Printf("engine: start superseded by a later stop")
			continue
		}
		var restarted bool
		restarted, errs[i] = l.apply(cmd)
		if errs[i] != nil {
			l.logger.Printf("engine: %s rejected: %v", cmd.Type, errs[i])
		}
		rearm = rearm || restarted
	}

	l.arm(rearm)
	l.emit(l.snapshot(EventTick))
	l.flush()

	for i, cmd := range batch {
		if cmd.Reply != nil {
			cmd.Reply <- errs[i]
		}
	}
}

func stoppedLater(rest []Command) bool {
	for _, cmd := range rest {
		if cmd.Type == CmdStop {
			return true
		}
	}
	return false
}

// apply runs one command and reports whether the countdown origin moved, in
// which case the pending tick wait is restarted.
func (l *Loop) apply(cmd Command) (bool, error) {
	seconds := time.Duration(cmd.Seconds) * time.Second

	switch cmd.Type {
	case CmdStart, CmdReset:
		if err := l.countdown.Reset(seconds); err != nil {
			return false, err
		}
		l.session.Acknowledge()
		l.extended = false
		return true, nil

	case CmdStop:
		l.countdown.Stop()
		return false, nil

	case CmdPause:
		l.countdown.Pause()
		return false, nil

	case CmdResume:
		wasRunning := l.countdown.Running()
		l.countdown.Resume()
		return !wasRunning && l.countdown.Running(), nil

	case CmdExtend:
		d := l.session.Extend(seconds)
		if err := l.countdown.Reset(d); err != nil {
			return false, err
		}
		l.extended = true
		return true, nil

	case CmdNextStage:
		previous := l.session.Stage()
		elapsed := l.countdown.Elapsed()
		skipped := !l.session.Pending() && l.countdown.Total() > 0
		_, d := l.session.Advance()
		if err := l.countdown.Reset(d); err != nil {
			return false, err
		}
		l.extended = false
		ev := l.snapshot(EventStageChanged)
		ev.Previous = previous
		ev.Elapsed = elapsed
		ev.Skipped = skipped
		l.emit(ev)
		return true, nil

	case CmdSetAutoAdvance:
		l.session.SetAutoAdvance(cmd.Enabled)
		return false, nil

	case CmdSnapshot:
		return false, nil
	}
	return false, nil
}

func (l *Loop) tick() {
	outcome, _ := l.countdown.Poll()
	switch outcome {
	case timer.OutcomeTick:
		l.emit(l.snapshot(EventTick))

	case timer.OutcomeFinished:
		finished := l.session.Stage()
		total := l.countdown.Total()
		_, d, advanced := l.session.Finish()

		ev := l.snapshot(EventFinished)
		ev.Stage = finished
		ev.Nominal = l.session.DurationOf(finished)
		l.emit(ev)

		if advanced {
			if err := l.countdown.Reset(d); err != nil {
				l.logger.Printf("engine: auto-advance to %s failed: %v", l.session.Stage(), err)
			}
			l.extended = false
			next := l.snapshot(EventStageChanged)
			next.Previous = finished
			next.Elapsed = total
			l.emit(next)
		}
	}
	l.arm(false)
	l.flush()
}

// arm keeps exactly one tick wait pending while the countdown runs and none
// otherwise
func (l *Loop) arm(restart bool) {
	if l.wait != nil && (restart || !l.countdown.Running()) {
		l.wait.Stop()
		l.wait = nil
	}
	if l.wait == nil && l.countdown.Running() {
		l.wait = l.clock.NewTimer(l.interval)
	}
}

func (l *Loop) snapshot(kind EventKind) Event {
	return Event{
		Kind:        kind,
		Stage:       l.session.Stage(),
		Remaining:   l.countdown.Remaining(),
		Total:       l.countdown.Total(),
		Nominal:     l.session.Duration(),
		Running:     l.countdown.Running(),
		Pending:     l.session.Pending(),
		AutoAdvance: l.session.AutoAdvance(),
		Extended:    l.extended,
		At:          l.clock.Now(),
	}
}

// emit queues an event until the tick wait has been re-armed
func (l *Loop) emit(ev Event) {
	l.outbox = append(l.outbox, ev)
}

func (l *Loop) flush() {
	for _, ev := range l.outbox {
		l.events.Publish(ev)
	}
	l.outbox = l.outbox[:0]
}

func (l *Loop) shutdown() {
	if l.wait != nil {
		l.wait.Stop()
		l.wait = nil
	}
	close(l.done)
	l.events.Close()
}
