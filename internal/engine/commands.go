package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/dori/focuscycle/internal/timer"
)

var (
	// ErrClosed is returned when a command is sent to a loop that has stopped
	ErrClosed = errors.New("scheduler loop is not running")
	// ErrInvalidDuration is returned for Start and Reset with zero seconds
	ErrInvalidDuration = timer.ErrInvalidDuration
)

// CommandType enumerates the control operations accepted by the loop
type CommandType int

const (
	CmdStart CommandType = iota
	CmdStop
	CmdPause
	CmdResume
	CmdReset
	CmdExtend
	CmdNextStage
	CmdSetAutoAdvance
	CmdSnapshot
)

// String returns the display name for a command type
func (t CommandType) String() string {
	switch t {
	case CmdStart:
		return "Start"
	case CmdStop:
		return "Stop"
	case CmdPause:
		return "Pause"
	case CmdResume:
		return "Resume"
	case CmdReset:
		return "Reset"
	case CmdExtend:
		return "Extend"
	case CmdNextStage:
		return "NextStage"
	case CmdSetAutoAdvance:
		return "SetAutoAdvance"
	case CmdSnapshot:
		return "Snapshot"
	default:
		return "Unknown"
	}
}

// Command is a message sent to the loop. Seconds is the duration argument of
// Start, Reset and Extend; Enabled is the argument of SetAutoAdvance. The
// loop answers on Reply when it is non-nil.
type Command struct {
	Type    CommandType
	Seconds uint32
	Enabled bool
	Reply   chan error
}

// Controller is the producer side of the loop's command queue. It is safe
// for concurrent use by any number of goroutines.
type Controller struct {
	commands chan<- Command
	done     <-chan struct{}
	quit     chan struct{}
	once     *sync.Once
}

// Start begins a countdown of seconds in the current stage
func (c *Controller) Start(ctx context.Context, seconds uint32) error {
	return c.send(ctx, Command{Type: CmdStart, Seconds: seconds})
}

// Stop halts the countdown
func (c *Controller) Stop(ctx context.Context) error {
	return c.send(ctx, Command{Type: CmdStop})
}

// Pause freezes the countdown
func (c *Controller) Pause(ctx context.Context) error {
	return c.send(ctx, Command{Type: CmdPause})
}

// Resume continues a paused countdown
func (c *Controller) Resume(ctx context.Context) error {
	return c.send(ctx, Command{Type: CmdResume})
}

// Reset restarts the countdown with seconds
func (c *Controller) Reset(ctx context.Context, seconds uint32) error {
	return c.send(ctx, Command{Type: CmdReset, Seconds: seconds})
}

// Extend keeps the current stage and counts down extra seconds instead.
// Zero uses the configured extension.
func (c *Controller) Extend(ctx context.Context, seconds uint32) error {
	return c.send(ctx, Command{Type: CmdExtend, Seconds: seconds})
}

// NextStage moves to the next stage and starts its countdown
func (c *Controller) NextStage(ctx context.Context) error {
	return c.send(ctx, Command{Type: CmdNextStage})
}

// SetAutoAdvance toggles automatic stage transitions
func (c *Controller) SetAutoAdvance(ctx context.Context, on bool) error {
	return c.send(ctx, Command{Type: CmdSetAutoAdvance, Enabled: on})
}

// Snapshot asks the loop to publish its current state
func (c *Controller) Snapshot(ctx context.Context) error {
	return c.send(ctx, Command{Type: CmdSnapshot})
}

// Close tells the loop that no more commands will arrive. The loop shuts
// down; it is the normal exit path.
func (c *Controller) Close() {
	c.once.Do(func() { close(c.quit) })
}

func (c *Controller) send(ctx context.Context, cmd Command) error {
	cmd.Reply = make(chan error, 1)

	select {
	case c.commands <- cmd:
	case <-c.quit:
		return ErrClosed
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.Reply:
		return err
	case <-c.done:
		// the loop replies before it finishes
		select {
		case err := <-cmd.Reply:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
