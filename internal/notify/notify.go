package notify

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dori/focuscycle/internal/engine"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled atomic.Bool
	run     func(name string, args ...string) error
}

// NewNotifier creates a new notifier
func NewNotifier(enabled bool) *Notifier {
	n := &Notifier{
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled enables or disables notifications. Safe to call while Watch runs.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled.Load()
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.IsEnabled() {
		return nil
	}
	return n.run("notify-send", buildArgs(notification)...)
}

func buildArgs(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "focuscycle")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// SendStageEnded announces that a countdown for stage ran out. next is
// empty when the user still has to confirm the transition.
func (n *Notifier) SendStageEnded(stage, next string, isBreak bool) error {
	body := "Move to the next stage?"
	if next != "" {
		body = next + " started"
	}

	icon := "alarm-symbolic"
	if isBreak {
		icon = "appointment-soon-symbolic"
	}

	return n.Send(Notification{
		Title:   fmt.Sprintf("%s ended", stage),
		Body:    body,
		Urgency: UrgencyNormal,
		Timeout: 10 * time.Second,
		Icon:    icon,
	})
}

// Watch sends a notification for every Finished event until the
// subscription closes. Failures go to onErr when it is non-nil.
func (n *Notifier) Watch(sub *engine.Subscription, onErr func(error)) {
	var finished *engine.Event
	for ev := range sub.Events() {
		switch ev.Kind {
		case engine.EventFinished:
			if ev.Pending {
				n.report(n.SendStageEnded(ev.Stage.String(), "", ev.Stage.IsBreak()), onErr)
				continue
			}
			// the StageChanged that follows names the next stage
			e := ev
			finished = &e
		case engine.EventStageChanged:
			if finished != nil {
				n.report(n.SendStageEnded(finished.Stage.String(), ev.Stage.String(), finished.Stage.IsBreak()), onErr)
				finished = nil
			}
		}
	}
}

func (n *Notifier) report(err error, onErr func(error)) {
	if err != nil && onErr != nil {
		onErr(err)
	}
}
