package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dori/focuscycle/internal/engine"
	"github.com/dori/focuscycle/internal/model"
	"github.com/dori/focuscycle/internal/session"
	"github.com/dori/focuscycle/internal/ui/theme"
)

const barWidth = 30

// TimerView renders the current stage, the countdown and today's totals
type TimerView struct {
	width  int
	height int

	event   engine.Event
	hasData bool
	summary *model.Summary
	notify  bool
}

// NewTimerView creates a timer view
func NewTimerView() TimerView {
	return TimerView{}
}

// SetSize sets the view dimensions
func (v TimerView) SetSize(width, height int) TimerView {
	v.width = width
	v.height = height
	return v
}

// SetEvent stores the latest loop snapshot
func (v TimerView) SetEvent(ev engine.Event) TimerView {
	v.event = ev
	v.hasData = true
	return v
}

// SetSummary stores today's history totals
func (v TimerView) SetSummary(s *model.Summary) TimerView {
	v.summary = s
	return v
}

// SetNotify records whether desktop notifications are on
func (v TimerView) SetNotify(on bool) TimerView {
	v.notify = on
	return v
}

// Event returns the latest snapshot
func (v TimerView) Event() engine.Event {
	return v.event
}

// State returns the label for the countdown state
func (v TimerView) State() string {
	ev := v.event
	switch {
	case ev.Pending:
		return "WAITING"
	case ev.Running:
		if ev.Extended {
			return "EXTENDED"
		}
		return "RUNNING"
	case ev.Total > 0 && ev.Remaining > 0:
		return "PAUSED"
	default:
		return "READY"
	}
}

// View renders the timer view
func (v TimerView) View() string {
	if !v.hasData {
		return "Waiting for timer..."
	}

	styles := theme.Current.Styles
	t := theme.Current.Theme

	var sections []string

	sections = append(sections, styles.Title.Render(v.event.Stage.String()))
	sections = append(sections, v.renderTimer())

	flag := func(name string, on bool) string {
		if on {
			return styles.FlagOn.Render(name + ": on")
		}
		return styles.FlagOff.Render(name + ": off")
	}
	sep := styles.HelpSeparator.Render("  •  ")
	sections = append(sections, lipgloss.NewStyle().MarginTop(1).Render(
		flag("auto-advance", v.event.AutoAdvance)+sep+flag("notify", v.notify),
	))

	if v.summary != nil {
		statsStyle := lipgloss.NewStyle().
			Foreground(t.Subtle).
			MarginTop(1)
		sections = append(sections, statsStyle.Render(fmt.Sprintf(
			"Today: %d focus sessions • %s focused • %s on breaks",
			v.summary.FocusCompleted, FormatDuration(v.summary.FocusTime), FormatDuration(v.summary.BreakTime),
		)))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if v.width > 0 && v.height > 0 {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

// renderTimer renders the countdown box and progress bar
func (v TimerView) renderTimer() string {
	color := v.color()

	bigTime := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Padding(1, 4).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color)

	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(color)

	barStyle := lipgloss.NewStyle().Foreground(color)
	progress := v.event.Progress()
	if v.State() == "READY" {
		progress = 0
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render(v.State()),
		bigTime.Render(FormatRemaining(v.displaySeconds())),
		barStyle.Render(ProgressBar(progress, barWidth)),
	)
}

// displaySeconds shows the stage's configured length while nothing is counting
func (v TimerView) displaySeconds() uint32 {
	if v.State() == "READY" {
		return uint32(v.event.Nominal / time.Second)
	}
	return v.event.Seconds()
}

func (v TimerView) color() lipgloss.Color {
	t := theme.Current.Theme
	if !v.event.Running && !v.event.Pending && v.event.Remaining > 0 {
		return t.StagePaused
	}
	switch v.event.Stage.Kind {
	case session.KindShortBreak:
		return t.StageShortBreak
	case session.KindLongBreak:
		return t.StageLongBreak
	default:
		return t.StageFocus
	}
}

// FormatRemaining renders whole seconds as h:mm:ss
func FormatRemaining(seconds uint32) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatDuration renders a duration as 1h05m or 25m
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// ProgressBar renders progress in [0, 1] as a bar of width cells
func ProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
