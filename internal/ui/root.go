package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/focuscycle/internal/engine"
	"github.com/dori/focuscycle/internal/model"
	"github.com/dori/focuscycle/internal/notify"
	"github.com/dori/focuscycle/internal/ui/theme"
	"github.com/dori/focuscycle/internal/ui/views"
)

// commandTimeout bounds how long a key press waits for the loop to answer
const commandTimeout = 2 * time.Second

// SummarySource loads history totals for a day
type SummarySource interface {
	DaySummary(day time.Time) (*model.Summary, error)
}

// Deps are the collaborators the root model drives
type Deps struct {
	Controller     *engine.Controller
	Events         *engine.Subscription
	Notifier       *notify.Notifier
	History        SummarySource
	LongBreakAfter int
	Now            func() time.Time
}

// RootModel is the main application model. It renders loop snapshots and
// turns key presses into loop commands; it never touches timer state itself.
type RootModel struct {
	deps   Deps
	keys   KeyMap
	help   help.Model
	width  int
	height int

	timerView   views.TimerView
	helpVisible bool
	dismissed   bool // pending dialog hidden until the next Finished

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(deps Deps) RootModel {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := help.New()
	h.ShowAll = false

	notifyOn := deps.Notifier != nil && deps.Notifier.IsEnabled()
	return RootModel{
		deps:      deps,
		keys:      DefaultKeyMap(),
		help:      h,
		timerView: views.NewTimerView().SetNotify(notifyOn),
	}
}

// Init starts listening for loop events and loads today's totals
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.loadSummary())
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Reserve space for header (1 line) and footer (2 lines)
		m.timerView = m.timerView.SetSize(m.width, m.height-3)
		return m, nil

	case EventMsg:
		ev := msg.Event
		m.timerView = m.timerView.SetEvent(ev)
		cmds := []tea.Cmd{m.waitForEvent()}
		switch ev.Kind {
		case engine.EventFinished:
			m.dismissed = false
			m.statusMsg = fmt.Sprintf("%s ended", ev.Stage)
			cmds = append(cmds, m.loadSummary())
		case engine.EventStageChanged:
			if ev.Skipped {
				cmds = append(cmds, m.loadSummary())
			}
		}
		return m, tea.Batch(cmds...)

	case StreamClosedMsg:
		return m, tea.Quit

	case SummaryLoadedMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
			return m, nil
		}
		m.timerView = m.timerView.SetSummary(msg.Summary)
		return m, nil

	case ErrorMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""
		return m.handleKey(msg)
	}

	return m, nil
}

func (m RootModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ev := m.timerView.Event()

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.dialogVisible() {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.command("next stage", func(ctx context.Context, c *engine.Controller) error {
				return c.NextStage(ctx)
			})
		case key.Matches(msg, m.keys.Extend):
			return m, m.extend()
		case key.Matches(msg, m.keys.Dismiss):
			m.dismissed = true
			return m, nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.helpVisible = !m.helpVisible
		m.help.ShowAll = m.helpVisible
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		switch {
		case ev.Pending:
			m.dismissed = false
			return m, nil
		case ev.Running:
			return m, m.command("pause", func(ctx context.Context, c *engine.Controller) error {
				return c.Pause(ctx)
			})
		case ev.Total > 0 && ev.Remaining > 0:
			return m, m.command("resume", func(ctx context.Context, c *engine.Controller) error {
				return c.Resume(ctx)
			})
		default:
			return m, m.startStage(ev)
		}

	case key.Matches(msg, m.keys.Next):
		return m, m.command("next stage", func(ctx context.Context, c *engine.Controller) error {
			return c.NextStage(ctx)
		})

	case key.Matches(msg, m.keys.Extend):
		return m, m.extend()

	case key.Matches(msg, m.keys.Restart):
		return m, m.startStage(ev)

	case key.Matches(msg, m.keys.Stop):
		return m, m.command("stop", func(ctx context.Context, c *engine.Controller) error {
			return c.Stop(ctx)
		})

	case key.Matches(msg, m.keys.AutoAdvance):
		on := !ev.AutoAdvance
		return m, m.command("auto-advance", func(ctx context.Context, c *engine.Controller) error {
			return c.SetAutoAdvance(ctx, on)
		})

	case key.Matches(msg, m.keys.Notify):
		if m.deps.Notifier == nil {
			return m, nil
		}
		on := !m.deps.Notifier.IsEnabled()
		m.deps.Notifier.SetEnabled(on)
		m.timerView = m.timerView.SetNotify(on)
		if on {
			m.statusMsg = "Notifications on"
		} else {
			m.statusMsg = "Notifications off"
		}
		return m, nil
	}

	return m, nil
}

// dialogVisible reports whether the pending confirmation dialog is shown
func (m RootModel) dialogVisible() bool {
	return m.timerView.Event().Pending && !m.dismissed
}

func (m RootModel) startStage(ev engine.Event) tea.Cmd {
	seconds := uint32(ev.Nominal / time.Second)
	return m.command("start", func(ctx context.Context, c *engine.Controller) error {
		return c.Start(ctx, seconds)
	})
}

func (m RootModel) extend() tea.Cmd {
	return m.command("extend", func(ctx context.Context, c *engine.Controller) error {
		return c.Extend(ctx, 0)
	})
}

// command runs fn against the loop off the UI goroutine
func (m RootModel) command(name string, fn func(context.Context, *engine.Controller) error) tea.Cmd {
	ctrl := m.deps.Controller
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := fn(ctx, ctrl); err != nil {
			return ErrorMsg{Err: fmt.Errorf("%s: %w", name, err)}
		}
		return nil
	}
}

// waitForEvent blocks on the subscription and delivers the next event
func (m RootModel) waitForEvent() tea.Cmd {
	sub := m.deps.Events
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return StreamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

func (m RootModel) loadSummary() tea.Cmd {
	src := m.deps.History
	if src == nil {
		return nil
	}
	now := m.deps.Now()
	return func() tea.Msg {
		s, err := src.DaySummary(now)
		return SummaryLoadedMsg{Summary: s, Err: err}
	}
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := m.height - 3
	if m.errorMsg != "" || m.statusMsg != "" {
		contentHeight-- // Extra line for status message
	}

	var content string
	switch {
	case m.helpVisible:
		content = m.renderHelp()
	case m.dialogVisible():
		ev := m.timerView.Event()
		dialog := views.NewConfirmDialog(ev.Stage, ev.Stage.Next(m.deps.LongBreakAfter), m.keys.DialogHelp())
		content = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, dialog.View())
	default:
		content = m.timerView.SetSize(m.width, contentHeight).View()
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)

	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("focuscycle")

	stateStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	left := lipgloss.JoinHorizontal(lipgloss.Center, title,
		stateStyle.Render(fmt.Sprintf("[%s]", m.timerView.State())))
	right := stateStyle.Render(m.timerView.Event().Stage.String())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter renders the status line and key hints
func (m RootModel) renderFooter() string {
	t := theme.Current.Theme

	var lines []string
	if m.errorMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg))
	} else if m.statusMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg))
	}

	if m.dialogVisible() {
		lines = append(lines, m.help.ShortHelpView(m.keys.DialogHelp()))
	} else {
		lines = append(lines, m.help.View(m.keys))
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	var b strings.Builder
	b.WriteString(titleStyle.Render("focuscycle help"))
	b.WriteString("\n\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(descStyle.Render("Press ? to close"))
	return b.String()
}
