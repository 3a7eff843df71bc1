package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/retimer/retimer"
	"github.com/drake/retimer/timer"
	"github.com/drake/retimer/ui/style"
)

// DelayStep is how much up/down change the idle delay.
const DelayStep = 100 * time.Millisecond

// IdleMsg reports that typing paused for the full idle delay.
type IdleMsg struct{}

// IdleModel is a Bubble Tea model that detects pauses in typing.
// Every keystroke reschedules one retimer; when it fires the user is idle.
type IdleModel struct {
	input  textinput.Model
	timer  *retimer.Timer
	styles style.Styles

	// Timer callbacks run off the Bubble Tea goroutine; they only ever
	// send here, and waitForIdle turns each send into a message.
	events chan IdleMsg

	keystrokes int
	idles      int
	err        error
}

// NewIdleModel creates the model and arms its timer on host.
func NewIdleModel(host timer.Facility, delay time.Duration) (*IdleModel, error) {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "type something, then stop"
	ti.CharLimit = 0 // No limit
	ti.Width = 60
	ti.Focus()

	m := &IdleModel{
		input:  ti,
		styles: style.DefaultStyles(),
		events: make(chan IdleMsg, 16),
	}
	m.input.PromptStyle = m.styles.InputPrompt

	t, err := retimer.New(host, func(...any) {
		select {
		case m.events <- IdleMsg{}:
		default:
			// The model is behind; one pending IdleMsg is as good as many.
		}
	}, delay)
	if err != nil {
		return nil, fmt.Errorf("arming idle timer: %w", err)
	}
	m.timer = t
	return m, nil
}

// Init implements tea.Model.
func (m *IdleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForIdle())
}

func (m *IdleModel) waitForIdle() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Update implements tea.Model.
func (m *IdleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case IdleMsg:
		m.idles++
		return m, m.waitForIdle()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.timer.Clear()
			return m, tea.Quit
		case tea.KeyCtrlX:
			m.timer.Clear()
			return m, nil
		case tea.KeyUp:
			m.reschedule(m.timer.Delay() + DelayStep)
			return m, nil
		case tea.KeyDown:
			m.reschedule(max(m.timer.Delay()-DelayStep, DelayStep))
			return m, nil
		}

		m.keystrokes++
		_, m.err = m.timer.Restart()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *IdleModel) reschedule(d time.Duration) {
	_, m.err = m.timer.Reschedule(d)
}

// View implements tea.Model.
func (m *IdleModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("retimer idle detector"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s  delay %v  keys %d  idle %d\n",
		m.stateLabel(), m.timer.Delay(), m.keystrokes, m.idles)

	if m.err != nil {
		b.WriteString(m.styles.Error.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Muted.Render("up/down: delay  ctrl+x: clear  esc: quit"))

	return m.styles.App.Render(b.String())
}

func (m *IdleModel) stateLabel() string {
	switch s := m.timer.State(); s {
	case retimer.Armed:
		return m.styles.StateArmed.Render("typing")
	case retimer.Idle:
		return m.styles.StateIdle.Render("idle")
	default:
		return m.styles.StateCleared.Render(s.String())
	}
}

// Keystrokes returns how many keys rescheduled the timer.
func (m *IdleModel) Keystrokes() int { return m.keystrokes }

// Idles returns how many idle periods were observed.
func (m *IdleModel) Idles() int { return m.idles }
