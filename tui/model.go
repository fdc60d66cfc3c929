package tui

import (
	"fmt"
	"net/url"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/backend"
	"github.com/njyeung/lcpunlock/logging"
)

// Messages
type (
	backendEventMsg  backend.Event
	browserOpenedMsg struct {
		host string
		err  error
	}
)

// Outcome is how the prompt ended
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeUnlocked
	OutcomeCancelled
	OutcomeFailed
)

// State represents the screen state
type state int

const (
	stateLoading state = iota
	statePrompt
	stateChoices
	stateVerifying
	stateUnlocked
	stateCancelled
	stateError
)

// Model is the Bubble Tea model
type Model struct {
	state   state
	license *auth.License
	service backend.Service
	sub     *backend.Subscription
	browser auth.Browser

	coord  *auth.Coordinator
	screen *screen

	input   textinput.Model
	spinner spinner.Model
	cursor  int

	width  int
	height int
	status string
	err    error

	outcome Outcome
}

// NewModel creates the prompt for license. sub must come from service and
// is closed by the caller once the program exits.
func NewModel(license *auth.License, service backend.Service, sub *backend.Subscription, opener auth.Opener, browser auth.Browser) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	in := textinput.New()
	in.Placeholder = "passphrase"
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.CharLimit = 256
	in.Width = 40

	sc := &screen{}
	coord := auth.NewCoordinator(sc, opener)
	coord.SetDelegate(service)

	return Model{
		state:   stateLoading,
		license: license,
		service: service,
		sub:     sub,
		browser: browser,
		coord:   coord,
		screen:  sc,
		input:   in,
		spinner: s,
		status:  "Looking for a saved passphrase...",
	}
}

// Outcome reports how the prompt ended
func (m Model) Outcome() Outcome {
	return m.outcome
}

// Err returns the error that ended the prompt, if any
func (m Model) Err() error {
	return m.err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.begin,
		m.listenForEvents,
	)
}

func (m Model) begin() tea.Msg {
	m.service.Begin(m.license)
	return nil
}

func (m Model) listenForEvents() tea.Msg {
	event, ok := <-m.sub.C
	if !ok {
		return nil
	}
	return backendEventMsg(event)
}

func (m Model) openInBrowser(u *url.URL) tea.Cmd {
	return func() tea.Msg {
		if m.browser == nil {
			return browserOpenedMsg{host: u.Host, err: fmt.Errorf("no browser available")}
		}
		return browserOpenedMsg{host: u.Host, err: m.browser.OpenInBrowser(u)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// cancel through the coordinator so the delegate hears about it
			m.coord.Cancel()
			if m.outcome == OutcomePending {
				m.outcome = OutcomeCancelled
			}
			return m, tea.Quit
		}

		switch m.state {
		case statePrompt:
			return m.updatePrompt(msg)
		case stateChoices:
			return m.updateChoices(msg)
		case stateError, stateUnlocked, stateCancelled:
			if msg.String() == "q" || msg.String() == "esc" || msg.String() == "enter" {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 12; w > 10 && w < 40 {
			m.input.Width = w
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case backendEventMsg:
		return m.handleEvent(backend.Event(msg))

	case browserOpenedMsg:
		if msg.err != nil {
			logging.Warnf("tui: hint page %s: %v", msg.host, msg.err)
			m.status = "Could not open the hint page"
		} else {
			m.status = "Hint page opened in the browser"
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleEvent(ev backend.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case backend.EventPrompt:
		m.coord.Present(ev.License, ev.Reason)
		m.state = statePrompt
		m.status = ""
		m.input.Reset()
		focus := m.input.Focus()
		return m, tea.Batch(focus, m.listenForEvents)

	case backend.EventUnlocked:
		m.state = stateUnlocked
		m.outcome = OutcomeUnlocked
		return m, tea.Quit

	case backend.EventCancelled:
		m.state = stateCancelled
		m.outcome = OutcomeCancelled
		return m, tea.Quit

	case backend.EventError:
		m.state = stateError
		m.err = ev.Err
		m.outcome = OutcomeFailed
		return m, m.listenForEvents
	}
	return m, m.listenForEvents
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		passphrase := m.input.Value()
		m.input.Reset()
		m.coord.Submit(passphrase)
		if m.screen.dismissed {
			m.state = stateVerifying
			m.status = "Verifying passphrase..."
		}
		return m, m.spinner.Tick

	case "esc":
		m.coord.Cancel()
		m.status = "Cancelling..."
		return m, nil

	case "ctrl+s":
		m.coord.SupportAction()
		if len(m.screen.choices) > 0 {
			m.state = stateChoices
			m.cursor = 0
		}
		return m, nil

	case "ctrl+o":
		m.coord.ResolveHintAction()
		if u := m.screen.takeBrowse(); u != nil {
			m.status = "Opening hint page..."
			return m, m.openInBrowser(u)
		}
		return m, nil

	case "tab":
		if m.input.EchoMode == textinput.EchoPassword {
			m.input.EchoMode = textinput.EchoNormal
		} else {
			m.input.EchoMode = textinput.EchoPassword
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateChoices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	choices := m.screen.choices
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(choices)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(choices) {
			if choice := choices[m.cursor]; !choice.IsCancel() {
				if err := choice.Action(); err != nil {
					m.status = "Could not open " + choice.Label
				} else {
					m.status = "Opened " + choice.Label
				}
			}
		}
		m.closeChoices()
	case "esc", "q":
		m.closeChoices()
	}
	return m, nil
}

func (m *Model) closeChoices() {
	m.screen.choices = nil
	m.cursor = 0
	m.state = statePrompt
}

// View renders the UI
func (m Model) View() string {
	switch m.state {
	case stateLoading, stateVerifying:
		return m.viewLoading()
	case statePrompt:
		return m.viewPrompt()
	case stateChoices:
		return m.viewChoices()
	case stateUnlocked, stateCancelled:
		return m.viewResult()
	case stateError:
		return m.viewError()
	default:
		return ""
	}
}
