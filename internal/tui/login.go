package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/transitnet/transitnet-cli/internal/callback"
)

const verificationInstructions = `# Almost there...

Verify your email address to sign in. Check your inbox for a verification
email from **"Transitnet Notifications" <notifications@transitnet.io>** and
follow the instructions.

A new verification email has been requested for you. Once your email is
verified, run ` + "`transitnet auth login`" + ` again.`

// StateMsg delivers a callback state update to the login screen.
type StateMsg callback.State

// LoginModel renders the sign-in progress: a spinner while waiting for and
// processing the redirect, then a verification card, an error view, or a
// success line.
type LoginModel struct {
	spinner spinner.Model
	styles  *Styles
	state   callback.State
	updates <-chan callback.State
	done    bool
}

// NewLoginModel creates the login screen. State updates arrive on updates;
// the screen quits on the first terminal state.
func NewLoginModel(updates <-chan callback.State) LoginModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(DefaultTheme().Primary)

	return LoginModel{
		spinner: s,
		styles:  DefaultStyles(),
		updates: updates,
	}
}

// Done reports whether a terminal state was reached.
func (m LoginModel) Done() bool {
	return m.done
}

// FinalState returns the last observed callback state.
func (m LoginModel) FinalState() callback.State {
	return m.state
}

func (m LoginModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-m.updates
		if !ok {
			return tea.Quit()
		}
		return StateMsg(state)
	}
}

func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate())
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil

	case StateMsg:
		m.state = callback.State(msg)
		switch m.state.Phase {
		case callback.PhaseSuccess, callback.PhaseVerificationRequired, callback.PhaseLoginFailed:
			m.done = true
			return m, tea.Quit
		}
		return m, m.waitForUpdate()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m LoginModel) View() string {
	switch m.state.Phase {
	case callback.PhaseVerificationRequired:
		return m.verificationCard()
	case callback.PhaseLoginFailed:
		return m.styles.Error.Render("Error signing in: "+m.state.Message) + "\n" +
			m.styles.Muted.Render("Run `transitnet auth login` to retry.") + "\n"
	case callback.PhaseSuccess:
		return m.styles.Success.Render("Signed in.") + "\n"
	default:
		return fmt.Sprintf("%s Signing in...\n", m.spinner.View())
	}
}

func (m LoginModel) verificationCard() string {
	rendered, err := glamour.Render(verificationInstructions, "auto")
	if err != nil {
		rendered = verificationInstructions
	}
	return m.styles.Card.Render(rendered) + "\n"
}
