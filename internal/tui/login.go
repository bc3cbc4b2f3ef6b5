package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskboard/taskboard/internal/session"
)

// -- messages --

type loginResultMsg struct {
	sess *session.Session
	err  error
}

// -- model --

type loginMode int

const (
	loginCredentials loginMode = iota
	loginAPIToken
)

func (m loginMode) label() string {
	if m == loginAPIToken {
		return "api token"
	}
	return "email"
}

type loginModel struct {
	mgr        *session.Manager
	mode       loginMode
	email      textinput.Model
	secret     textinput.Model
	focus      int // 0 email, 1 password or token
	spinner    spinner.Model
	submitting bool
	fieldErrs  map[string]string
	err        string
	width      int
}

func newLoginModel(mgr *session.Manager) loginModel {
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 36
	email.Focus()

	secret := textinput.New()
	secret.Prompt = ""
	secret.CharLimit = 256
	secret.Width = 36
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '•'

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle

	m := loginModel{mgr: mgr, email: email, secret: secret, spinner: s}
	m.applyMode()
	return m
}

func (m *loginModel) applyMode() {
	if m.mode == loginAPIToken {
		m.secret.Placeholder = "tracker api token"
	} else {
		m.secret.Placeholder = "password"
	}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = loginErrorText(msg.err)
			return m, nil
		}
		m.err = ""
		m.secret.SetValue("")
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			return m, m.setFocus(1 - m.focus)
		case "ctrl+t":
			m.mode = 1 - m.mode
			m.applyMode()
			m.secret.SetValue("")
			m.fieldErrs = nil
			m.err = ""
			return m, nil
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.secret, cmd = m.secret.Update(msg)
	}
	return m, cmd
}

func (m *loginModel) setFocus(i int) tea.Cmd {
	m.focus = i
	if i == 0 {
		m.secret.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.secret.Focus()
}

// submit validates the form and, when it passes, starts the login.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	secret := m.secret.Value()

	var err error
	if m.mode == loginAPIToken {
		err = session.ValidateExternalToken(email, secret)
	} else {
		err = session.ValidateCredentials(email, secret)
	}
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		m.fieldErrs = verr.Fields
		m.err = ""
		return m, nil
	}

	m.fieldErrs = nil
	m.err = ""
	m.submitting = true
	return m, tea.Batch(m.spinner.Tick, m.loginCmd(email, secret))
}

func (m loginModel) loginCmd(email, secret string) tea.Cmd {
	mgr := m.mgr
	mode := m.mode
	return func() tea.Msg {
		var (
			sess *session.Session
			err  error
		)
		if mode == loginAPIToken {
			sess, err = mgr.LoginWithToken(context.Background(), email, secret)
		} else {
			sess, err = mgr.LoginWithCredentials(context.Background(), email, secret)
		}
		return loginResultMsg{sess: sess, err: err}
	}
}

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, session.ErrInvalidExternalToken):
		return "invalid email or api token"
	default:
		return fmt.Sprintf("login failed: %v", err)
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	// Mode tabs
	tabs := []loginMode{loginCredentials, loginAPIToken}
	var parts []string
	for _, t := range tabs {
		if t == m.mode {
			parts = append(parts, selectedStyle.Underline(true).Render(t.label()))
		} else {
			parts = append(parts, dimStyle.Render(t.label()))
		}
	}
	b.WriteString("\n " + strings.Join(parts, "   ") + "\n\n")

	secretLabel := "password"
	secretField := "password"
	if m.mode == loginAPIToken {
		secretLabel = "api token"
		secretField = "token"
	}

	b.WriteString(" " + m.fieldLabel("email", m.focus == 0) + "\n")
	b.WriteString(" " + m.email.View() + "\n")
	if e := m.fieldErrs["email"]; e != "" {
		b.WriteString(" " + errorStyle.Render(e) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(" " + m.fieldLabel(secretLabel, m.focus == 1) + "\n")
	b.WriteString(" " + m.secret.View() + "\n")
	if e := m.fieldErrs[secretField]; e != "" {
		b.WriteString(" " + errorStyle.Render(e) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.submitting:
		b.WriteString(" " + m.spinner.View() + " " + dimStyle.Render("signing in...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}

func (m loginModel) fieldLabel(label string, focused bool) string {
	if focused {
		return inputPromptStyle.Render(label)
	}
	return dimStyle.Render(label)
}

func (m loginModel) helpKeys() string {
	return helpBar("tab", "next field", "ctrl+t", "email / api token", "enter", "sign in", "ctrl+c", "quit")
}
