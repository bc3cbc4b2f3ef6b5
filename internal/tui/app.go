// Package tui is the interactive terminal front end: a login form and the
// task dashboard behind it.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskboard/taskboard/internal/pipeline"
	"github.com/taskboard/taskboard/internal/session"
	"github.com/taskboard/taskboard/pkg/client"
	"github.com/taskboard/taskboard/pkg/domain"
)

type view int

const (
	viewLogin view = iota
	viewDashboard
)

// expiryInterval is how often the session is checked for expiry.
const expiryInterval = 30 * time.Second

type expiryTickMsg time.Time

func expiryTickCmd() tea.Cmd {
	return tea.Tick(expiryInterval, func(t time.Time) tea.Msg {
		return expiryTickMsg(t)
	})
}

// Deps are the collaborators the TUI needs.
type Deps struct {
	Session *session.Manager
	// NewSource returns the task tracker to use for an authenticated session.
	NewSource  func(session.Token) pipeline.Source
	TrackerURL string
	Logger     *slog.Logger
}

// App is the root Bubbletea model.
type App struct {
	deps      Deps
	view      view
	login     loginModel
	dash      dashboardModel
	user      domain.UserRef
	expiresAt time.Time
	now       func() time.Time
	width     int
	height    int
}

// NewApp creates the TUI. It opens on the dashboard when the manager already
// holds a live session, otherwise on the login form.
func NewApp(d Deps) App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	a := App{deps: d, login: newLoginModel(d.Session), now: time.Now}
	if sess := d.Session.Current(); sess != nil {
		a = a.enterDashboard(sess)
	}
	return a
}

func (a App) enterDashboard(sess *session.Session) App {
	store := pipeline.NewStore(a.deps.NewSource(sess.Token()), a.deps.Logger)
	a.dash = newDashboardModel(store, sess.User(), a.deps.TrackerURL, a.deps.Logger)
	a.dash.width, a.dash.height = a.width, a.bodyHeight()
	a.user = sess.User()
	a.expiresAt = sess.ExpiresAt()
	a.view = viewDashboard
	return a
}

// leaveDashboard ends the session and returns to a fresh login form.
func (a App) leaveDashboard() App {
	a.deps.Session.Logout()
	a.dash.close()
	a.dash = dashboardModel{}
	a.user = domain.UserRef{}
	a.expiresAt = time.Time{}
	a.login = newLoginModel(a.deps.Session)
	a.login.width = a.width
	a.view = viewLogin
	return a
}

func (a App) Init() tea.Cmd {
	if a.view == viewDashboard {
		return tea.Batch(expiryTickCmd(), a.dash.Init())
	}
	return tea.Batch(expiryTickCmd(), a.login.Init())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: a.bodyHeight()}
		a.login, _ = a.login.Update(bodyMsg)
		if a.view == viewDashboard {
			a.dash, _ = a.dash.Update(bodyMsg)
		}
		return a, nil

	case expiryTickMsg:
		// Expiry is a silent logout: no error is shown.
		if a.view == viewDashboard && a.deps.Session.Check() != session.Authenticated {
			a.deps.Logger.Info("session_expired_in_tui")
			a = a.leaveDashboard()
			return a, tea.Batch(expiryTickCmd(), a.login.Init())
		}
		return a, expiryTickCmd()

	case loginResultMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err != nil || msg.sess == nil {
			return a, cmd
		}
		a = a.enterDashboard(msg.sess)
		return a, a.dash.Init()

	case tasksLoadedMsg:
		// A 401 means the server no longer accepts the token.
		if a.view == viewDashboard && msg.store == a.dash.store && client.IsUnauthorized(msg.err) {
			a = a.leaveDashboard()
			a.login.err = "session rejected by the server, sign in again"
			return a, a.login.Init()
		}

	case logoutMsg:
		if a.view != viewDashboard {
			return a, nil
		}
		a = a.leaveDashboard()
		return a, a.login.Init()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.view == viewDashboard && !a.dash.capturing() && msg.String() == "q" {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewDashboard:
		a.dash, cmd = a.dash.Update(msg)
	}
	return a, cmd
}

// bodyHeight is the terminal height less header(2) and help(1).
func (a App) bodyHeight() int {
	return max(a.height-3, 0)
}

func (a App) View() string {
	title := titleStyle.Render("T A S K B O A R D")
	var identity string
	if a.view == viewDashboard {
		parts := []string{selectedStyle.Render(a.user.Name)}
		if a.user.Email != "" {
			parts = append(parts, dimStyle.Render(a.user.Email))
		}
		if !a.expiresAt.IsZero() {
			parts = append(parts, metaStyle.Render(formatRemaining(a.expiresAt.Sub(a.now()))))
		}
		identity = strings.Join(parts, dimStyle.Render(" · "))
	} else {
		identity = dimStyle.Render("sign in to see your tasks")
	}

	header := " " + title
	if a.width > 0 {
		gap := a.width - lipgloss.Width(header) - lipgloss.Width(identity) - 1
		header += strings.Repeat(" ", max(gap, 2)) + identity
	} else {
		header += "  " + identity
	}

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = a.login.helpKeys()
	case viewDashboard:
		body = a.dash.View()
		help = a.dash.helpKeys()
	}

	body = strings.TrimRight(truncateToHeight(body, a.bodyHeight()), "\n")
	return fmt.Sprintf("%s\n\n%s\n%s", header, body, help)
}
