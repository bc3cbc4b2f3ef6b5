package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskboard/taskboard/internal/pipeline"
	"github.com/taskboard/taskboard/internal/session"
	"github.com/taskboard/taskboard/pkg/client"
	"github.com/taskboard/taskboard/pkg/domain"
)

func newTestApp(t *testing.T, env *testEnv) App {
	t.Helper()
	a := NewApp(env.deps)
	a.now = env.clock.now
	m, _ := a.Update(tea.WindowSizeMsg{Width: 160, Height: 60})
	return m.(App)
}

// signedIn returns an app that has completed a credentials login.
func signedIn(t *testing.T, env *testEnv) App {
	t.Helper()
	a := newTestApp(t, env)
	msg := a.login.loginCmd("main@gmail.com", "pass@123")()
	m, cmd := a.Update(msg)
	a = m.(App)
	if a.view != viewDashboard {
		t.Fatalf("view = %v after login, want dashboard", a.view)
	}
	if cmd == nil {
		t.Fatal("expected load command after login")
	}
	m, _ = a.Update(a.dash.loadCmd()())
	return m.(App)
}

func TestAppStartsOnLoginWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)
	if a.view != viewLogin {
		t.Fatalf("view = %v, want login", a.view)
	}
	view := a.View()
	if !strings.Contains(view, "T A S K B O A R D") {
		t.Error("missing title")
	}
	if !strings.Contains(view, "sign in to see your tasks") {
		t.Errorf("missing sign-in hint:\n%s", view)
	}
}

func TestAppStartsOnDashboardWithRestoredSession(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.deps.Session.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123"); err != nil {
		t.Fatal(err)
	}
	a := newTestApp(t, env)
	if a.view != viewDashboard {
		t.Fatalf("view = %v, want dashboard", a.view)
	}
	if a.user.Name != "Pragya Aggarwal" {
		t.Errorf("user = %+v", a.user)
	}
}

func TestAppLoginShowsIdentityAndTasks(t *testing.T) {
	env := newTestEnv(t)
	a := signedIn(t, env)

	view := a.View()
	for _, want := range []string{"Pragya Aggarwal", "main@gmail.com", "expires in ", "PROJ-101"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if tok, _ := env.slot.Load(); tok == "" {
		t.Error("token was not persisted")
	}
}

func TestAppFailedLoginStaysOnForm(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)

	m, _ := a.Update(a.login.loginCmd("main@gmail.com", "wrong-pass")())
	a = m.(App)
	if a.view != viewLogin {
		t.Fatal("failed login left the form")
	}
	if !strings.Contains(a.View(), "invalid email or password") {
		t.Errorf("missing error:\n%s", a.View())
	}
	if env.deps.Session.State() != session.Anonymous {
		t.Errorf("state = %v, want Anonymous", env.deps.Session.State())
	}
}

func TestAppExpiryTickLogsOutSilently(t *testing.T) {
	env := newTestEnv(t)
	a := signedIn(t, env)

	m, cmd := a.Update(expiryTickMsg(env.clock.now()))
	a = m.(App)
	if a.view != viewDashboard || cmd == nil {
		t.Fatal("live session should stay on the dashboard and re-arm the tick")
	}

	env.clock.t = env.clock.t.Add(2 * time.Hour)
	m, _ = a.Update(expiryTickMsg(env.clock.now()))
	a = m.(App)
	if a.view != viewLogin {
		t.Fatal("expired session should return to login")
	}
	if a.login.err != "" {
		t.Errorf("expiry should be silent, got %q", a.login.err)
	}
	if tok, _ := env.slot.Load(); tok != "" {
		t.Error("expired token was not cleared")
	}
}

func TestAppLogoutMsg(t *testing.T) {
	env := newTestEnv(t)
	a := signedIn(t, env)
	store := a.dash.store

	m, _ := a.Update(logoutMsg{})
	a = m.(App)
	if a.view != viewLogin {
		t.Fatal("logout should show the login form")
	}
	if env.deps.Session.IsAuthenticated() {
		t.Error("session still authenticated")
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, pipeline.ErrDetached) {
		t.Errorf("old store should be closed, Load err = %v", err)
	}
}

func TestAppQuitKeys(t *testing.T) {
	env := newTestEnv(t)
	a := signedIn(t, env)

	_, cmd := a.Update(keyRune("q"))
	if cmd == nil {
		t.Fatal("q on dashboard should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce tea.QuitMsg")
	}

	m, _ := a.Update(keyRune("/"))
	a = m.(App)
	m, _ = a.Update(keyRune("q"))
	a = m.(App)
	if a.dash.filterText != "q" {
		t.Errorf("q while filtering should be typed, filterText = %q", a.dash.filterText)
	}

	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should produce tea.QuitMsg")
	}
}

func TestAppQOnLoginIsTyped(t *testing.T) {
	env := newTestEnv(t)
	a := newTestApp(t, env)
	m, _ := a.Update(keyRune("q"))
	a = m.(App)
	if a.login.email.Value() != "q" {
		t.Errorf("email = %q, want q", a.login.email.Value())
	}
}

type unauthorizedSource struct{}

func (unauthorizedSource) FetchAssignedTasks(context.Context) ([]domain.Task, error) {
	return nil, &client.HTTPError{StatusCode: 401, Message: "unauthorized"}
}

func (unauthorizedSource) UpdateTask(context.Context, string, domain.TaskUpdate) (domain.Task, error) {
	return domain.Task{}, &client.HTTPError{StatusCode: 401, Message: "unauthorized"}
}

func TestAppUnauthorizedLoadForcesLogin(t *testing.T) {
	env := newTestEnv(t)
	env.deps.NewSource = func(session.Token) pipeline.Source { return unauthorizedSource{} }
	a := newTestApp(t, env)

	m, _ := a.Update(a.login.loginCmd("main@gmail.com", "pass@123")())
	a = m.(App)
	m, _ = a.Update(a.dash.loadCmd()())
	a = m.(App)

	if a.view != viewLogin {
		t.Fatal("401 on load should return to login")
	}
	if !strings.Contains(a.login.err, "sign in again") {
		t.Errorf("login.err = %q", a.login.err)
	}
	if env.deps.Session.IsAuthenticated() {
		t.Error("session still authenticated after 401")
	}
}

func TestAppIgnoresLoadFromPreviousSession(t *testing.T) {
	env := newTestEnv(t)
	a := signedIn(t, env)
	old := a.dash.store

	m, _ := a.Update(logoutMsg{})
	a = m.(App)
	m, _ = a.Update(a.login.loginCmd("main@gmail.com", "pass@123")())
	a = m.(App)

	m, _ = a.Update(tasksLoadedMsg{store: old, err: &client.HTTPError{StatusCode: 401}})
	a = m.(App)
	if a.view != viewDashboard {
		t.Error("stale 401 from an old store logged the new session out")
	}
}
