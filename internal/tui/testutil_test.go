package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/taskboard/internal/authsvc"
	"github.com/taskboard/taskboard/internal/logging"
	"github.com/taskboard/taskboard/internal/pipeline"
	"github.com/taskboard/taskboard/internal/session"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/tracker"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

type testEnv struct {
	deps  Deps
	slot  *store.MemorySlot
	clock *testClock
	mock  *tracker.Mock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	quiet := logging.Discard()
	dir := authsvc.NewDirectory(bcrypt.MinCost)
	if err := authsvc.Seed(dir); err != nil {
		t.Fatal(err)
	}
	clock := &testClock{t: time.Now()}
	svc := authsvc.NewService(dir, authsvc.WithClock(clock.now), authsvc.WithLogger(quiet))
	slot := &store.MemorySlot{}
	mgr := session.NewManager(svc, slot, session.WithClock(clock.now), session.WithLogger(quiet))
	mock := tracker.NewMock(0)
	return &testEnv{
		deps: Deps{
			Session:    mgr,
			NewSource:  func(session.Token) pipeline.Source { return mock },
			TrackerURL: "https://tracker.example.com",
			Logger:     quiet,
		},
		slot:  slot,
		clock: clock,
		mock:  mock,
	}
}

func keyRune(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

// typeKeys sends each rune of s as its own key press.
func typeKeys(m dashboardModel, s string) dashboardModel {
	for _, r := range s {
		m, _ = m.Update(keyRune(string(r)))
	}
	return m
}

// loadedDashboard returns a dashboard over a fresh mock with tasks loaded.
func loadedDashboard(t *testing.T, src pipeline.Source) dashboardModel {
	t.Helper()
	if src == nil {
		src = tracker.NewMock(0)
	}
	m := newDashboardModel(pipeline.NewStore(src, logging.Discard()), testUser, "https://tracker.example.com", logging.Discard())
	m.width = 160
	m.height = 60
	m, _ = m.Update(m.loadCmd()())
	return m
}
