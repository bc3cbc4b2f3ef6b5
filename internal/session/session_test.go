package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/taskboard/taskboard/internal/authsvc"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/token"
	"github.com/taskboard/taskboard/pkg/domain"
	"golang.org/x/crypto/bcrypt"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(t *testing.T) (*Manager, *store.MemorySlot, *clock) {
	t.Helper()
	dir := authsvc.NewDirectory(bcrypt.MinCost)
	if err := authsvc.Seed(dir); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	c := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := authsvc.NewService(dir, authsvc.WithClock(c.now), authsvc.WithLogger(quiet))
	slot := &store.MemorySlot{}
	m := NewManager(svc, slot, WithClock(c.now), WithLogger(quiet))
	return m, slot, c
}

func TestLoginWithCredentials(t *testing.T) {
	m, slot, _ := newTestManager(t)

	sess, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123")
	if err != nil {
		t.Fatalf("LoginWithCredentials() error: %v", err)
	}
	if sess.User().Email != "main@gmail.com" {
		t.Errorf("User().Email = %q, want main@gmail.com", sess.User().Email)
	}
	if sess.User().Name != "Pragya Aggarwal" {
		t.Errorf("User().Name = %q", sess.User().Name)
	}
	if m.State() != Authenticated {
		t.Errorf("State() = %v, want authenticated", m.State())
	}
	if !m.IsAuthenticated() {
		t.Error("IsAuthenticated() = false")
	}
	stored, _ := slot.Load()
	if stored != sess.Token().Bearer() {
		t.Error("token was not persisted to the slot")
	}
}

func TestLoginWithCredentialsWrongPassword(t *testing.T) {
	m, slot, _ := newTestManager(t)

	for _, pw := range []string{"pass@1234", "PASS@123", "", "x"} {
		_, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", pw)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("password %q: err = %v, want ErrInvalidCredentials", pw, err)
		}
	}
	if m.State() != Anonymous {
		t.Errorf("State() = %v, want anonymous", m.State())
	}
	if stored, _ := slot.Load(); stored != "" {
		t.Errorf("slot = %q after failed login, want empty", stored)
	}
}

func TestLoginWithToken(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.LoginWithToken(context.Background(), "main@gmail.com", "wrong-token"); !errors.Is(err, ErrInvalidExternalToken) {
		t.Fatalf("err = %v, want ErrInvalidExternalToken", err)
	}
	sess, err := m.LoginWithToken(context.Background(), "main@gmail.com", "jira_Details")
	if err != nil {
		t.Fatalf("LoginWithToken() error: %v", err)
	}
	if sess.User().ID != "1" {
		t.Errorf("User().ID = %q, want 1", sess.User().ID)
	}
}

func TestFreshLoginCreatesNewSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	first, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123")
	if err != nil {
		t.Fatal(err)
	}
	m.Logout()
	second, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("expected a new Session value after re-login")
	}
	if first.Token() == second.Token() {
		t.Error("expected a new token after re-login")
	}
}

func TestRestore(t *testing.T) {
	m, slot, c := newTestManager(t)
	tok, err := token.Issue(domain.UserRef{ID: "1", Email: "main@gmail.com", Name: "Pragya Aggarwal"}, time.Hour, c.t)
	if err != nil {
		t.Fatal(err)
	}
	if err := slot.Save(tok); err != nil {
		t.Fatal(err)
	}

	sess, ok := m.Restore()
	if !ok {
		t.Fatal("Restore() = false, want restored session")
	}
	if sess.User().Email != "main@gmail.com" {
		t.Errorf("User().Email = %q", sess.User().Email)
	}
	if m.State() != Authenticated {
		t.Errorf("State() = %v, want authenticated", m.State())
	}
}

// Restoring a user no longer in the directory still succeeds: claims are
// taken from the payload as stored.
func TestRestoreDoesNotRevalidateUser(t *testing.T) {
	m, slot, c := newTestManager(t)
	tok, _ := token.Issue(domain.UserRef{ID: "99", Email: "ghost@example.com"}, time.Minute, c.t)
	slot.Save(tok) //nolint:errcheck

	sess, ok := m.Restore()
	if !ok || sess.User().ID != "99" {
		t.Fatalf("Restore() = %v, %v; want session for user 99", sess, ok)
	}
}

func TestRestoreDiscardsBadTokens(t *testing.T) {
	c := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	expired, _ := token.Issue(domain.UserRef{ID: "1", Email: "main@gmail.com"}, time.Hour, c.Add(-2*time.Hour))
	atExpiry, _ := token.Issue(domain.UserRef{ID: "1", Email: "main@gmail.com"}, 0, c)

	tests := []struct {
		name string
		raw  string
	}{
		{"expired", expired},
		{"expires now", atExpiry},
		{"garbage", "not-a-token"},
		{"two segments", "abc.def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, slot, _ := newTestManager(t)
			slot.Save(tt.raw) //nolint:errcheck

			sess, ok := m.Restore()
			if ok || sess != nil {
				t.Fatalf("Restore() = %v, %v; want no session", sess, ok)
			}
			if m.State() != Anonymous || m.IsAuthenticated() {
				t.Errorf("State() = %v, want anonymous", m.State())
			}
			if stored, _ := slot.Load(); stored != "" {
				t.Errorf("slot = %q, want cleared", stored)
			}
		})
	}
}

func TestRestoreEmptySlot(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, ok := m.Restore(); ok {
		t.Error("Restore() on empty slot = true")
	}
	if m.State() != Anonymous {
		t.Errorf("State() = %v, want anonymous", m.State())
	}
}

func TestCheckExpiry(t *testing.T) {
	m, slot, c := newTestManager(t)
	if _, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123"); err != nil {
		t.Fatal(err)
	}

	c.t = c.t.Add(30 * time.Minute)
	if got := m.Check(); got != Authenticated {
		t.Fatalf("Check() before expiry = %v, want authenticated", got)
	}

	c.t = c.t.Add(31 * time.Minute)
	if got := m.Check(); got != Expired {
		t.Fatalf("Check() after expiry = %v, want expired", got)
	}
	if got := m.Check(); got != Anonymous {
		t.Errorf("second Check() = %v, want anonymous", got)
	}
	if stored, _ := slot.Load(); stored != "" {
		t.Error("slot not cleared on expiry")
	}
}

func TestCurrentDetectsExpiryOnRead(t *testing.T) {
	m, _, c := newTestManager(t)
	if _, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123"); err != nil {
		t.Fatal(err)
	}
	c.t = c.t.Add(2 * time.Hour)
	if m.Current() != nil {
		t.Error("Current() returned an expired session")
	}
	if m.State() != Anonymous {
		t.Errorf("State() = %v, want anonymous", m.State())
	}
}

type failingSlot struct{ store.MemorySlot }

func (*failingSlot) Save(string) error { return errors.New("disk full") }
func (*failingSlot) Clear() error      { return errors.New("disk full") }

func TestLoginFailsWhenSlotCannotSave(t *testing.T) {
	dir := authsvc.NewDirectory(bcrypt.MinCost)
	authsvc.Seed(dir) //nolint:errcheck
	m := NewManager(authsvc.NewService(dir, authsvc.WithLogger(quiet)), &failingSlot{}, WithLogger(quiet))

	if _, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123"); err == nil {
		t.Fatal("expected error when token cannot be persisted")
	}
	if m.State() != Anonymous {
		t.Errorf("State() = %v, want anonymous", m.State())
	}
}

func TestLogoutNeverFails(t *testing.T) {
	m := NewManager(nil, &failingSlot{}, WithLogger(quiet))
	m.Logout()
	if m.State() != Anonymous {
		t.Errorf("State() = %v, want anonymous", m.State())
	}

	m2, slot, _ := newTestManager(t)
	if _, err := m2.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123"); err != nil {
		t.Fatal(err)
	}
	m2.Logout()
	m2.Logout()
	if m2.IsAuthenticated() {
		t.Error("IsAuthenticated() after Logout()")
	}
	if stored, _ := slot.Load(); stored != "" {
		t.Error("slot not cleared on logout")
	}
}

func TestTokenRedacted(t *testing.T) {
	tok := Token{raw: "secret"}
	if tok.String() == "secret" || tok.LogValue().String() == "secret" {
		t.Error("token leaked through String or LogValue")
	}
	if tok.Bearer() != "secret" {
		t.Errorf("Bearer() = %q", tok.Bearer())
	}
}

// A token already past exp when it arrives, e.g. from an issuer whose clock
// lags ours, is not a login.
func TestLoginRejectsExpiredToken(t *testing.T) {
	dir := authsvc.NewDirectory(bcrypt.MinCost)
	if err := authsvc.Seed(dir); err != nil {
		t.Fatal(err)
	}
	issuer := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	local := &clock{t: issuer.t.Add(2 * time.Hour)}
	slot := &store.MemorySlot{}
	m := NewManager(authsvc.NewService(dir, authsvc.WithClock(issuer.now), authsvc.WithLogger(quiet)),
		slot, WithClock(local.now), WithLogger(quiet))

	sess, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123")
	if !errors.Is(err, token.ErrExpired) {
		t.Fatalf("err = %v, want token.ErrExpired", err)
	}
	if sess != nil || m.State() != Anonymous || m.IsAuthenticated() {
		t.Errorf("sess = %v, State() = %v; want no session", sess, m.State())
	}
	if stored, _ := slot.Load(); stored != "" {
		t.Errorf("slot = %q, want nothing persisted", stored)
	}
}

func TestFailedReloginEndsPriorSession(t *testing.T) {
	m, slot, _ := newTestManager(t)
	if _, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "pass@123"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.LoginWithCredentials(context.Background(), "main@gmail.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if m.State() != Anonymous {
		t.Errorf("State() = %v, want anonymous", m.State())
	}
	if stored, _ := slot.Load(); stored != "" {
		t.Error("prior token left in the slot")
	}
	if _, ok := m.Restore(); ok {
		t.Error("Restore() brought back the prior session")
	}
}

func TestFailedLoginWhileAnonymousKeepsSlot(t *testing.T) {
	m, slot, _ := newTestManager(t)
	slot.Save("saved-elsewhere") //nolint:errcheck

	m.LoginWithCredentials(context.Background(), "main@gmail.com", "wrong-pass") //nolint:errcheck
	if stored, _ := slot.Load(); stored != "saved-elsewhere" {
		t.Errorf("slot = %q, want untouched", stored)
	}
}

func TestRestoreFallsBackPastBadEnvToken(t *testing.T) {
	m, slot, c := newTestManager(t)
	tok, _ := token.Issue(domain.UserRef{ID: "1", Email: "main@gmail.com"}, time.Hour, c.t)
	slot.Save(tok) //nolint:errcheck
	expired, _ := token.Issue(domain.UserRef{ID: "1", Email: "main@gmail.com"}, time.Hour, c.t.Add(-2*time.Hour))

	for _, override := range []string{"not-a-token", expired} {
		m.slot = store.WithEnvOverride(slot, override)
		sess, ok := m.Restore()
		if !ok || sess.Token().Bearer() != tok {
			t.Fatalf("override %q: Restore() = %v, %v; want the persisted session", override[:8], sess, ok)
		}
		if stored, _ := slot.Load(); stored != tok {
			t.Error("persisted token was cleared")
		}
	}
}
