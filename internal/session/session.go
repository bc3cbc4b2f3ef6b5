// Package session owns the login lifecycle: it exchanges credentials for a
// bearer token, keeps the token in a durable slot, and tracks whether the
// holder is still authenticated.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskboard/taskboard/internal/token"
	"github.com/taskboard/taskboard/pkg/domain"
)

var (
	ErrInvalidCredentials   = domain.ErrInvalidCredentials
	ErrInvalidExternalToken = domain.ErrInvalidExternalToken
)

// Authenticator exchanges login material for a bearer token.
type Authenticator interface {
	LoginWithCredentials(ctx context.Context, email, password string) (domain.AuthResult, error)
	LoginWithToken(ctx context.Context, email, externalToken string) (domain.AuthResult, error)
}

// Codec decodes a raw token into its claims.
type Codec interface {
	Decode(raw string) (token.Claims, error)
}

// Slot is the durable single-value store for the current token.
type Slot interface {
	Load() (string, error)
	Save(tok string) error
	Clear() error
}

// Discarder is implemented by slots that can drop one rejected token
// without clearing everything they hold.
type Discarder interface {
	Discard(raw string) error
}

// State is the lifecycle state of a Manager.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Token is an opaque bearer credential.
type Token struct {
	raw string
}

// Bearer returns the value to send in an Authorization header.
func (t Token) Bearer() string { return t.raw }

// IsZero reports whether t holds no credential.
func (t Token) IsZero() bool { return t.raw == "" }

func (t Token) String() string { return "Token(redacted)" }

// LogValue keeps tokens out of structured logs.
func (t Token) LogValue() slog.Value { return slog.StringValue("redacted") }

// Session is one authenticated login. A new login yields a new Session.
type Session struct {
	token  Token
	claims token.Claims
}

// Token returns the bearer credential.
func (s *Session) Token() Token { return s.token }

// User returns the identity the token was issued for.
func (s *Session) User() domain.UserRef { return s.claims.User }

// ExpiresAt returns the token expiry.
func (s *Session) ExpiresAt() time.Time { return s.claims.Expiry() }

func (s *Session) expiredAt(now time.Time) bool { return s.claims.ExpiredAt(now) }

// Manager drives the session state machine. It is safe for concurrent use.
type Manager struct {
	auth   Authenticator
	codec  Codec
	slot   Slot
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	current *Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithCodec replaces the token decoder.
func WithCodec(c Codec) Option {
	return func(m *Manager) { m.codec = c }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates an anonymous Manager. Call Restore to pick up a
// persisted session.
func NewManager(auth Authenticator, slot Slot, opts ...Option) *Manager {
	m := &Manager{
		auth:   auth,
		codec:  token.Unverified{},
		slot:   slot,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LoginWithCredentials logs in with email and password.
func (m *Manager) LoginWithCredentials(ctx context.Context, email, password string) (*Session, error) {
	m.begin()
	res, err := m.auth.LoginWithCredentials(ctx, email, password)
	sess, err := m.finish(res, err)
	if err != nil {
		return nil, fmt.Errorf("session.LoginWithCredentials: %w", err)
	}
	return sess, nil
}

// LoginWithToken logs in with email and an external tracker API token.
func (m *Manager) LoginWithToken(ctx context.Context, email, externalToken string) (*Session, error) {
	m.begin()
	res, err := m.auth.LoginWithToken(ctx, email, externalToken)
	sess, err := m.finish(res, err)
	if err != nil {
		return nil, fmt.Errorf("session.LoginWithToken: %w", err)
	}
	return sess, nil
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.state = Authenticating
	m.mu.Unlock()
}

func (m *Manager) finish(res domain.AuthResult, authErr error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A failed login ends any session held before it, in memory and in the slot.
	fail := func(err error) (*Session, error) {
		if m.current != nil {
			m.clearLocked()
		} else {
			m.resetLocked()
		}
		return nil, err
	}
	if authErr != nil {
		return fail(authErr)
	}
	claims, err := m.codec.Decode(res.Token)
	if err != nil {
		return fail(err)
	}
	if claims.ExpiredAt(m.now()) {
		m.logger.Warn("session_rejected", "reason", "expired", "expires_at", claims.Expiry())
		return fail(token.ErrExpired)
	}
	if err := m.slot.Save(res.Token); err != nil {
		return fail(err)
	}
	m.current = &Session{token: Token{raw: res.Token}, claims: claims}
	m.state = Authenticated
	m.logger.Info("session_started", "user_id", claims.User.ID, "expires_at", claims.Expiry())
	return m.current, nil
}

// Restore loads the persisted token. A token that cannot be decoded or has
// expired is discarded and reported as no session. Slots implementing
// Discarder drop only the rejected token and are read once more.
func (m *Manager) Restore() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for range 2 {
		raw, err := m.slot.Load()
		if err != nil {
			m.logger.Warn("session_restore_failed", "error", err)
			m.resetLocked()
			return nil, false
		}
		if raw == "" {
			m.resetLocked()
			return nil, false
		}
		claims, err := m.codec.Decode(raw)
		switch {
		case err != nil:
			m.logger.Info("session_discarded", "reason", "decode")
		case claims.ExpiredAt(m.now()):
			m.logger.Info("session_discarded", "reason", "expired")
		default:
			m.current = &Session{token: Token{raw: raw}, claims: claims}
			m.state = Authenticated
			return m.current, true
		}

		d, ok := m.slot.(Discarder)
		if !ok {
			m.clearLocked()
			return nil, false
		}
		if err := d.Discard(raw); err != nil {
			m.logger.Warn("session_clear_failed", "error", err)
			m.resetLocked()
			return nil, false
		}
	}
	m.resetLocked()
	return nil, false
}

// Current returns the live session, or nil when anonymous. Expiry is
// re-checked on every call.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	return m.current
}

// IsAuthenticated reports whether an unexpired session is held.
func (m *Manager) IsAuthenticated() bool {
	return m.Current() != nil
}

// Check is the periodic expiry probe. It returns Expired exactly once when the
// held session lapses, after which the manager is Anonymous with the slot
// cleared. Otherwise it returns the current state.
func (m *Manager) Check() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expireLocked() {
		return Expired
	}
	return m.state
}

// Logout discards the session. It never fails; slot errors are logged.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.logger.Info("logout", "user_id", m.current.claims.User.ID)
	}
	m.clearLocked()
}

func (m *Manager) expireLocked() bool {
	if m.current == nil || !m.current.expiredAt(m.now()) {
		return false
	}
	m.state = Expired
	m.logger.Info("session_expired", "user_id", m.current.claims.User.ID)
	m.clearLocked()
	return true
}

func (m *Manager) clearLocked() {
	if err := m.slot.Clear(); err != nil {
		m.logger.Warn("session_clear_failed", "error", err)
	}
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.current = nil
	m.state = Anonymous
}
