package authsvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskboard/taskboard/internal/token"
	"github.com/taskboard/taskboard/pkg/domain"
)

// DefaultTTL is the lifetime of issued session tokens.
const DefaultTTL = time.Hour

// Service logs users in against a Directory and issues session tokens.
type Service struct {
	dir    *Directory
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a login service over dir.
func NewService(dir *Directory, opts ...Option) *Service {
	s := &Service{
		dir:    dir,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginWithCredentials checks email + password and issues a session token.
func (s *Service) LoginWithCredentials(_ context.Context, email, password string) (domain.AuthResult, error) {
	user, ok := s.dir.MatchPassword(email, password)
	if !ok {
		s.logger.Warn("login_failed", "method", "credentials", "email", email)
		return domain.AuthResult{}, domain.ErrInvalidCredentials
	}
	return s.issue(user, "credentials")
}

// LoginWithToken checks email + tracker API token and issues a session token.
func (s *Service) LoginWithToken(_ context.Context, email, externalToken string) (domain.AuthResult, error) {
	user, ok := s.dir.MatchExternalToken(email, externalToken)
	if !ok {
		s.logger.Warn("login_failed", "method", "token", "email", email)
		return domain.AuthResult{}, domain.ErrInvalidExternalToken
	}
	return s.issue(user, "token")
}

// IssueSessionToken issues a token for user valid for ttl.
func (s *Service) IssueSessionToken(user domain.UserRef, ttl time.Duration) (string, error) {
	return token.Issue(user, ttl, s.now())
}

func (s *Service) issue(user domain.UserRef, method string) (domain.AuthResult, error) {
	tok, err := s.IssueSessionToken(user, s.ttl)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("authsvc.issue: %w", err)
	}
	s.logger.Info("login", "method", method, "user_id", user.ID)
	return domain.AuthResult{Token: tok, User: user}, nil
}
