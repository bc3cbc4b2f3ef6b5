// Package token issues and decodes the JWT-shaped session tokens handed out
// by the mock auth service.
//
// Tokens are three base64url segments (header, payload, signature) but the
// signature is a constant placeholder: nothing here verifies integrity, and
// holders must treat the string as an opaque bearer credential.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskboard/taskboard/pkg/domain"
)

// Placeholder is the fixed, non-verifying signature segment (pre-encoding).
const Placeholder = "dummy-sign"

var (
	// ErrDecode is returned for tokens that are not three well-formed segments
	// with a JSON payload carrying an expiry.
	ErrDecode = errors.New("token: decode failed")
	// ErrExpired is returned when the payload's exp is not in the future.
	ErrExpired = errors.New("token: expired")
)

// Claims is the decoded token payload.
type Claims struct {
	User domain.UserRef `json:"user"`
	jwt.RegisteredClaims
}

// Expiry returns the exp claim, or the zero time when absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ExpiredAt reports whether the claims are expired at now.
func (c Claims) ExpiredAt(now time.Time) bool {
	return !c.Expiry().After(now)
}

// Issue builds a token for user expiring ttl after now.
func Issue(user domain.UserRef, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signing, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SigningString()
	if err != nil {
		return "", fmt.Errorf("token.Issue: %w", err)
	}
	return signing + "." + base64.RawURLEncoding.EncodeToString([]byte(Placeholder)), nil
}

// Decode parses the payload of raw without verifying the signature.
func Decode(raw string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp", ErrDecode)
	}
	return claims, nil
}

// Validate decodes raw and rejects it when expired at now.
func Validate(raw string, now time.Time) (Claims, error) {
	claims, err := Decode(raw)
	if err != nil {
		return Claims{}, err
	}
	if claims.ExpiredAt(now) {
		return Claims{}, ErrExpired
	}
	return claims, nil
}

// Unverified is the decode-only codec used by session managers.
type Unverified struct{}

// Decode implements the session codec.
func (Unverified) Decode(raw string) (Claims, error) {
	return Decode(raw)
}
