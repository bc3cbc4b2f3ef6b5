package domain

import "errors"

var (
	// ErrInvalidCredentials is returned when no user matches an email + password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidExternalToken is returned when no user matches an email + API token pair.
	ErrInvalidExternalToken = errors.New("invalid api token")
)
