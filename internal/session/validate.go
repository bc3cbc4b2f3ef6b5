package session

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLen = 6
	MinAPITokenLen = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError holds per-field form problems keyed by field name
// ("email", "password", "token").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ValidateCredentials checks an email + password form before submission.
func ValidateCredentials(email, password string) error {
	fields := map[string]string{}
	checkEmail(fields, email)
	switch {
	case password == "":
		fields["password"] = "password is required"
	case utf8.RuneCountInString(password) < MinPasswordLen:
		fields["password"] = "password must be at least 6 characters"
	}
	return asError(fields)
}

// ValidateExternalToken checks an email + API token form before submission.
func ValidateExternalToken(email, tok string) error {
	fields := map[string]string{}
	checkEmail(fields, email)
	switch {
	case tok == "":
		fields["token"] = "api token is required"
	case utf8.RuneCountInString(tok) < MinAPITokenLen:
		fields["token"] = "api token must be at least 8 characters"
	}
	return asError(fields)
}

func checkEmail(fields map[string]string, email string) {
	switch {
	case email == "":
		fields["email"] = "email is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "email is invalid"
	}
}

func asError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
