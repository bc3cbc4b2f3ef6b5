// Package authsvc is the in-process auth collaborator: a small user
// directory and a login service that issues unsigned session tokens.
//
// It stands in for a real credential exchange. The contract it offers
// (email + secret in, opaque bearer token + user out) is the one a server
// replacement has to keep.
package authsvc

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/taskboard/pkg/domain"
)

// ErrDuplicateEmail is returned when adding a second record for an email.
var ErrDuplicateEmail = errors.New("authsvc: email already registered")

// Record is a stored user with its login secrets.
type Record struct {
	User          domain.UserRef
	PasswordHash  []byte
	ExternalToken string
}

// Directory holds user records. Safe for concurrent use.
type Directory struct {
	mu      sync.RWMutex
	cost    int
	records []Record
}

// NewDirectory creates an empty directory hashing passwords at cost.
// A cost below bcrypt.MinCost falls back to bcrypt.DefaultCost.
func NewDirectory(cost int) *Directory {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Directory{cost: cost}
}

// Add registers a user with a generated id.
func (d *Directory) Add(email, password, name, externalToken string) (domain.UserRef, error) {
	return d.AddWithID(uuid.NewString(), email, password, name, externalToken)
}

// AddWithID registers a user under a fixed id.
func (d *Directory) AddWithID(id, email, password, name, externalToken string) (domain.UserRef, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return domain.UserRef{}, fmt.Errorf("authsvc.Add: hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.records {
		if strings.EqualFold(r.User.Email, email) {
			return domain.UserRef{}, ErrDuplicateEmail
		}
	}
	user := domain.UserRef{ID: id, Email: email, Name: name}
	d.records = append(d.records, Record{User: user, PasswordHash: hash, ExternalToken: externalToken})
	return user, nil
}

// MatchPassword returns the user whose email and password both match exactly.
func (d *Directory) MatchPassword(email, password string) (domain.UserRef, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.records {
		if r.User.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(r.PasswordHash, []byte(password)) == nil {
			return r.User, true
		}
	}
	return domain.UserRef{}, false
}

// MatchExternalToken returns the user whose email and stored tracker token
// both match exactly.
func (d *Directory) MatchExternalToken(email, tok string) (domain.UserRef, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.records {
		if r.User.Email != email || r.ExternalToken == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(r.ExternalToken), []byte(tok)) == 1 {
			return r.User, true
		}
	}
	return domain.UserRef{}, false
}

// Len returns the number of records.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// Seed adds the built-in demo account.
func Seed(d *Directory) error {
	_, err := d.AddWithID("1", "main@gmail.com", "pass@123", "Pragya Aggarwal", "jira_Details")
	return err
}
