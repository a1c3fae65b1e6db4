// Package session holds the client-side authentication state and the
// navigation gate that role-scoped screens consult before rendering.
package session

import (
	"errors"
	"strings"
	"time"
)

// Identity is the profile attached to a session.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Approved  bool      `json:"is_approved"`
	Suspended bool      `json:"is_suspended"`
	CreatedAt time.Time `json:"created_at"`
}

// Session pairs a credential with the identity it belongs to. The two are
// only ever valid together; a session missing either half is rejected.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	Identity     Identity `json:"identity"`
}

// ErrIncomplete rejects a session with a credential but no identity, or the
// reverse.
var ErrIncomplete = errors.New("session requires both credential and identity")

// Validate checks the both-or-none invariant.
func (s *Session) Validate() error {
	if s == nil {
		return nil
	}
	if strings.TrimSpace(s.AccessToken) == "" || s.Identity.ID == "" {
		return ErrIncomplete
	}
	return nil
}

// Role returns the session's role, or "" for a nil session.
func (s *Session) Role() string {
	if s == nil {
		return ""
	}
	return s.Identity.Role
}
