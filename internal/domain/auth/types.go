package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"fmt"
	"time"
)

// Role represents an application authorization role. The set is closed: the
// GateWatch core API asserts one of the values below for every account, and
// the gateway never invents or widens it.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
)

// ParseRole validates a role string asserted by the core API.
// Anything outside the closed set is an error; callers treat that as an
// invalid session, never as a crash.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSecurity:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Identity represents the authenticated principal as asserted by the core
// API: profile fields plus the bearer credentials issued for it.
type Identity struct {
	UserID       string // stable account identifier issued by the core API
	Email        string
	DisplayName  string // cosmetic only
	Role         Role
	AccessToken  string
	RefreshToken string
}

// Validate enforces the identity invariant: a usable identity always has an
// ID and a role drawn from the closed set.
func (i Identity) Validate() error {
	if i.UserID == "" {
		return errors.New("identity user ID is empty")
	}
	if !i.Role.Valid() {
		return fmt.Errorf("identity role %q is not in the allowed set", i.Role)
	}
	return nil
}

// Session is the server-side record persisted for an authenticated user.
// ID is an opaque session identifier (random, URL-safe).
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Identity returns the principal view of the session.
func (s Session) Identity() Identity {
	return Identity{
		UserID:       s.UserID,
		Email:        s.Email,
		DisplayName:  s.DisplayName,
		Role:         s.Role,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
}

// Validate enforces the session invariant: a stored session must carry a
// non-empty ID, a valid principal, and an expiry. A session failing this is
// indistinguishable from "never logged in" and must be purged by stores.
func (s Session) Validate() error {
	if s.ID == "" {
		return errors.New("session ID is empty")
	}
	if err := s.Identity().Validate(); err != nil {
		return err
	}
	if s.ExpiresAt.IsZero() {
		return errors.New("session expiry is unset")
	}
	return nil
}
