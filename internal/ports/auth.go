package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
)

// Credentials carries a sign-in attempt. Exactly one of Password or IDToken
// is set depending on the configured auth mode.
type Credentials struct {
	Email    string
	Password string
	IDToken  string
}

// TokenPair is the bearer credential set issued by the core API.
type TokenPair struct {
	Access  string
	Refresh string
}

// Authenticator exchanges credentials for tokens with the identity backend.
// Failures are reported through the domainauth taxonomy so the service can
// react without inspecting transport details.
type Authenticator interface {
	// Authenticate verifies the credentials and returns the issued tokens.
	Authenticate(ctx context.Context, creds Credentials) (TokenPair, error)

	// Refresh exchanges a refresh token for a fresh access token.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// ProfileProvider resolves the profile behind a valid access token. The
// returned role is authoritative; the gateway never recomputes it or caches
// a stale value across sign-ins.
type ProfileProvider interface {
	Profile(ctx context.Context, accessToken string) (domainauth.Identity, error)
}

// PasswordResetter requests a password reset for an email address.
// Emails outside the reset allow-list fail with ErrUnauthorizedEmail.
type PasswordResetter interface {
	RequestPasswordReset(ctx context.Context, email string) error
}

// SessionStore persists and retrieves user sessions.
// Save is all-or-nothing; Get never surfaces a corrupt session (corrupt
// entries are purged and reported as ErrSessionNotFound); Delete is
// idempotent.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// SignInAudit records the outcome of sign-in attempts for operational
// review. Implementations must be safe to skip: audit failures never block
// the sign-in path.
type SignInAudit interface {
	RecordSignIn(ctx context.Context, rec SignInRecord) error
}

// SignInRecord is a single audited sign-in attempt.
type SignInRecord struct {
	Email      string
	Succeeded  bool
	FailReason string
	RemoteAddr string
}
