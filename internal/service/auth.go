package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/ports"
)

// DefaultSessionDuration bounds a session when no duration is configured.
const DefaultSessionDuration = 12 * time.Hour

// AuthServiceOptions groups dependencies for AuthService.
// Audit and Resetter are optional; the rest are required.
type AuthServiceOptions struct {
	Authenticator   ports.Authenticator
	Profiles        ports.ProfileProvider
	Sessions        ports.SessionStore
	Audit           ports.SignInAudit
	Resetter        ports.PasswordResetter
	SessionDuration time.Duration
	Logger          *slog.Logger
}

// AuthService orchestrates sign-in, sign-out and session resolution by
// coordinating the authenticator, profile provider and session store.
type AuthService struct {
	authenticator   ports.Authenticator
	profiles        ports.ProfileProvider
	sessions        ports.SessionStore
	audit           ports.SignInAudit
	resetter        ports.PasswordResetter
	sessionDuration time.Duration
	logger          *slog.Logger

	// signInMu serializes sign-in attempts. A second attempt arriving while
	// one is in flight observes either the logged-out state or the fully
	// stored new session, never a half-written one.
	signInMu sync.Mutex
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	dur := opts.SessionDuration
	if dur == 0 {
		dur = DefaultSessionDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator:   opts.Authenticator,
		profiles:        opts.Profiles,
		sessions:        opts.Sessions,
		audit:           opts.Audit,
		resetter:        opts.Resetter,
		sessionDuration: dur,
		logger:          logger,
	}
}

// SignInInput groups parameters for a sign-in attempt.
type SignInInput struct {
	Email      string
	Password   string
	IDToken    string
	RemoteAddr string
}

// SignIn authenticates the credentials, resolves the profile behind the
// issued tokens and persists a new session. The session is stored before
// success is reported; any failure leaves no session behind.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*domainauth.Session, error) {
	s.signInMu.Lock()
	defer s.signInMu.Unlock()

	creds := ports.Credentials{
		Email:    input.Email,
		Password: input.Password,
		IDToken:  input.IDToken,
	}

	// Token sign-ins carry no email in the request; once the profile is
	// resolved its email takes over so the attempt is attributable in the
	// audit trail.
	auditEmail := input.Email

	pair, err := s.authenticator.Authenticate(ctx, creds)
	if err != nil {
		s.recordSignIn(ctx, auditEmail, input.RemoteAddr, err)
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	identity, err := s.profiles.Profile(ctx, pair.Access)
	if err != nil {
		s.recordSignIn(ctx, auditEmail, input.RemoteAddr, err)
		return nil, fmt.Errorf("resolve profile: %w", err)
	}
	identity.AccessToken = pair.Access
	identity.RefreshToken = pair.Refresh
	if identity.Email != "" {
		auditEmail = identity.Email
	}
	if err := identity.Validate(); err != nil {
		s.recordSignIn(ctx, auditEmail, input.RemoteAddr, err)
		return nil, fmt.Errorf("invalid identity from backend: %w", err)
	}

	session := domainauth.Session{
		ID:           generateSessionID(),
		UserID:       identity.UserID,
		Email:        identity.Email,
		DisplayName:  identity.DisplayName,
		Role:         identity.Role,
		AccessToken:  identity.AccessToken,
		RefreshToken: identity.RefreshToken,
		ExpiresAt:    time.Now().Add(s.sessionDuration),
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		s.recordSignIn(ctx, auditEmail, input.RemoteAddr, saveErr)
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.recordSignIn(ctx, auditEmail, input.RemoteAddr, nil)
	return &session, nil
}

// Session resolves a session ID to a live session. Expired or missing
// sessions report ErrSessionNotFound; expired ones are cleaned up on the way.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, domainauth.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			s.logger.Warn("cleanup of expired session failed",
				slog.String("session_id", sessionID),
				slog.String("error", deleteErr.Error()))
		}
		return nil, domainauth.ErrSessionNotFound
	}

	return &session, nil
}

// Refresh exchanges the session's refresh token for a fresh access token and
// stores the updated session. The session's own expiry does not move; only
// the upstream credentials are renewed.
func (s *AuthService) Refresh(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pair, err := s.authenticator.Refresh(ctx, session.RefreshToken)
	if err != nil {
		if errors.Is(err, domainauth.ErrInvalidCredentials) {
			// Refresh token no longer works upstream; the session is dead.
			if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
				s.logger.Warn("cleanup of stale session failed",
					slog.String("session_id", sessionID),
					slog.String("error", deleteErr.Error()))
			}
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("refresh tokens: %w", err)
	}

	session.AccessToken = pair.Access
	if pair.Refresh != "" {
		session.RefreshToken = pair.Refresh
	}
	if saveErr := s.sessions.Save(ctx, *session); saveErr != nil {
		return nil, fmt.Errorf("save refreshed session: %w", saveErr)
	}
	return session, nil
}

// SignOut removes a session. Signing out an unknown or already removed
// session is not an error.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to sign out
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// RequestPasswordReset forwards a reset request to the identity backend.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if s.resetter == nil {
		return errors.New("password reset is not available in this auth mode")
	}
	return s.resetter.RequestPasswordReset(ctx, email)
}

// recordSignIn writes an audit row for the attempt. Audit problems are
// logged and swallowed; they never affect the sign-in outcome. The email may
// be empty when a token sign-in fails before any profile is resolved.
func (s *AuthService) recordSignIn(ctx context.Context, email, remoteAddr string, signInErr error) {
	if s.audit == nil {
		return
	}

	rec := ports.SignInRecord{
		Email:      email,
		Succeeded:  signInErr == nil,
		RemoteAddr: remoteAddr,
	}
	if signInErr != nil {
		rec.FailReason = failReason(signInErr)
	}

	if err := s.audit.RecordSignIn(ctx, rec); err != nil {
		s.logger.Warn("sign-in audit write failed",
			slog.String("email", email),
			slog.String("error", err.Error()))
	}
}

// failReason maps a sign-in error to a stable audit label.
func failReason(err error) string {
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domainauth.ErrUnknownRole):
		return "unknown_role"
	case errors.Is(err, domainauth.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, domainauth.ErrUpstreamFailure):
		return "upstream_failure"
	default:
		return "internal_error"
	}
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// UUID is URL-safe and has good entropy
	return uuid.New().String()
}
