package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator    = (*MockAuthenticator)(nil)
	_ ports.ProfileProvider  = (*MockProfileProvider)(nil)
	_ ports.PasswordResetter = (*MockResetter)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.SignInAudit      = (*RecordingAudit)(nil)
)

// MockAuthenticator simulates the identity backend with deterministic tokens.
type MockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, creds ports.Credentials) (ports.TokenPair, error)
	RefreshFunc      func(ctx context.Context, refreshToken string) (ports.TokenPair, error)

	// Expected credentials for the default behavior. Empty Email accepts
	// any credentials.
	Email    string
	Password string

	callCount int
}

// NewMockAuthenticator creates a MockAuthenticator that accepts any
// credentials and issues numbered tokens.
func NewMockAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{}
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, creds ports.Credentials) (ports.TokenPair, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, creds)
	}
	if m.Email != "" && (creds.Email != m.Email || creds.Password != m.Password) {
		return ports.TokenPair{}, domainauth.ErrInvalidCredentials
	}
	m.callCount++
	return ports.TokenPair{
		Access:  fmt.Sprintf("access-%d", m.callCount),
		Refresh: fmt.Sprintf("refresh-%d", m.callCount),
	}, nil
}

func (m *MockAuthenticator) Refresh(ctx context.Context, refreshToken string) (ports.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	if refreshToken == "" {
		return ports.TokenPair{}, domainauth.ErrInvalidCredentials
	}
	m.callCount++
	return ports.TokenPair{
		Access:  fmt.Sprintf("access-%d", m.callCount),
		Refresh: fmt.Sprintf("refresh-%d", m.callCount),
	}, nil
}

// MockProfileProvider resolves every token to a fixed identity.
type MockProfileProvider struct {
	ProfileFunc func(ctx context.Context, accessToken string) (domainauth.Identity, error)

	DefaultIdentity domainauth.Identity
}

// NewMockProfileProvider creates a provider with a sensible default identity.
func NewMockProfileProvider() *MockProfileProvider {
	return &MockProfileProvider{
		DefaultIdentity: domainauth.Identity{
			UserID:      "mock-user-1",
			Email:       "mock.user@campus.edu",
			DisplayName: "Mock User",
			Role:        domainauth.RoleSecurity,
		},
	}
}

func (m *MockProfileProvider) Profile(ctx context.Context, accessToken string) (domainauth.Identity, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, accessToken)
	}
	identity := m.DefaultIdentity
	identity.AccessToken = accessToken
	return identity, nil
}

// MockResetter records password-reset requests.
type MockResetter struct {
	ResetFunc func(ctx context.Context, email string) error

	mu     sync.Mutex
	Emails []string
}

func (m *MockResetter) RequestPasswordReset(ctx context.Context, email string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, email)
	}
	m.mu.Lock()
	m.Emails = append(m.Emails, email)
	m.mu.Unlock()
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests.
// It mirrors the Redis store's contract: Get reports ErrSessionNotFound for
// unknown IDs and Delete is idempotent.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// SaveErr, when set, makes Save fail. Useful for persistence-failure
	// paths.
	SaveErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid session: %w", err)
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RecordingAudit collects sign-in records in memory.
type RecordingAudit struct {
	RecordFunc func(ctx context.Context, rec ports.SignInRecord) error

	mu      sync.Mutex
	Records []ports.SignInRecord
}

func (a *RecordingAudit) RecordSignIn(ctx context.Context, rec ports.SignInRecord) error {
	if a.RecordFunc != nil {
		return a.RecordFunc(ctx, rec)
	}
	a.mu.Lock()
	a.Records = append(a.Records, rec)
	a.mu.Unlock()
	return nil
}

// Last returns the most recent record, or a zero record when empty.
func (a *RecordingAudit) Last() ports.SignInRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Records) == 0 {
		return ports.SignInRecord{}
	}
	return a.Records[len(a.Records)-1]
}
