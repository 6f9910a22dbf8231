package devauth

// Package devauth provides a config-driven auth backend for local development.
// It accepts a single configured email/password pair and hands back the
// configured identity, so the gateway can run without the core API.

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	UserID      string
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// Provider implements ports.Authenticator and ports.ProfileProvider for
// local development. Tokens are random opaque strings; the provider tracks
// which access tokens it has issued so Profile can reject strangers.
type Provider struct {
	identity domainauth.Identity
	password string

	mu     sync.Mutex
	issued map[string]struct{}
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}
	role, err := domainauth.ParseRole(cfg.Role)
	if err != nil {
		return nil, fmt.Errorf("dev auth: %w", err)
	}
	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = cfg.Email
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID:      cfg.UserID,
			Email:       cfg.Email,
			DisplayName: displayName,
			Role:        role,
		},
		password: cfg.Password,
		issued:   make(map[string]struct{}),
	}, nil
}

// Authenticate checks the configured credential pair and issues fresh tokens.
func (p *Provider) Authenticate(_ context.Context, creds ports.Credentials) (ports.TokenPair, error) {
	if creds.Email != p.identity.Email {
		return ports.TokenPair{}, domainauth.ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(creds.Password), []byte(p.password)) != 1 {
		return ports.TokenPair{}, domainauth.ErrInvalidCredentials
	}
	return p.issuePair()
}

// Refresh issues a fresh pair when the refresh token was one of ours.
func (p *Provider) Refresh(_ context.Context, refreshToken string) (ports.TokenPair, error) {
	p.mu.Lock()
	_, ok := p.issued[refreshToken]
	p.mu.Unlock()
	if !ok {
		return ports.TokenPair{}, domainauth.ErrInvalidCredentials
	}
	return p.issuePair()
}

// Profile returns the configured identity for any token this provider issued.
func (p *Provider) Profile(_ context.Context, accessToken string) (domainauth.Identity, error) {
	p.mu.Lock()
	_, ok := p.issued[accessToken]
	p.mu.Unlock()
	if !ok {
		return domainauth.Identity{}, domainauth.ErrInvalidCredentials
	}
	return p.identity, nil
}

// RequestPasswordReset is a no-op in dev mode.
func (p *Provider) RequestPasswordReset(_ context.Context, email string) error {
	if email != p.identity.Email {
		return domainauth.ErrUnauthorizedEmail
	}
	return nil
}

func (p *Provider) issuePair() (ports.TokenPair, error) {
	access, err := randomString(32)
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := randomString(32)
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	p.mu.Lock()
	p.issued[access] = struct{}{}
	p.issued[refresh] = struct{}{}
	p.mu.Unlock()
	return ports.TokenPair{Access: access, Refresh: refresh}, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		// pad
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
