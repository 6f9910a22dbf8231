package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeUpstream authenticates against the GateWatch core API.
	AuthModeUpstream AuthMode = "upstream"
	// AuthModeOIDC verifies OIDC ID tokens from an external identity
	// provider.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "upstream", "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: upstream, oidc, mock)", v)
	}
}

// UpstreamConfig contains the GateWatch core API connection settings.
// Used when AUTH_MODE=upstream.
type UpstreamConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8000"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"15s"`
}

// OIDCConfig contains OIDC identity provider configuration.
// Used when AUTH_MODE=oidc.
type OIDCConfig struct {
	IssuerURL string `env:"ISSUER_URL"`
	ClientID  string `env:"CLIENT_ID"`

	// RoleClaimPath is a JMESPath expression locating the application role
	// inside the ID token claims (e.g. "app_metadata.gatewatch_role").
	RoleClaimPath string `env:"ROLE_CLAIM_PATH" envDefault:"role"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID      string `env:"USER_ID"      envDefault:"dev-user"`
	Email       string `env:"EMAIL"        envDefault:"dev@campus.edu"`
	Password    string `env:"PASSWORD"     envDefault:"dev-password"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev User"`
	Role        string `env:"ROLE"         envDefault:"admin"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"upstream"`

	// Upstream configuration (used when Mode=upstream).
	Upstream UpstreamConfig `envPrefix:"UPSTREAM_"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// SessionConfig controls server-side session lifetime and storage keys.
type SessionConfig struct {
	// Duration is the absolute session lifetime. Token refreshes do not
	// extend it.
	Duration time.Duration `env:"DURATION" envDefault:"12h"`

	// KeyPrefix namespaces session keys in Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"session:"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.Duration <= 0 {
		s.Duration = 12 * time.Hour
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "session:"
	}
}

// AuditConfig controls retention of the sign-in audit trail.
type AuditConfig struct {
	// Retention is how long audit rows are kept. Zero disables pruning.
	Retention time.Duration `env:"RETENTION" envDefault:"2160h"`

	// PruneInterval is how often the retention job runs.
	PruneInterval time.Duration `env:"PRUNE_INTERVAL" envDefault:"24h"`
}

// Sanitize applies guardrails to audit configuration values.
func (a *AuditConfig) Sanitize() {
	if a.Retention < 0 {
		a.Retention = 0
	}
	if a.PruneInterval <= 0 {
		a.PruneInterval = 24 * time.Hour
	}
}
