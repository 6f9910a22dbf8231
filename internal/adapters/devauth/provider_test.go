package devauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/ports"
)

func testConfig() Config {
	return Config{
		UserID:      "dev-1",
		Email:       "dev@campus.edu",
		Password:    "dev-password",
		DisplayName: "Dev User",
		Role:        "admin",
	}
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing user ID", func(c *Config) { c.UserID = "" }, "UserID is required"},
		{"missing email", func(c *Config) { c.Email = "" }, "Email is required"},
		{"missing password", func(c *Config) { c.Password = "" }, "Password is required"},
		{"bad role", func(c *Config) { c.Role = "student" }, "role is missing or unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewProvider(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_AuthenticateAndProfile(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	pair, err := p.Authenticate(ctx, ports.Credentials{Email: "dev@campus.edu", Password: "dev-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	identity, err := p.Profile(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", identity.UserID)
	assert.Equal(t, "Dev User", identity.DisplayName)
	assert.Equal(t, domainauth.RoleAdmin, identity.Role)
}

func TestProvider_Authenticate_WrongCredentials(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.Authenticate(ctx, ports.Credentials{Email: "dev@campus.edu", Password: "nope"})
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

	_, err = p.Authenticate(ctx, ports.Credentials{Email: "other@campus.edu", Password: "dev-password"})
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
}

func TestProvider_Profile_UnknownToken(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)

	_, err = p.Profile(context.Background(), "never-issued")
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
}

func TestProvider_Refresh(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	pair, err := p.Authenticate(ctx, ports.Credentials{Email: "dev@campus.edu", Password: "dev-password"})
	require.NoError(t, err)

	fresh, err := p.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.Access)
	assert.NotEqual(t, pair.Access, fresh.Access)

	_, err = p.Refresh(ctx, "never-issued")
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
}

func TestProvider_RequestPasswordReset(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.RequestPasswordReset(ctx, "dev@campus.edu"))
	assert.ErrorIs(t, p.RequestPasswordReset(ctx, "other@campus.edu"), domainauth.ErrUnauthorizedEmail)
}

func TestProvider_ImplementsInterfaces(t *testing.T) {
	p, err := NewProvider(testConfig())
	require.NoError(t, err)
	var _ ports.Authenticator = p
	var _ ports.ProfileProvider = p
	var _ ports.PasswordResetter = p
}
