package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/gatewatch/ui-gateway/config"
	"github.com/gatewatch/ui-gateway/internal/adapters/devauth"
	"github.com/gatewatch/ui-gateway/internal/adapters/oidcauth"
	redisadapter "github.com/gatewatch/ui-gateway/internal/adapters/redis"
	"github.com/gatewatch/ui-gateway/internal/adapters/upstream"
	"github.com/gatewatch/ui-gateway/internal/ports"
	"github.com/gatewatch/ui-gateway/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	Session     config.SessionConfig
	RedisClient redis.UniversalClient
	Audit       ports.SignInAudit
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service for the configured auth mode.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, fmt.Errorf("auth service requires a redis client")
	}

	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Session.KeyPrefix)

	var (
		authenticator ports.Authenticator
		profiles      ports.ProfileProvider
		resetter      ports.PasswordResetter
	)

	switch cfg.Auth.Mode {
	case config.AuthModeUpstream:
		client, err := upstream.NewClient(upstream.ClientConfig{
			BaseURL:    cfg.Auth.Upstream.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.Auth.Upstream.Timeout},
		})
		if err != nil {
			return nil, fmt.Errorf("build upstream client: %w", err)
		}
		authenticator, profiles, resetter = client, client, client

	case config.AuthModeOIDC:
		verifier, err := oidcauth.NewVerifier(ctx, oidcauth.VerifierConfig{
			IssuerURL:     cfg.Auth.OIDC.IssuerURL,
			ClientID:      cfg.Auth.OIDC.ClientID,
			RoleClaimPath: cfg.Auth.OIDC.RoleClaimPath,
		})
		if err != nil {
			return nil, fmt.Errorf("build OIDC verifier: %w", err)
		}
		// Password resets stay unavailable; the IdP owns credentials.
		authenticator, profiles = verifier, verifier

	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:      cfg.Auth.DevAuth.UserID,
			Email:       cfg.Auth.DevAuth.Email,
			Password:    cfg.Auth.DevAuth.Password,
			DisplayName: cfg.Auth.DevAuth.DisplayName,
			Role:        cfg.Auth.DevAuth.Role,
		})
		if err != nil {
			return nil, fmt.Errorf("build dev auth provider: %w", err)
		}
		if cfg.Logger != nil {
			cfg.Logger.Warn("mock auth mode enabled; do not use in production",
				"email", cfg.Auth.DevAuth.Email, "role", cfg.Auth.DevAuth.Role)
		}
		authenticator, profiles, resetter = prov, prov, prov

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Authenticator:   authenticator,
		Profiles:        profiles,
		Sessions:        sessionStore,
		Audit:           cfg.Audit,
		Resetter:        resetter,
		SessionDuration: cfg.Session.Duration,
		Logger:          cfg.Logger,
	}), nil
}
