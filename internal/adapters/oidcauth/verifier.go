package oidcauth

// Package oidcauth implements ID-token sign-in against an OIDC issuer.
// The browser obtains an ID token from the identity provider and posts it
// to the gateway; the gateway verifies the token against the issuer's JWKS
// and derives the GateWatch role from a configurable claim path.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/ports"
)

// DefaultRoleClaimPath is used when no claim path is configured.
const DefaultRoleClaimPath = "role"

// Verifier implements ports.Authenticator and ports.ProfileProvider using a
// verified OIDC ID token as the credential. There is no refresh flow in this
// mode; when the token expires the user signs in again.
type Verifier struct {
	provider      *gooidc.Provider
	verifier      *gooidc.IDTokenVerifier
	roleClaimPath string
}

// VerifierConfig holds configuration for the OIDC verifier.
type VerifierConfig struct {
	IssuerURL     string
	ClientID      string
	RoleClaimPath string       // JMESPath into the ID-token claims, defaults to "role"
	HTTPClient    *http.Client // Optional, defaults to a 30s-timeout client
}

// NewVerifier creates an OIDC verifier. It performs a single discovery fetch
// against the issuer.
func NewVerifier(ctx context.Context, config VerifierConfig) (*Verifier, error) {
	if config.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	claimPath := config.RoleClaimPath
	if claimPath == "" {
		claimPath = DefaultRoleClaimPath
	}
	// Fail at startup rather than on the first sign-in.
	if _, err := jmespath.Compile(claimPath); err != nil {
		return nil, fmt.Errorf("compile role claim path %q: %w", claimPath, err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.IssuerURL, "/")
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Verifier{
		provider:      provider,
		verifier:      provider.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		roleClaimPath: claimPath,
	}, nil
}

// Authenticate verifies the posted ID token. The verified token itself acts
// as the access credential for this session.
func (v *Verifier) Authenticate(ctx context.Context, creds ports.Credentials) (ports.TokenPair, error) {
	if creds.IDToken == "" {
		return ports.TokenPair{}, domainauth.ErrInvalidCredentials
	}
	if _, err := v.verifier.Verify(ctx, creds.IDToken); err != nil {
		return ports.TokenPair{}, fmt.Errorf("%w: %v", domainauth.ErrInvalidCredentials, err)
	}
	return ports.TokenPair{Access: creds.IDToken}, nil
}

// Refresh is not supported for ID-token sign-in.
func (v *Verifier) Refresh(_ context.Context, _ string) (ports.TokenPair, error) {
	return ports.TokenPair{}, fmt.Errorf("%w: id-token sessions cannot be refreshed", domainauth.ErrInvalidCredentials)
}

// Profile re-verifies the token and maps its claims to an identity. The role
// comes from the configured claim path; anything outside the known role set
// is rejected.
func (v *Verifier) Profile(ctx context.Context, accessToken string) (domainauth.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, accessToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %v", domainauth.ErrInvalidCredentials, err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return domainauth.Identity{}, fmt.Errorf("parse id_token claims: %w", err)
	}

	role, err := v.roleFromClaims(claims)
	if err != nil {
		return domainauth.Identity{}, err
	}

	identity := domainauth.Identity{
		UserID:      stringClaim(claims, "sub"),
		Email:       stringClaim(claims, "email"),
		DisplayName: stringClaim(claims, "name"),
		Role:        role,
	}
	if identity.DisplayName == "" {
		identity.DisplayName = stringClaim(claims, "preferred_username")
	}

	// Some issuers keep email out of the ID token; fall back to userinfo.
	if identity.Email == "" {
		if email, uiErr := v.emailFromUserInfo(ctx, accessToken); uiErr == nil {
			identity.Email = email
		}
	}

	return identity, nil
}

func (v *Verifier) roleFromClaims(claims map[string]any) (domainauth.Role, error) {
	result, err := jmespath.Search(v.roleClaimPath, claims)
	if err != nil {
		return "", fmt.Errorf("evaluate role claim path: %w", err)
	}
	raw, ok := result.(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: claim path %q yielded no role", domainauth.ErrUnknownRole, v.roleClaimPath)
	}
	return domainauth.ParseRole(raw)
}

func (v *Verifier) emailFromUserInfo(ctx context.Context, accessToken string) (string, error) {
	ui, err := v.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := ui.Claims(&payload); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	return payload.Email, nil
}

func stringClaim(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
