package upstream

// Package upstream implements the auth ports against the GateWatch core API.
// The core API speaks JWT-pair semantics: a sign-in yields an access/refresh
// pair, the profile endpoint resolves the bearer to a user with a role.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/ports"
)

const (
	tokenPath        = "/api/token/"
	tokenRefreshPath = "/api/token/refresh/"
	profilePath      = "/api/user/profile/"
	resetPath        = "/api/auth/firebase/reset-password/"
)

// Client talks to the GateWatch core API over HTTP JSON.
// It implements ports.Authenticator, ports.ProfileProvider and
// ports.PasswordResetter.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds configuration for the core API client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client // Optional, defaults to a 15s-timeout client
}

// NewClient creates a core API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type profileResponse struct {
	ID       json.Number `json:"id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     string      `json:"role"`
}

// Authenticate exchanges email/password for a token pair via POST /api/token/.
func (c *Client) Authenticate(ctx context.Context, creds ports.Credentials) (ports.TokenPair, error) {
	body := map[string]string{
		"username": creds.Email,
		"password": creds.Password,
	}
	var out tokenResponse
	if err := c.postJSON(ctx, tokenPath, body, &out); err != nil {
		return ports.TokenPair{}, err
	}
	if out.Access == "" || out.Refresh == "" {
		return ports.TokenPair{}, fmt.Errorf("%w: token response missing fields", domainauth.ErrUpstreamFailure)
	}
	return ports.TokenPair{Access: out.Access, Refresh: out.Refresh}, nil
}

// Refresh exchanges a refresh token for a fresh pair via POST /api/token/refresh/.
// The core API may rotate the refresh token; when it does not, the caller
// keeps using the old one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (ports.TokenPair, error) {
	if refreshToken == "" {
		return ports.TokenPair{}, domainauth.ErrInvalidCredentials
	}
	body := map[string]string{"refresh": refreshToken}
	var out tokenResponse
	if err := c.postJSON(ctx, tokenRefreshPath, body, &out); err != nil {
		return ports.TokenPair{}, err
	}
	if out.Access == "" {
		return ports.TokenPair{}, fmt.Errorf("%w: refresh response missing access token", domainauth.ErrUpstreamFailure)
	}
	if out.Refresh == "" {
		out.Refresh = refreshToken
	}
	return ports.TokenPair{Access: out.Access, Refresh: out.Refresh}, nil
}

// Profile resolves the bearer token to an identity via GET /api/user/profile/.
func (c *Client) Profile(ctx context.Context, accessToken string) (domainauth.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+profilePath, nil)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %v", domainauth.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return domainauth.Identity{}, err
	}

	var out profileResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: decode profile: %v", domainauth.ErrUpstreamFailure, err)
	}

	role, err := domainauth.ParseRole(out.Role)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return domainauth.Identity{
		UserID:      out.ID.String(),
		Email:       out.Email,
		DisplayName: out.Username,
		Role:        role,
	}, nil
}

// RequestPasswordReset asks the core API to send a reset email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.postJSON(ctx, resetPath, body, nil)
}

// postJSON POSTs a JSON body and decodes a JSON response into out (when out
// is non-nil). Status codes map onto the domain error taxonomy.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainauth.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domainauth.ErrUpstreamFailure, err)
	}
	return nil
}

// classifyStatus maps non-2xx responses onto the domain error taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return domainauth.ErrInvalidCredentials
	case resp.StatusCode == http.StatusForbidden:
		return domainauth.ErrUnauthorizedEmail
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", domainauth.ErrUpstreamFailure, resp.StatusCode)
	default:
		return fmt.Errorf("%w: unexpected status %d", domainauth.ErrUpstreamFailure, resp.StatusCode)
	}
}
