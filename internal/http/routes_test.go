package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	mocks "github.com/gatewatch/ui-gateway/internal/mocks/auth"
	"github.com/gatewatch/ui-gateway/internal/service"
)

// newTestServer wires a real auth service over in-memory doubles behind the
// full router, the same assembly the bootstrap does in production.
func newTestServer(t *testing.T, role domainauth.Role) (*httptest.Server, *http.Client, *mocks.RecordingAudit) {
	t.Helper()

	profiles := mocks.NewMockProfileProvider()
	profiles.DefaultIdentity.Role = role
	audit := &mocks.RecordingAudit{}

	authenticator := mocks.NewMockAuthenticator()
	authenticator.Email = "mock.user@campus.edu"
	authenticator.Password = "pw"

	svc := service.NewAuthService(service.AuthServiceOptions{
		Authenticator: authenticator,
		Profiles:      profiles,
		Sessions:      mocks.NewMemorySessionStore(),
		Audit:         audit,
		Resetter:      &mocks.MockResetter{},
		Logger:        slog.New(slog.DiscardHandler),
	})

	router := NewRouter(RouterServices{
		Auth:   svc,
		Audit:  &fakeAuditReader{},
		Logger: slog.New(slog.DiscardHandler),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client, audit
}

func signIn(t *testing.T, srv *httptest.Server, client *http.Client) {
	t.Helper()
	resp, err := client.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"mock.user@campus.edu","password":"pw"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func browserRequest(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/html")
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRouterSecuritySignInFlow(t *testing.T) {
	srv, client, audit := newTestServer(t, domainauth.RoleSecurity)

	// Protected page before sign-in redirects to login.
	resp := browserRequest(t, client, srv.URL+"/security/logs")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()

	signIn(t, srv, client)
	assert.True(t, audit.Last().Succeeded)

	// Root bounces to the role home.
	resp = browserRequest(t, client, srv.URL+"/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/security", resp.Header.Get("Location"))
	resp.Body.Close()

	// Own zone is reachable.
	resp = browserRequest(t, client, srv.URL+"/security/logs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"security-logs"`)

	// The other role's zone is not.
	resp = browserRequest(t, client, srv.URL+"/admin")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))
	resp.Body.Close()

	// Admin API is closed to security accounts.
	apiResp, err := client.Get(srv.URL + "/api/admin/signin-audit")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, apiResp.StatusCode)
	apiResp.Body.Close()
}

func TestRouterAdminSignInFlow(t *testing.T) {
	srv, client, _ := newTestServer(t, domainauth.RoleAdmin)
	signIn(t, srv, client)

	resp := browserRequest(t, client, srv.URL+"/admin/review-violations")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"admin-review-violations"`)

	// Role zones are exclusive both ways.
	resp = browserRequest(t, client, srv.URL+"/security")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))
	resp.Body.Close()

	// Signed-in users skip the login screen.
	resp = browserRequest(t, client, srv.URL+"/login")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
	resp.Body.Close()

	// The audit API opens up for admins.
	apiResp, err := client.Get(srv.URL + "/api/admin/signin-audit")
	require.NoError(t, err)
	defer apiResp.Body.Close()
	assert.Equal(t, http.StatusOK, apiResp.StatusCode)
}

func TestRouterSignOutEndsAccess(t *testing.T) {
	srv, client, _ := newTestServer(t, domainauth.RoleSecurity)
	signIn(t, srv, client)

	resp := browserRequest(t, client, srv.URL+"/security")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	out, err := client.Post(srv.URL+"/api/auth/logout", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, out.StatusCode)
	out.Body.Close()

	resp = browserRequest(t, client, srv.URL+"/security")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login")
	resp.Body.Close()

	// Session probe reports anonymous after sign-out.
	probe, err := client.Get(srv.URL + "/api/auth/session")
	require.NoError(t, err)
	defer probe.Body.Close()
	var status struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.NewDecoder(probe.Body).Decode(&status))
	assert.False(t, status.Authenticated)
}

func TestRouterInvalidCredentialsAudited(t *testing.T) {
	srv, client, audit := newTestServer(t, domainauth.RoleSecurity)

	resp, err := client.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"wrong@campus.edu","password":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	last := audit.Last()
	assert.Equal(t, "wrong@campus.edu", last.Email)
	assert.False(t, last.Succeeded)
	assert.Equal(t, "invalid_credentials", last.FailReason)
}

func TestRouterHealthz(t *testing.T) {
	srv, client, _ := newTestServer(t, domainauth.RoleSecurity)

	resp, err := client.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"status":"ok"`)

	req, _ := http.NewRequest(http.MethodHead, srv.URL+"/healthz", nil)
	headResp, err := client.Do(req)
	require.NoError(t, err)
	headResp.Body.Close()
	assert.Equal(t, http.StatusOK, headResp.StatusCode)
}

func TestRouterUnknownRouteUsesAppNotFound(t *testing.T) {
	srv, client, _ := newTestServer(t, domainauth.RoleSecurity)

	resp := browserRequest(t, client, srv.URL+"/totally/unknown")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"not-found"`)

	apiResp, err := client.Get(srv.URL + "/api/totally/unknown")
	require.NoError(t, err)
	defer apiResp.Body.Close()
	require.Equal(t, http.StatusNotFound, apiResp.StatusCode)
	apiBody, _ := io.ReadAll(apiResp.Body)
	assert.Contains(t, string(apiBody), `"error":"not_found"`)
}
