package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	mocks "github.com/gatewatch/ui-gateway/internal/mocks/auth"
)

// storeResolver adapts the in-memory session store to the middleware's
// resolver interface.
type storeResolver struct {
	store *mocks.MemorySessionStore
}

func (r *storeResolver) Session(ctx context.Context, id string) (*domainauth.Session, error) {
	sess, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func newResolverWithSession(t *testing.T, role domainauth.Role) (*storeResolver, *domainauth.Session) {
	t.Helper()
	store := mocks.NewMemorySessionStore()
	sess := &domainauth.Session{
		ID:          "sess-1",
		UserID:      "user-1",
		Email:       "guard@campus.edu",
		DisplayName: "Guard",
		Role:        role,
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(context.Background(), *sess))
	return &storeResolver{store: store}, sess
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func browserGet(path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req.WithContext(setBrowserInContext(req.Context(), true))
}

func apiGet(path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req.WithContext(setBrowserInContext(req.Context(), false))
}

func TestGuardAnonymousBrowserRedirectsToLogin(t *testing.T) {
	resolver := &storeResolver{store: mocks.NewMemorySessionStore()}
	handler := Guard(resolver)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, browserGet("/admin/users", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGuardAnonymousAPIGets401(t *testing.T) {
	resolver := &storeResolver{store: mocks.NewMemorySessionStore()}
	handler := Guard(resolver)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, apiGet("/admin", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_required")
}

func TestGuardWrongRoleBrowserRedirectsToUnauthorized(t *testing.T) {
	resolver, sess := newResolverWithSession(t, domainauth.RoleSecurity)
	handler := Guard(resolver)(okHandler())

	rec := httptest.NewRecorder()
	cookie := &http.Cookie{Name: SessionCookieName, Value: sess.ID}
	handler.ServeHTTP(rec, browserGet("/admin/reports", cookie))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}

func TestGuardWrongRoleAPIGets403(t *testing.T) {
	resolver, sess := newResolverWithSession(t, domainauth.RoleAdmin)
	handler := Guard(resolver)(okHandler())

	rec := httptest.NewRecorder()
	cookie := &http.Cookie{Name: SessionCookieName, Value: sess.ID}
	handler.ServeHTTP(rec, apiGet("/security/logs", cookie))

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_permissions")
}

func TestGuardAllowsOwnZone(t *testing.T) {
	resolver, sess := newResolverWithSession(t, domainauth.RoleSecurity)
	var seen *domainauth.Session
	handler := Guard(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	cookie := &http.Cookie{Name: SessionCookieName, Value: sess.ID}
	handler.ServeHTTP(rec, browserGet("/security/identify-violations", cookie))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, sess.ID, seen.ID)
}

func TestGuardPublicRouteAnonymous(t *testing.T) {
	resolver := &storeResolver{store: mocks.NewMemorySessionStore()}
	handler := Guard(resolver)(okHandler())

	for _, path := range []string{"/login", "/unauthorized", "/forgot-password", "/reset-password"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, browserGet(path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}

	// Shared-but-protected: both roles may see /about, anonymous may not.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, browserGet("/about", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestGuardCorruptCookieTreatedAsAnonymous(t *testing.T) {
	resolver := &storeResolver{store: mocks.NewMemorySessionStore()}
	handler := Guard(resolver)(okHandler())

	rec := httptest.NewRecorder()
	cookie := &http.Cookie{Name: SessionCookieName, Value: "no-such-session"}
	handler.ServeHTTP(rec, browserGet("/security", cookie))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/login")
}

func TestRequireRole(t *testing.T) {
	resolver, sess := newResolverWithSession(t, domainauth.RoleSecurity)
	handler := RequireRole(resolver, domainauth.RoleAdmin)(okHandler())
	cookie := &http.Cookie{Name: SessionCookieName, Value: sess.ID}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, apiGet("/api/admin/signin-audit", cookie))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, apiGet("/api/admin/signin-audit", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminResolver, adminSess := newResolverWithSession(t, domainauth.RoleAdmin)
	handler = RequireRole(adminResolver, domainauth.RoleAdmin)(okHandler())
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, apiGet("/api/admin/signin-audit", &http.Cookie{Name: SessionCookieName, Value: adminSess.ID}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBrowserDetection(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		accept    string
		isBrowser bool
	}{
		{"html navigation", "/admin", "text/html,application/xhtml+xml", true},
		{"api path with html accept", "/api/auth/session", "text/html", false},
		{"static path", "/static/app.js", "text/html", false},
		{"json client", "/admin", "application/json", false},
		{"no accept header", "/admin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			handler := BrowserDetection()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = IsBrowserRequest(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.isBrowser, got)
		})
	}
}

func TestRecoverConvertsPanicTo500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	handler := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", remoteAddr(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", remoteAddr(req))
}

// testWriter funnels middleware log output through the test log.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
