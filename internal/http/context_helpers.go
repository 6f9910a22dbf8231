package httpx

import (
	"context"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	browserContextKey contextKey = "is_browser"
)

// SetSessionInContext attaches an authenticated session to the request
// context.
func SetSessionInContext(ctx context.Context, sess *domainauth.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// GetSessionFromContext returns the session attached by the guard middleware,
// or nil for anonymous requests.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	sess, _ := ctx.Value(sessionContextKey).(*domainauth.Session)
	return sess
}

func setBrowserInContext(ctx context.Context, isBrowser bool) context.Context {
	return context.WithValue(ctx, browserContextKey, isBrowser)
}

// IsBrowserRequest reports whether the request was classified as coming from
// a browser navigation rather than an API client. Requests that skipped the
// BrowserDetection middleware are treated as API traffic.
func IsBrowserRequest(ctx context.Context) bool {
	isBrowser, _ := ctx.Value(browserContextKey).(bool)
	return isBrowser
}
