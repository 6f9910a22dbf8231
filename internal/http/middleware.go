package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/domain/policy"
)

// SessionCookieName is the cookie carrying the opaque session identifier.
// Tokens never travel in cookies; they stay server-side in the session store.
const SessionCookieName = "session_id"

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// SessionResolver resolves a session ID to a live session. Expired or unknown
// sessions return domainauth.ErrSessionNotFound.
type SessionResolver interface {
	Session(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

type respWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Logging logs one structured line per request.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &respWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r)
			if rw.status == 0 {
				rw.status = http.StatusOK
			}
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"bytes", rw.bytes,
				"duration", time.Since(start),
				"remote_addr", remoteAddr(r),
			)
		})
	}
}

// Recover converts panics into 500 responses instead of tearing down the
// connection.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BrowserDetection classifies each request as browser navigation or API
// traffic and records the result in the context. API and asset paths are
// never browser navigations regardless of the Accept header.
func BrowserDetection() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isBrowser := false
			if !strings.HasPrefix(r.URL.Path, "/api/") && !strings.HasPrefix(r.URL.Path, "/static/") {
				isBrowser = strings.Contains(r.Header.Get("Accept"), "text/html")
			}
			next.ServeHTTP(w, r.WithContext(setBrowserInContext(r.Context(), isBrowser)))
		})
	}
}

// Guard enforces the role route policy on view routes. Anonymous requests to
// protected paths are sent to the login route; authenticated requests outside
// their role's zone are sent to the unauthorized route. API clients get JSON
// 401/403 instead of redirects. After sign-in users always land on their
// role's home route, so the original path is not carried through the
// redirect.
func Guard(sessions SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromRequest(r, sessions)
			if sess != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), sess))
			}

			path := r.URL.Path
			if policy.IsPublic(path) {
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				if IsBrowserRequest(r.Context()) {
					http.Redirect(w, r, policy.LoginRoute, http.StatusSeeOther)
					return
				}
				WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
				return
			}
			if !policy.Allowed(sess.Role, path) {
				if IsBrowserRequest(r.Context()) {
					http.Redirect(w, r, policy.UnauthorizedRoute, http.StatusSeeOther)
					return
				}
				WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "insufficient_permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects anonymous API requests with 401 and attaches the
// session to the context otherwise.
func RequireSession(sessions SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromRequest(r, sessions)
			if sess == nil {
				WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		})
	}
}

// RequireRole is RequireSession plus an exact role check, for API endpoints
// scoped to one role.
func RequireRole(sessions SessionResolver, role domainauth.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSessionFromContext(r.Context())
			if sess == nil || sess.Role != role {
				WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "insufficient_permissions"})
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// Chain applies middlewares outermost-first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// sessionFromRequest resolves the session cookie, if any, to a live session.
// A missing, unknown or expired cookie yields nil; the holder is anonymous.
func sessionFromRequest(r *http.Request, sessions SessionResolver) *domainauth.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := sessions.Session(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return sess
}

// remoteAddr prefers the first X-Forwarded-For hop when the gateway sits
// behind a proxy.
func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return r.RemoteAddr
}
