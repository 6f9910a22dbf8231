package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/domain/policy"
	"github.com/gatewatch/ui-gateway/internal/service"
)

// AuthServiceInterface is the slice of the auth service the handlers use.
type AuthServiceInterface interface {
	SignIn(ctx context.Context, input service.SignInInput) (*domainauth.Session, error)
	Session(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Refresh(ctx context.Context, sessionID string) (*domainauth.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	RequestPasswordReset(ctx context.Context, email string) error
}

// AuthHandlers serves the /api/auth endpoints.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IDToken  string `json:"id_token"`
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *userPayload `json:"user,omitempty"`
	HomeRoute     string       `json:"home_route,omitempty"`
	ExpiresAt     string       `json:"expires_at,omitempty"`
}

func sessionPayload(sess *domainauth.Session) sessionResponse {
	return sessionResponse{
		Authenticated: true,
		User: &userPayload{
			ID:          sess.UserID,
			Email:       sess.Email,
			DisplayName: sess.DisplayName,
			Role:        string(sess.Role),
		},
		HomeRoute: policy.HomeRoute(sess.Role),
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// SignIn handles POST /api/auth/login. It accepts password credentials or an
// OIDC ID token, establishes a server-side session and sets the session
// cookie. Tokens are never returned to the client.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err})
		return
	}
	if req.IDToken == "" && (req.Email == "" || req.Password == "") {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_credentials"})
		return
	}

	sess, err := h.Svc.SignIn(r.Context(), service.SignInInput{
		Email:      req.Email,
		Password:   req.Password,
		IDToken:    req.IDToken,
		RemoteAddr: remoteAddr(r),
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	h.setSessionCookie(w, r, sess)
	WriteJSON(w, http.StatusOK, sessionPayload(sess))
}

// SignOut handles POST /api/auth/logout. Signing out an already-dead session
// is not an error; either way the cookie is cleared.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.Svc.SignOut(r.Context(), cookie.Value); err != nil {
			h.Logger.Warn("sign out", "error", err)
		}
	}
	h.clearSessionCookie(w, r)

	if IsBrowserRequest(r.Context()) {
		http.Redirect(w, r, policy.LoginRoute, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"signed_out": true})
}

// SessionStatus handles GET /api/auth/session. Anonymous holders get a 200
// with authenticated false rather than a 401 so the client shell can probe
// without error handling.
func (h *AuthHandlers) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		sess = sessionFromRequest(r, h.Svc)
	}
	if sess == nil {
		WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayload(sess))
}

// Refresh handles POST /api/auth/refresh. It renews the upstream tokens held
// by the session without extending the session's own lifetime.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
		return
	}
	sess, err := h.Svc.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.clearOnSessionLoss(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayload(sess))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err})
		return
	}
	if req.Email == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_email"})
		return
	}
	if err := h.Svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

// clearOnSessionLoss drops the now-useless cookie alongside the error
// response when a refresh finds the session gone.
func (h *AuthHandlers) clearOnSessionLoss(w http.ResponseWriter, r *http.Request, err error) {
	h.clearSessionCookie(w, r)
	WriteDomainError(w, err)
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, sess *domainauth.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
