package httpx

import (
	"net/http"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/gatewatch/ui-gateway/internal/domain/policy"
)

// View describes one client-side screen. The gateway serves these as JSON
// descriptors; the browser shell renders the actual markup.
type View struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Path   string `json:"path"`
	Public bool   `json:"public"`
}

type viewResponse struct {
	View View            `json:"view"`
	Nav  []NavLink       `json:"nav,omitempty"`
	User sessionResponse `json:"session"`
}

// NavLink is one entry in the role-scoped navigation the shell renders.
type NavLink struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// declaredViews is the full route table of the application. Guarding is done
// by the route policy, not this table; it only carries presentation metadata.
var declaredViews = []View{
	{Name: "login", Title: "Sign In", Path: policy.LoginRoute, Public: true},
	{Name: "forgot-password", Title: "Forgot Password", Path: "/forgot-password", Public: true},
	{Name: "reset-password", Title: "Reset Password", Path: "/reset-password", Public: true},
	{Name: "unauthorized", Title: "Unauthorized", Path: policy.UnauthorizedRoute, Public: true},

	{Name: "admin-dashboard", Title: "Dashboard", Path: "/admin"},
	{Name: "admin-users", Title: "User Management", Path: "/admin/users"},
	{Name: "admin-reports", Title: "Reports", Path: "/admin/reports"},
	{Name: "admin-cameras", Title: "Camera Management", Path: "/admin/cameras"},
	{Name: "admin-review-violations", Title: "Review Violations", Path: "/admin/review-violations"},

	{Name: "security-dashboard", Title: "Dashboard", Path: "/security"},
	{Name: "security-logs", Title: "Activity Logs", Path: "/security/logs"},
	{Name: "security-identify", Title: "Identify Violations", Path: "/security/identify-violations"},

	// Shared between both roles but still behind sign-in.
	{Name: "about", Title: "About GateWatch", Path: policy.AboutRoute},
}

// navFor lists the views a role can navigate to, in declaration order.
func navFor(role domainauth.Role) []NavLink {
	var nav []NavLink
	for _, v := range declaredViews {
		if v.Public || !policy.Allowed(role, v.Path) {
			continue
		}
		nav = append(nav, NavLink{Title: v.Title, Path: v.Path})
	}
	return nav
}

// ViewHandlers serves view descriptors for the declared client routes.
type ViewHandlers struct{}

// Home handles GET /. It bounces the visitor to their role's landing route,
// or to login when anonymous.
func (h *ViewHandlers) Home(w http.ResponseWriter, r *http.Request) {
	role := domainauth.Role("")
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		role = sess.Role
	}
	http.Redirect(w, r, policy.HomeRoute(role), http.StatusSeeOther)
}

// ServeView returns the handler for one declared view. The login view
// additionally redirects already-authenticated browsers to their home route
// so a signed-in user never sees the sign-in screen.
func (h *ViewHandlers) ServeView(view View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())
		if view.Path == policy.LoginRoute && sess != nil && IsBrowserRequest(r.Context()) {
			http.Redirect(w, r, policy.HomeRoute(sess.Role), http.StatusSeeOther)
			return
		}
		resp := viewResponse{View: view, User: sessionResponse{Authenticated: false}}
		if sess != nil {
			resp.User = sessionPayload(sess)
			resp.Nav = navFor(sess.Role)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// NotFound serves the catch-all 404 descriptor.
func (h *ViewHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r.Context()) {
		WriteJSON(w, http.StatusNotFound, viewResponse{
			View: View{Name: "not-found", Title: "Page Not Found", Path: r.URL.Path, Public: true},
			User: sessionResponse{Authenticated: false},
		})
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})
}
