package policy

// Package policy holds the pure route-authorization rules for the UI
// surface: which paths each role may see and where each role lands after
// sign-in. No state, no I/O.

import (
	"strings"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
)

// Well-known routes referenced by the guard and handlers.
const (
	LoginRoute        = "/login"
	UnauthorizedRoute = "/unauthorized"
	AboutRoute        = "/about"
)

// publicRoutes are reachable without a session.
var publicRoutes = map[string]bool{
	LoginRoute:         true,
	"/forgot-password": true,
	"/reset-password":  true,
	UnauthorizedRoute:  true,
}

// rolePrefixes maps each role to the path prefixes it owns. Prefixes for
// different roles never overlap; /about is shared and handled separately.
var rolePrefixes = map[domainauth.Role][]string{
	domainauth.RoleAdmin:    {"/admin"},
	domainauth.RoleSecurity: {"/security"},
}

// homeRoutes maps each role to its landing page.
var homeRoutes = map[domainauth.Role]string{
	domainauth.RoleAdmin:    "/admin",
	domainauth.RoleSecurity: "/security",
}

// HomeRoute returns the landing route for a role. An empty or unknown role
// (unauthenticated, or a session with a malformed role) lands on the login
// page.
func HomeRoute(role domainauth.Role) string {
	if home, ok := homeRoutes[role]; ok {
		return home
	}
	return LoginRoute
}

// IsPublic reports whether the path is reachable without a session.
func IsPublic(path string) bool {
	return publicRoutes[normalize(path)]
}

// Allowed reports whether the role may view the given path. Public routes
// are allowed for everyone. A role outside the closed set (including the
// empty role of an anonymous visitor) may see only public routes.
func Allowed(role domainauth.Role, path string) bool {
	path = normalize(path)
	if publicRoutes[path] {
		return true
	}
	prefixes, ok := rolePrefixes[role]
	if !ok {
		return false
	}
	if path == AboutRoute || strings.HasPrefix(path, AboutRoute+"/") {
		return true
	}
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// normalize strips a trailing slash so /admin/ and /admin decide the same.
func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
