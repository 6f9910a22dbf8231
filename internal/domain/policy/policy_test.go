package policy

import (
	"testing"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	"github.com/stretchr/testify/assert"
)

// declaredRoutes is the full UI surface the router serves.
var declaredRoutes = []string{
	"/admin",
	"/admin/users",
	"/admin/reports",
	"/admin/cameras",
	"/admin/review-violations",
	"/security",
	"/security/logs",
	"/security/identify-violations",
	"/about",
	"/login",
	"/forgot-password",
	"/reset-password",
	"/unauthorized",
}

func TestAllowed_RoleClosure(t *testing.T) {
	// Every declared route is decided purely by its prefix: a role sees its
	// own tree, the shared /about, and the public routes; nothing else.
	tests := []struct {
		role domainauth.Role
		path string
		want bool
	}{
		{domainauth.RoleAdmin, "/admin", true},
		{domainauth.RoleAdmin, "/admin/users", true},
		{domainauth.RoleAdmin, "/admin/reports", true},
		{domainauth.RoleAdmin, "/admin/cameras", true},
		{domainauth.RoleAdmin, "/admin/review-violations", true},
		{domainauth.RoleAdmin, "/about", true},
		{domainauth.RoleAdmin, "/security", false},
		{domainauth.RoleAdmin, "/security/logs", false},
		{domainauth.RoleAdmin, "/security/identify-violations", false},

		{domainauth.RoleSecurity, "/security", true},
		{domainauth.RoleSecurity, "/security/logs", true},
		{domainauth.RoleSecurity, "/security/identify-violations", true},
		{domainauth.RoleSecurity, "/about", true},
		{domainauth.RoleSecurity, "/admin", false},
		{domainauth.RoleSecurity, "/admin/users", false},
		{domainauth.RoleSecurity, "/admin/reports", false},

		// prefix matching is segment-aware, not substring
		{domainauth.RoleSecurity, "/administrivia", false},
		{domainauth.RoleAdmin, "/admin/", true},
		{domainauth.RoleAdmin, "/adminx", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.role, tt.path))
		})
	}
}

func TestAllowed_PublicRoutesForEveryone(t *testing.T) {
	public := []string{"/login", "/forgot-password", "/reset-password", "/unauthorized"}
	roles := []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleSecurity, ""}

	for _, role := range roles {
		for _, path := range public {
			assert.True(t, Allowed(role, path), "role %q path %s", role, path)
		}
	}
}

func TestAllowed_AnonymousDeniedEverythingProtected(t *testing.T) {
	for _, path := range declaredRoutes {
		if IsPublic(path) {
			continue
		}
		assert.False(t, Allowed("", path), "anonymous must not see %s", path)
	}
}

func TestAllowed_UnknownRoleTreatedAsAnonymous(t *testing.T) {
	// A malformed role on an otherwise-authenticated identity denies all
	// protected routes rather than crashing or granting anything.
	for _, path := range declaredRoutes {
		got := Allowed("student", path)
		assert.Equal(t, IsPublic(path), got, "path %s", path)
	}
}

func TestHomeRoute(t *testing.T) {
	assert.Equal(t, "/admin", HomeRoute(domainauth.RoleAdmin))
	assert.Equal(t, "/security", HomeRoute(domainauth.RoleSecurity))
	assert.Equal(t, "/login", HomeRoute(""))
	assert.Equal(t, "/login", HomeRoute("student"))
}

func TestIsPublic(t *testing.T) {
	assert.True(t, IsPublic("/login"))
	assert.True(t, IsPublic("/reset-password"))
	assert.True(t, IsPublic("/unauthorized"))
	assert.False(t, IsPublic("/admin"))
	assert.False(t, IsPublic("/"))
	assert.False(t, IsPublic("/about"))
}

func TestRolePrefixesDoNotOverlap(t *testing.T) {
	// Guards the §3 invariant directly against the table.
	for roleA, prefixesA := range rolePrefixes {
		for roleB, prefixesB := range rolePrefixes {
			if roleA == roleB {
				continue
			}
			for _, pa := range prefixesA {
				for _, pb := range prefixesB {
					assert.False(t, pa == pb || len(pa) < len(pb) && pb[:len(pa)+1] == pa+"/",
						"prefix %s of %s overlaps %s of %s", pa, roleA, pb, roleB)
				}
			}
		}
	}
}
