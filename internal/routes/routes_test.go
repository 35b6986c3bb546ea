package routes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/routes"
)

func sessionFor(role model.Role) *model.Session {
	return &model.Session{UserID: "usr_1", Email: "u@x.org", Role: role}
}

func TestNoSessionRedirectsToLogin(t *testing.T) {
	for _, path := range []string{"/admin/dashboard", "/volunteer/dashboard", "/profile"} {
		access := routes.CheckAccess(path, nil)
		assert.False(t, access.Allowed, "path %s", path)
		assert.Equal(t, routes.LoginPath, access.RedirectTo, "path %s", path)
	}
}

func TestWrongRoleRedirectsToOwnDashboard(t *testing.T) {
	access := routes.CheckAccess("/admin/audit-logs", sessionFor(model.RoleVolunteer))
	assert.False(t, access.Allowed)
	assert.Equal(t, "/volunteer/dashboard", access.RedirectTo)
	assert.NotEmpty(t, access.Message)
}

func TestAdminReachesAdminPages(t *testing.T) {
	admin := sessionFor(model.RoleAdmin)
	for _, path := range []string{"/admin/dashboard", "/admin/audit-logs", "/admin/settings", "/hr/dashboard", "/lead/dashboard"} {
		assert.True(t, routes.CheckAccess(path, admin).Allowed, "path %s", path)
	}
}

func TestAuthenticatedPaths(t *testing.T) {
	// Any logged-in role passes paths marked authenticated.
	for _, role := range model.Roles {
		for _, path := range []string{"/volunteer/dashboard", "/profile", "/documents"} {
			assert.True(t, routes.CheckAccess(path, sessionFor(role)).Allowed, "role %s path %s", role, path)
		}
	}
}

func TestUnlistedPathIsOpen(t *testing.T) {
	assert.True(t, routes.CheckAccess("/about", sessionFor(model.RoleUnassigned)).Allowed)
}

func TestHRAccess(t *testing.T) {
	hr := sessionFor(model.RoleHR)
	assert.True(t, routes.CheckAccess("/hr/recruitment", hr).Allowed)
	assert.True(t, routes.CheckAccess("/admin/users", hr).Allowed)

	denied := routes.CheckAccess("/admin/settings", hr)
	assert.False(t, denied.Allowed)
	assert.Equal(t, "/hr/dashboard", denied.RedirectTo)
}

func TestRedirectPath(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", routes.RedirectPath(model.RoleAdmin))
	assert.Equal(t, "/hr/dashboard", routes.RedirectPath(model.RoleHR))
	assert.Equal(t, "/lead/dashboard", routes.RedirectPath(model.RoleLeadProject))
	assert.Equal(t, "/volunteer/dashboard", routes.RedirectPath(model.RoleVolunteer))
	assert.Equal(t, "/volunteer/dashboard", routes.RedirectPath(model.RoleUnassigned))
	assert.Equal(t, "/volunteer/dashboard", routes.RedirectPath(model.Role("mystery")))
}
