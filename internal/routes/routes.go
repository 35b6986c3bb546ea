// Package routes decides whether the current session may view a UI
// path. Only explicitly listed paths are protected: absence of a rule
// means allow. That default-open policy is deliberate; the tables below
// are the complete protection surface.
package routes

import (
	"github.com/volunteerhub/volunteerhub/internal/model"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// RoleAuthenticated is the sentinel meaning any logged-in role passes.
const RoleAuthenticated model.Role = "authenticated"

// Rule protects a single path.
type Rule struct {
	Roles   []model.Role
	Message string
}

// Access is the outcome of a route check.
type Access struct {
	Allowed    bool
	Reason     string
	RedirectTo string
	Message    string
}

// rules is the static path protection table.
var rules = map[string]Rule{
	"/admin/dashboard":     {Roles: []model.Role{model.RoleAdmin}, Message: "Only administrators can view this page."},
	"/admin/audit-logs":    {Roles: []model.Role{model.RoleAdmin}, Message: "Audit logs are restricted to administrators."},
	"/admin/settings":      {Roles: []model.Role{model.RoleAdmin}, Message: "Global settings are restricted to administrators."},
	"/admin/users":         {Roles: []model.Role{model.RoleAdmin, model.RoleHR}, Message: "User management requires an admin or HR role."},
	"/hr/dashboard":        {Roles: []model.Role{model.RoleAdmin, model.RoleHR}, Message: "The HR dashboard requires an HR role."},
	"/hr/recruitment":      {Roles: []model.Role{model.RoleAdmin, model.RoleHR}, Message: "Recruitment requires an HR role."},
	"/lead/dashboard":      {Roles: []model.Role{model.RoleAdmin, model.RoleLeadProject}, Message: "The project dashboard requires a project lead role."},
	"/lead/evaluations":    {Roles: []model.Role{model.RoleAdmin, model.RoleHR, model.RoleLeadProject}, Message: "Evaluations require a staff role."},
	"/volunteer/dashboard": {Roles: []model.Role{RoleAuthenticated}},
	"/profile":             {Roles: []model.Role{RoleAuthenticated}},
	"/documents":           {Roles: []model.Role{RoleAuthenticated}},
}

// dashboards maps each role to its landing page. Total over the five
// roles; unassigned users share the volunteer landing page.
var dashboards = map[model.Role]string{
	model.RoleAdmin:       "/admin/dashboard",
	model.RoleHR:          "/hr/dashboard",
	model.RoleLeadProject: "/lead/dashboard",
	model.RoleVolunteer:   "/volunteer/dashboard",
	model.RoleUnassigned:  "/volunteer/dashboard",
}

// RedirectPath returns the landing page for a role.
func RedirectPath(role model.Role) string {
	if p, ok := dashboards[role]; ok {
		return p
	}
	return dashboards[model.RoleVolunteer]
}

// CheckAccess evaluates the protection table for path against the
// current session (nil means not logged in).
func CheckAccess(path string, session *model.Session) Access {
	if session == nil {
		return Access{
			Allowed:    false,
			Reason:     "not authenticated",
			RedirectTo: LoginPath,
		}
	}

	rule, ok := rules[path]
	if !ok {
		return Access{Allowed: true}
	}

	for _, r := range rule.Roles {
		if r == RoleAuthenticated || r == session.Role {
			return Access{Allowed: true}
		}
	}

	return Access{
		Allowed:    false,
		Reason:     "role not permitted",
		RedirectTo: RedirectPath(session.Role),
		Message:    rule.Message,
	}
}
