// Package permission defines the static role/action matrix and the
// audited permission checker.
package permission

import (
	"github.com/volunteerhub/volunteerhub/internal/model"
)

// Action identifies a privileged operation a role may or may not
// perform. Like model.Role, the set is closed.
type Action string

const (
	ActionInviteUser             Action = "invite_user"
	ActionResetPasswordOthers    Action = "reset_password_others"
	ActionSetRoleOthers          Action = "set_role_others"
	ActionEnforce2FAOthers       Action = "enforce_2fa_others"
	ActionViewAuthAudit          Action = "view_auth_audit"
	ActionExportAuthAudit        Action = "export_auth_audit"
	ActionConfigureSSO           Action = "configure_sso"
	ActionRotateTokens           Action = "rotate_tokens"
	ActionManageSessionsOthers   Action = "manage_sessions_others"
	ActionChangeGlobalSettings   Action = "change_global_settings"
	ActionChangeRegionalSettings Action = "change_regional_settings"
	ActionEditRegionalTemplates  Action = "edit_regional_templates"
	ActionEditProjectTemplates   Action = "edit_project_templates"
	ActionEditPersonalSettings   Action = "edit_personal_settings"
)

// Actions lists every known action.
var Actions = []Action{
	ActionInviteUser,
	ActionResetPasswordOthers,
	ActionSetRoleOthers,
	ActionEnforce2FAOthers,
	ActionViewAuthAudit,
	ActionExportAuthAudit,
	ActionConfigureSSO,
	ActionRotateTokens,
	ActionManageSessionsOthers,
	ActionChangeGlobalSettings,
	ActionChangeRegionalSettings,
	ActionEditRegionalTemplates,
	ActionEditProjectTemplates,
	ActionEditPersonalSettings,
}

// matrix holds exactly one boolean per (role, action) pair. Admin holds
// everything; HR manages people and regional configuration; project
// leads manage their project templates; volunteers and unassigned users
// only touch their own settings.
var matrix = map[model.Role]map[Action]bool{
	model.RoleAdmin: {
		ActionInviteUser:             true,
		ActionResetPasswordOthers:    true,
		ActionSetRoleOthers:          true,
		ActionEnforce2FAOthers:       true,
		ActionViewAuthAudit:          true,
		ActionExportAuthAudit:        true,
		ActionConfigureSSO:           true,
		ActionRotateTokens:           true,
		ActionManageSessionsOthers:   true,
		ActionChangeGlobalSettings:   true,
		ActionChangeRegionalSettings: true,
		ActionEditRegionalTemplates:  true,
		ActionEditProjectTemplates:   true,
		ActionEditPersonalSettings:   true,
	},
	model.RoleHR: {
		ActionInviteUser:             true,
		ActionResetPasswordOthers:    true,
		ActionSetRoleOthers:          true,
		ActionEnforce2FAOthers:       true,
		ActionViewAuthAudit:          false,
		ActionExportAuthAudit:        false,
		ActionConfigureSSO:           false,
		ActionRotateTokens:           false,
		ActionManageSessionsOthers:   false,
		ActionChangeGlobalSettings:   false,
		ActionChangeRegionalSettings: true,
		ActionEditRegionalTemplates:  true,
		ActionEditProjectTemplates:   false,
		ActionEditPersonalSettings:   true,
	},
	model.RoleLeadProject: {
		ActionInviteUser:             false,
		ActionResetPasswordOthers:    false,
		ActionSetRoleOthers:          false,
		ActionEnforce2FAOthers:       false,
		ActionViewAuthAudit:          false,
		ActionExportAuthAudit:        false,
		ActionConfigureSSO:           false,
		ActionRotateTokens:           false,
		ActionManageSessionsOthers:   false,
		ActionChangeGlobalSettings:   false,
		ActionChangeRegionalSettings: false,
		ActionEditRegionalTemplates:  false,
		ActionEditProjectTemplates:   true,
		ActionEditPersonalSettings:   true,
	},
	model.RoleVolunteer: {
		ActionInviteUser:             false,
		ActionResetPasswordOthers:    false,
		ActionSetRoleOthers:          false,
		ActionEnforce2FAOthers:       false,
		ActionViewAuthAudit:          false,
		ActionExportAuthAudit:        false,
		ActionConfigureSSO:           false,
		ActionRotateTokens:           false,
		ActionManageSessionsOthers:   false,
		ActionChangeGlobalSettings:   false,
		ActionChangeRegionalSettings: false,
		ActionEditRegionalTemplates:  false,
		ActionEditProjectTemplates:   false,
		ActionEditPersonalSettings:   true,
	},
	model.RoleUnassigned: {
		ActionInviteUser:             false,
		ActionResetPasswordOthers:    false,
		ActionSetRoleOthers:          false,
		ActionEnforce2FAOthers:       false,
		ActionViewAuthAudit:          false,
		ActionExportAuthAudit:        false,
		ActionConfigureSSO:           false,
		ActionRotateTokens:           false,
		ActionManageSessionsOthers:   false,
		ActionChangeGlobalSettings:   false,
		ActionChangeRegionalSettings: false,
		ActionEditRegionalTemplates:  false,
		ActionEditProjectTemplates:   false,
		ActionEditPersonalSettings:   true,
	},
}

// IsAllowed is a pure lookup into the matrix. An unknown role or action
// is never allowed.
func IsAllowed(role model.Role, action Action) bool {
	actions, ok := matrix[role]
	if !ok {
		return false
	}
	return actions[action]
}
