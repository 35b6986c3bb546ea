package model

import "time"

// AuditResult classifies the outcome of an audited action.
type AuditResult string

const (
	AuditSuccess AuditResult = "success"
	AuditFailure AuditResult = "failure"
	AuditDenied  AuditResult = "denied"
)

// AuditEntry is an immutable record of who did what, with what result.
// Entries are never mutated after creation.
type AuditEntry struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	ActorID    string      `json:"actorId"` // may be "system"
	ActorEmail string      `json:"actorEmail,omitempty"`
	Action     string      `json:"action"`
	Resource   string      `json:"resource"`
	Result     AuditResult `json:"result"`
	IPAddress  string      `json:"ipAddress"`
	UserAgent  string      `json:"userAgent"`
	Details    string      `json:"details,omitempty"`
}

// Audit action constants
const (
	AuditActionLogin                = "login"
	AuditActionLoginFailed          = "login_failed"
	AuditActionLogout               = "logout"
	AuditActionRegister             = "register"
	AuditActionSessionCreated       = "session_created"
	AuditActionTwoFactorVerify      = "two_factor_verify"
	AuditActionPasswordResetRequest = "password_reset_request"
	AuditActionUserUpdated          = "user_updated"
	AuditActionPermissionCheck      = "permission_check"
	AuditActionDataImported         = "auth_data_imported"
	AuditActionDataCleared          = "auth_data_cleared"
)

// SystemActor is the actor id recorded when no user identity applies.
const SystemActor = "system"
