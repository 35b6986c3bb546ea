package permission

import (
	"fmt"

	"github.com/volunteerhub/volunteerhub/internal/alert"
	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
)

// UserResolver resolves a user id to a user record. Implemented by
// repository.UserRepository.
type UserResolver interface {
	GetByID(id string) (*model.User, error)
}

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Checker evaluates permission checks and records every single one.
// A denied check is always both audited and alerted: in this design
// every permission failure is treated as a potential attack signal, not
// merely a UX rejection.
type Checker struct {
	users    UserResolver
	auditLog *audit.Log
	alerts   *alert.Engine
	log      *logger.Logger
}

// NewChecker creates a Checker.
func NewChecker(users UserResolver, auditLog *audit.Log, alerts *alert.Engine, log *logger.Logger) *Checker {
	return &Checker{
		users:    users,
		auditLog: auditLog,
		alerts:   alerts,
		log:      log.WithComponent("permission"),
	}
}

// Check resolves the user's role and evaluates the matrix. The check is
// audited whatever the outcome; a denial additionally raises a
// privilege_escalation alert.
func (c *Checker) Check(userID string, action Action, resource string) Decision {
	user, err := c.users.GetByID(userID)
	if err != nil {
		c.auditLog.Record(userID, "", model.AuditActionPermissionCheck, resource,
			model.AuditDenied, fmt.Sprintf("unknown user, action %s", action))
		c.alerts.Raise(model.AlertPrivilegeEscalation, model.SeverityHigh,
			fmt.Sprintf("Permission check for unknown user %s (action %s)", userID, action),
			userID, 0)
		return Decision{Allowed: false, Reason: "user not found"}
	}

	if IsAllowed(user.Role, action) {
		c.auditLog.Record(user.ID, user.Email, model.AuditActionPermissionCheck, resource,
			model.AuditSuccess, string(action))
		return Decision{Allowed: true}
	}

	reason := fmt.Sprintf("role %s is not permitted to perform %s", user.Role, action)
	c.auditLog.Record(user.ID, user.Email, model.AuditActionPermissionCheck, resource,
		model.AuditDenied, string(action))
	c.alerts.Raise(model.AlertPrivilegeEscalation, model.SeverityHigh,
		fmt.Sprintf("User %s attempted %s without permission", user.Email, action),
		user.ID, 0)
	return Decision{Allowed: false, Reason: reason}
}
