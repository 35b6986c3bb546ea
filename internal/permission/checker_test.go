package permission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub/internal/alert"
	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/permission"
	"github.com/volunteerhub/volunteerhub/internal/repository"
	"github.com/volunteerhub/volunteerhub/internal/storage"
)

type staticResolver map[string]*model.User

func (r staticResolver) GetByID(id string) (*model.User, error) {
	if u, ok := r[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func newChecker(t *testing.T) (*permission.Checker, *audit.Log, *alert.Engine) {
	t.Helper()
	store := storage.NewMemoryStore()
	auditLog := audit.New(store, 100, logger.Nop())
	alerts := alert.New(store, 100, logger.Nop())

	users := staticResolver{
		"usr_admin": {ID: "usr_admin", Email: "admin@x.org", Role: model.RoleAdmin},
		"usr_vol":   {ID: "usr_vol", Email: "vol@x.org", Role: model.RoleVolunteer},
	}
	return permission.NewChecker(users, auditLog, alerts, logger.Nop()), auditLog, alerts
}

func TestCheckAllowed(t *testing.T) {
	c, auditLog, alerts := newChecker(t)

	d := c.Check("usr_admin", permission.ActionViewAuthAudit, "audit-log")
	assert.True(t, d.Allowed)

	entries := auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionPermissionCheck, entries[0].Action)
	assert.Equal(t, model.AuditSuccess, entries[0].Result)
	assert.Empty(t, alerts.List())
}

func TestCheckDeniedAuditsAndAlerts(t *testing.T) {
	c, auditLog, alerts := newChecker(t)

	d := c.Check("usr_vol", permission.ActionViewAuthAudit, "audit-log")
	assert.False(t, d.Allowed)
	assert.NotEmpty(t, d.Reason)

	entries := auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditDenied, entries[0].Result)

	raised := alerts.List()
	require.Len(t, raised, 1)
	assert.Equal(t, model.AlertPrivilegeEscalation, raised[0].Type)
	assert.Equal(t, model.SeverityHigh, raised[0].Severity)
	assert.Equal(t, "usr_vol", raised[0].UserID)
}

func TestEveryDenialAlerts(t *testing.T) {
	c, _, alerts := newChecker(t)

	// Denied checks are never deduplicated; each one is its own signal.
	c.Check("usr_vol", permission.ActionViewAuthAudit, "audit-log")
	c.Check("usr_vol", permission.ActionViewAuthAudit, "audit-log")
	c.Check("usr_vol", permission.ActionConfigureSSO, "sso")

	assert.Len(t, alerts.List(), 3)
}

func TestCheckUnknownUser(t *testing.T) {
	c, auditLog, alerts := newChecker(t)

	d := c.Check("usr_ghost", permission.ActionEditPersonalSettings, "settings")
	assert.False(t, d.Allowed)

	require.Equal(t, 1, auditLog.Len())
	assert.Equal(t, model.AuditDenied, auditLog.Recent(1)[0].Result)
	require.Len(t, alerts.List(), 1)
	assert.Equal(t, model.AlertPrivilegeEscalation, alerts.List()[0].Type)
}
