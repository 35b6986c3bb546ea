package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub/internal/alert"
	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/config"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/permission"
	"github.com/volunteerhub/volunteerhub/internal/repository"
	"github.com/volunteerhub/volunteerhub/internal/routes"
	"github.com/volunteerhub/volunteerhub/internal/service"
	"github.com/volunteerhub/volunteerhub/internal/session"
	"github.com/volunteerhub/volunteerhub/internal/storage"
	"github.com/volunteerhub/volunteerhub/internal/token"
)

type authFixture struct {
	auth     *service.AuthService
	store    storage.Store
	auditLog *audit.Log
	alerts   *alert.Engine
	users    *repository.UserRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := storage.NewMemoryStore()
	cfg := config.Default()
	cfg.Security.Password.Argon2Memory = 8 * 1024
	cfg.Security.Password.Argon2Iterations = 1
	cfg.Security.Password.Argon2Parallelism = 1

	log := logger.Nop()
	auditLog := audit.New(store, cfg.Audit.MaxEntries, log)
	alerts := alert.New(store, cfg.Alerts.MaxAlerts, log)
	users, err := repository.NewUserRepository(store, log)
	require.NoError(t, err)

	tokens := token.NewService(cfg.Security.Tokens, log)
	sessions := session.NewManager(store, tokens, auditLog, cfg.Session.HeartbeatInterval, log)
	checker := permission.NewChecker(users, auditLog, alerts, log)
	userSvc := service.NewUserService(users, auditLog, alerts, cfg, log)
	api := service.NewMockAPI(userSvc, store, cfg, log)

	return &authFixture{
		auth:     service.NewAuthService(api, users, userSvc, sessions, checker, auditLog, alerts, store, cfg, log),
		store:    store,
		auditLog: auditLog,
		alerts:   alerts,
		users:    users,
	}
}

func TestLoginCreatesSession(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	require.NoError(t, err)
	require.NotNil(t, result.Session)
	assert.Nil(t, result.TwoFactor)
	assert.Equal(t, model.RoleAdmin, result.Session.Role)

	assert.True(t, f.auth.IsAuthenticated())

	user, err := f.auth.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "usr_seed_admin", user.ID)
}

func TestLoginWithTwoFactorChallenges(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.auth.Login(context.Background(), repository.SeedLeadEmail, repository.SeedLeadPassword)
	require.NoError(t, err)
	assert.Nil(t, result.Session)
	require.NotNil(t, result.TwoFactor)
	assert.Equal(t, "usr_seed_lead", result.TwoFactor.UserID)

	// No session exists until the second factor clears.
	assert.False(t, f.auth.IsAuthenticated())

	sess, err := f.auth.CompleteTwoFactor(context.Background(), result.TwoFactor.UserID, "123456")
	require.NoError(t, err)
	assert.Equal(t, model.RoleLeadProject, sess.Role)
	assert.True(t, f.auth.IsAuthenticated())
}

func TestLoginBadCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, "nope-nope")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.False(t, f.auth.IsAuthenticated())
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	require.NoError(t, err)

	f.auth.Logout()
	assert.False(t, f.auth.IsAuthenticated())
	assert.Nil(t, f.auth.CurrentSession())

	f.auth.Logout() // second call is a no-op
}

func TestCheckPermissionWithoutSession(t *testing.T) {
	f := newAuthFixture(t)

	d := f.auth.CheckPermission(permission.ActionViewAuthAudit, "audit-log")
	assert.False(t, d.Allowed)

	raised := f.alerts.List()
	require.NotEmpty(t, raised)
	assert.Equal(t, model.AlertPrivilegeEscalation, raised[0].Type)
}

func TestCheckPermissionWithSession(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	require.NoError(t, err)

	assert.True(t, f.auth.CheckPermission(permission.ActionViewAuthAudit, "audit-log").Allowed)

	d := f.auth.CheckPermissionFor("usr_seed_volunteer", permission.ActionViewAuthAudit, "audit-log")
	assert.False(t, d.Allowed)
}

func TestCheckRouteAccess(t *testing.T) {
	f := newAuthFixture(t)

	access := f.auth.CheckRouteAccess("/admin/audit-logs")
	assert.False(t, access.Allowed)
	assert.Equal(t, routes.LoginPath, access.RedirectTo)

	_, err := f.auth.Login(context.Background(), repository.SeedVolunteerEmail, repository.SeedVolunteerPass)
	require.NoError(t, err)

	access = f.auth.CheckRouteAccess("/admin/audit-logs")
	assert.False(t, access.Allowed)
	assert.Equal(t, "/volunteer/dashboard", access.RedirectTo)

	assert.True(t, f.auth.CheckRouteAccess("/volunteer/dashboard").Allowed)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Register(context.Background(), service.RegisterRequest{
		Email:    "extra@volunteerhub.org",
		Name:     "Extra",
		Password: "longenough",
	})
	require.NoError(t, err)

	snap := f.auth.Export()
	assert.Equal(t, service.SnapshotVersion, snap.Version)
	assert.Len(t, snap.Users, 6)

	require.NoError(t, f.auth.ResetToSeed())
	assert.Len(t, f.users.All(), 5)

	require.NoError(t, f.auth.Import(snap))
	assert.Len(t, f.users.All(), 6)

	_, err = f.users.GetByEmail("extra@volunteerhub.org")
	assert.NoError(t, err)

	// The import itself lands in the restored trail.
	var sawImport bool
	for _, e := range f.auth.AuditLog(0) {
		if e.Action == model.AuditActionDataImported {
			sawImport = true
		}
	}
	assert.True(t, sawImport)
}

func TestImportKeepsPriorLogoutOutOfImportedTrail(t *testing.T) {
	f := newAuthFixture(t)

	snap := f.auth.Export()
	require.Empty(t, snap.AuditLog)

	_, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	require.NoError(t, err)

	require.NoError(t, f.auth.Import(snap))
	assert.False(t, f.auth.IsAuthenticated())

	// The outgoing session's logout belongs to the replaced trail; the
	// imported one only gains the import event itself.
	entries := f.auth.AuditLog(0)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionDataImported, entries[0].Action)
}

func TestImportRejectsWrongVersion(t *testing.T) {
	f := newAuthFixture(t)

	snap := f.auth.Export()
	snap.Version = "vhub-auth/99"
	snap.Users = nil

	err := f.auth.Import(snap)
	assert.ErrorIs(t, err, service.ErrSnapshotVersion)

	// State is untouched by the rejected import.
	assert.Len(t, f.users.All(), 5)
}

func TestResetToSeed(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	require.NoError(t, err)

	require.NoError(t, f.auth.ResetToSeed())
	assert.False(t, f.auth.IsAuthenticated())
	assert.Len(t, f.users.All(), 5)
	assert.Empty(t, f.auth.AuditLog(0))
	assert.Empty(t, f.auth.SecurityAlerts())
}

func TestSimulatedNetworkErrors(t *testing.T) {
	f := newAuthFixture(t)

	dc := f.auth.DemoControls()
	dc.SimulateErrors = true
	require.NoError(t, f.auth.SetDemoControls(dc))

	_, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	assert.ErrorIs(t, err, service.ErrSimulatedNetwork)

	dc.SimulateErrors = false
	require.NoError(t, f.auth.SetDemoControls(dc))

	_, err = f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	assert.NoError(t, err)
}

func TestAcknowledgeAlert(t *testing.T) {
	f := newAuthFixture(t)

	f.auth.CheckPermissionFor("usr_seed_volunteer", permission.ActionConfigureSSO, "sso")
	raised := f.auth.SecurityAlerts()
	require.NotEmpty(t, raised)

	f.auth.AcknowledgeAlert(raised[0].ID)
	assert.True(t, f.auth.SecurityAlerts()[0].Acknowledged)

	f.auth.AcknowledgeAlert("alr_unknown") // silent no-op
}

func TestClearAll(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Login(context.Background(), repository.SeedAdminEmail, repository.SeedAdminPassword)
	require.NoError(t, err)

	require.NoError(t, f.auth.ClearAll())

	for _, key := range storage.Keys {
		if key == storage.KeyAuditLog {
			continue
		}
		_, ok, err := f.store.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be gone", key)
	}
	assert.False(t, f.auth.IsAuthenticated())

	// The fresh trail opens with the clear event.
	entries := f.auth.AuditLog(0)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionDataCleared, entries[0].Action)
}
