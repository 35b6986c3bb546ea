package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub/internal/alert"
	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/config"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/repository"
	"github.com/volunteerhub/volunteerhub/internal/service"
	"github.com/volunteerhub/volunteerhub/internal/storage"
)

type userServiceFixture struct {
	svc      *service.UserService
	users    *repository.UserRepository
	auditLog *audit.Log
	alerts   *alert.Engine
	cfg      *config.Config
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
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

	return &userServiceFixture{
		svc:      service.NewUserService(users, auditLog, alerts, cfg, log),
		users:    users,
		auditLog: auditLog,
		alerts:   alerts,
		cfg:      cfg,
	}
}

func (f *userServiceFixture) alertsOfType(t model.AlertType) []model.SecurityAlert {
	var out []model.SecurityAlert
	for _, a := range f.alerts.List() {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func TestAuthenticateSuccess(t *testing.T) {
	f := newUserServiceFixture(t)

	user, err := f.svc.Authenticate(repository.SeedAdminEmail, repository.SeedAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.NotNil(t, user.LastLoginAt)

	entries := f.auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionLogin, entries[0].Action)
	assert.Equal(t, model.AuditSuccess, entries[0].Result)
	assert.Empty(t, f.alerts.List())
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	f := newUserServiceFixture(t)

	_, err := f.svc.Authenticate("nobody@volunteerhub.org", "whatever123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	entries := f.auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionLoginFailed, entries[0].Action)
	assert.Equal(t, model.AuditFailure, entries[0].Result)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	f := newUserServiceFixture(t)

	_, err := f.svc.Authenticate(repository.SeedAdminEmail, "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRepeatedFailuresRaiseOneAlert(t *testing.T) {
	f := newUserServiceFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Authenticate(repository.SeedAdminEmail, "wrong-password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	}

	raised := f.alertsOfType(model.AlertRepeatedFailedLogin)
	require.Len(t, raised, 1)
	assert.Equal(t, model.SeverityHigh, raised[0].Severity)

	// A fourth failure inside the window rides on the open alert.
	_, err := f.svc.Authenticate(repository.SeedAdminEmail, "wrong-password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Len(t, f.alertsOfType(model.AlertRepeatedFailedLogin), 1)
}

func TestAuthenticateSuspendedAccount(t *testing.T) {
	f := newUserServiceFixture(t)

	suspended := model.UserStatusSuspended
	_, _, err := f.users.Apply("usr_seed_volunteer", repository.Update{Status: &suspended})
	require.NoError(t, err)

	_, err = f.svc.Authenticate(repository.SeedVolunteerEmail, repository.SeedVolunteerPass)
	assert.ErrorIs(t, err, service.ErrAccountNotActive)
}

func TestAuthenticateUnverifiedEmail(t *testing.T) {
	f := newUserServiceFixture(t)

	_, err := f.svc.Authenticate("pending@volunteerhub.org", "pending-demo-2024")
	assert.ErrorIs(t, err, service.ErrEmailNotVerified)

	// Correct credentials on an unverified mailbox: audited as denied,
	// never alerted.
	entries := f.auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditDenied, entries[0].Result)
	assert.Empty(t, f.alerts.List())
}

func TestRegister(t *testing.T) {
	f := newUserServiceFixture(t)

	user, err := f.svc.Register(service.RegisterRequest{
		Email:    "new@volunteerhub.org",
		Name:     "New Person",
		Password: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUnassigned, user.Role)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.False(t, user.EmailVerified)
	assert.NotEmpty(t, user.PasswordHash)

	entries := f.auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionRegister, entries[0].Action)
}

func TestRegisterValidation(t *testing.T) {
	f := newUserServiceFixture(t)

	_, err := f.svc.Register(service.RegisterRequest{Email: "bad", Name: "N", Password: "longenough"})
	assert.Error(t, err)

	_, err = f.svc.Register(service.RegisterRequest{Email: "ok@x.org", Name: "N", Password: "short"})
	assert.Error(t, err)

	_, err = f.svc.Register(service.RegisterRequest{Email: "ok@x.org", Name: "  ", Password: "longenough"})
	assert.Error(t, err)

	_, err = f.svc.Register(service.RegisterRequest{
		Email:    repository.SeedAdminEmail,
		Name:     "Impostor",
		Password: "longenough",
	})
	assert.ErrorIs(t, err, service.ErrEmailAlreadyExists)
}

func TestResetPassword(t *testing.T) {
	f := newUserServiceFixture(t)

	newPassword, err := f.svc.ResetPassword(repository.SeedVolunteerEmail)
	require.NoError(t, err)
	assert.Len(t, newPassword, 12)

	// The old password no longer works; the issued one does.
	_, err = f.svc.Authenticate(repository.SeedVolunteerEmail, repository.SeedVolunteerPass)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	user, err := f.svc.Authenticate(repository.SeedVolunteerEmail, newPassword)
	require.NoError(t, err)
	assert.Equal(t, "usr_seed_volunteer", user.ID)
}

func TestResetPasswordUnknownEmail(t *testing.T) {
	f := newUserServiceFixture(t)

	_, err := f.svc.ResetPassword("nobody@volunteerhub.org")
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	entries := f.auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionPasswordResetRequest, entries[0].Action)
	assert.Equal(t, model.AuditFailure, entries[0].Result)
	assert.Empty(t, f.alerts.List())
}

func TestManyResetsRaiseAlert(t *testing.T) {
	f := newUserServiceFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.ResetPassword(repository.SeedVolunteerEmail)
		require.NoError(t, err)
	}

	raised := f.alertsOfType(model.AlertManyPasswordResets)
	require.Len(t, raised, 1)
	assert.Equal(t, model.SeverityMedium, raised[0].Severity)
	assert.Equal(t, "usr_seed_volunteer", raised[0].UserID)
}

func TestVerifyTwoFactor(t *testing.T) {
	f := newUserServiceFixture(t)

	// The seeded project lead has two-factor enabled; shape is all that
	// is checked.
	user, err := f.svc.VerifyTwoFactor("usr_seed_lead", "123456")
	require.NoError(t, err)
	assert.Equal(t, model.RoleLeadProject, user.Role)

	_, err = f.svc.VerifyTwoFactor("usr_seed_lead", "12ab56")
	assert.ErrorIs(t, err, service.ErrInvalidTwoFactorCode)

	_, err = f.svc.VerifyTwoFactor("usr_seed_volunteer", "123456")
	assert.ErrorIs(t, err, service.ErrTwoFactorNotEnabled)

	_, err = f.svc.VerifyTwoFactor("usr_ghost", "123456")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUpdateUserAuditsFieldNamesOnly(t *testing.T) {
	f := newUserServiceFixture(t)

	name := "Secret New Name"
	role := model.RoleVolunteer
	_, err := f.svc.UpdateUser("usr_seed_admin", "usr_seed_pending", repository.Update{Name: &name, Role: &role})
	require.NoError(t, err)

	entries := f.auditLog.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionUserUpdated, entries[0].Action)
	assert.Equal(t, "usr_seed_admin", entries[0].ActorID)
	assert.Equal(t, "fields: name, role", entries[0].Details)
	assert.NotContains(t, entries[0].Details, "Secret New Name")
}
