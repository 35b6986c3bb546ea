package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/volunteerhub/volunteerhub/internal/alert"
	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/auth"
	"github.com/volunteerhub/volunteerhub/internal/config"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/repository"
)

// Common service errors
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountNotActive     = errors.New("account is not active")
	ErrEmailNotVerified     = errors.New("please verify your email")
	ErrEmailAlreadyExists   = errors.New("email already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrTwoFactorNotEnabled  = errors.New("two-factor authentication is not enabled")
	ErrInvalidTwoFactorCode = errors.New("verification code must be 6 digits")
)

// UserService implements the account operations of the pretend backend:
// credential checks, registration, password resets, and the audit and
// alert side effects each of them carries.
type UserService struct {
	users       *repository.UserRepository
	auditLog    *audit.Log
	alerts      *alert.Engine
	cfg         *config.Config
	argonParams *auth.Argon2Params
	log         *logger.Logger
}

// NewUserService creates a UserService.
func NewUserService(users *repository.UserRepository, auditLog *audit.Log, alerts *alert.Engine, cfg *config.Config, log *logger.Logger) *UserService {
	return &UserService{
		users:    users,
		auditLog: auditLog,
		alerts:   alerts,
		cfg:      cfg,
		argonParams: auth.NewParams(
			cfg.Security.Password.Argon2Memory,
			cfg.Security.Password.Argon2Iterations,
			cfg.Security.Password.Argon2Parallelism,
		),
		log: log.WithComponent("user_service"),
	}
}

// Authenticate verifies the email/password pair against an active
// account. Every failure is audited, and enough failures for one email
// inside the alert window raise a repeated_failed_login alert.
func (s *UserService) Authenticate(email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		s.recordLoginFailure("", email, "unknown email")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		s.recordLoginFailure(user.ID, email, fmt.Sprintf("account status %s", user.Status))
		return nil, ErrAccountNotActive
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		s.recordLoginFailure(user.ID, email, "invalid password")
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		// Denied, not failed: correct credentials, unverified mailbox.
		// This path never raises an alert.
		s.auditLog.Record(user.ID, email, model.AuditActionLoginFailed, "auth", model.AuditDenied, "email not verified")
		return nil, ErrEmailNotVerified
	}

	if err := s.users.TouchLastLogin(user.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to stamp last login")
	}
	s.auditLog.Record(user.ID, email, model.AuditActionLogin, "auth", model.AuditSuccess, "")
	s.log.Info().Str("user_id", user.ID).Msg("credentials verified")

	user.LastLoginAt = ptrTime(time.Now())
	return user, nil
}

func (s *UserService) recordLoginFailure(userID, email, details string) {
	s.auditLog.Record(userID, email, model.AuditActionLoginFailed, "auth", model.AuditFailure, details)

	window := s.cfg.Alerts.FailedLoginWindow
	count := s.auditLog.CountFailedLogins(email, window)
	if count >= s.cfg.Alerts.FailedLoginCount {
		s.alerts.Raise(model.AlertRepeatedFailedLogin, model.SeverityHigh,
			fmt.Sprintf("%d failed login attempts for %s within %s", count, email, window),
			userID, window)
	}
}

// RegisterRequest contains the data for registering a new user
type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

// Register creates a new account. New users always start unassigned,
// active, and unverified, no matter what the caller asks for.
func (s *UserService) Register(req RegisterRequest) (*model.User, error) {
	if err := auth.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password, s.cfg.Security.Password.MinLength); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	hash, err := auth.HashPassword(req.Password, s.argonParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		ID:            repository.GenerateUserID(),
		Email:         req.Email,
		Name:          name,
		Role:          model.RoleUnassigned,
		Status:        model.UserStatusActive,
		EmailVerified: false,
		PasswordHash:  hash,
		CreatedAt:     time.Now(),
	}

	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditLog.Record(user.ID, user.Email, model.AuditActionRegister, "auth", model.AuditSuccess, "")
	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user registered")
	return &user, nil
}

// ResetPassword assigns a freshly generated password to the active
// account behind email and returns it in the clear, exactly once.
// Enough resets for one user inside the alert window raise a
// many_password_resets alert.
func (s *UserService) ResetPassword(email string) (string, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil || !user.IsActive() {
		s.auditLog.Record("", email, model.AuditActionPasswordResetRequest, "auth", model.AuditFailure, "no active account")
		return "", ErrUserNotFound
	}

	newPassword, err := auth.GenerateDemoPassword(12)
	if err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(newPassword, s.argonParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if _, _, err := s.users.Apply(user.ID, repository.Update{PasswordHash: &hash}); err != nil {
		return "", fmt.Errorf("failed to store new password: %w", err)
	}

	s.auditLog.Record(user.ID, email, model.AuditActionPasswordResetRequest, "auth", model.AuditSuccess, "")

	window := s.cfg.Alerts.PasswordResetWindow
	count := s.auditLog.CountPasswordResets(user.ID, window)
	if count >= s.cfg.Alerts.PasswordResetCount {
		s.alerts.Raise(model.AlertManyPasswordResets, model.SeverityMedium,
			fmt.Sprintf("%d password resets for %s within %s", count, email, window),
			user.ID, window)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return newPassword, nil
}

// VerifyTwoFactor checks the second factor for a user. The code is
// validated for shape only: six digits pass, anything else fails. No
// TOTP secret exists anywhere in this system.
func (s *UserService) VerifyTwoFactor(userID, code string) (*model.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		s.auditLog.Record(userID, "", model.AuditActionTwoFactorVerify, "auth", model.AuditFailure, "unknown user")
		return nil, ErrUserNotFound
	}
	if !user.TwoFactorEnabled {
		s.auditLog.Record(user.ID, user.Email, model.AuditActionTwoFactorVerify, "auth", model.AuditFailure, "2fa not enabled")
		return nil, ErrTwoFactorNotEnabled
	}
	if err := auth.ValidateTwoFactorCode(code); err != nil {
		s.auditLog.Record(user.ID, user.Email, model.AuditActionTwoFactorVerify, "auth", model.AuditFailure, "malformed code")
		return nil, ErrInvalidTwoFactorCode
	}

	s.auditLog.Record(user.ID, user.Email, model.AuditActionTwoFactorVerify, "auth", model.AuditSuccess, "")
	return user, nil
}

// UpdateUser merges partial fields into a user record. The audit entry
// names the changed fields but never their values.
func (s *UserService) UpdateUser(actorID, userID string, upd repository.Update) (*model.User, error) {
	user, changed, err := s.users.Apply(userID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if len(changed) > 0 {
		actor := actorID
		if actor == "" {
			actor = userID
		}
		s.auditLog.Record(actor, "", model.AuditActionUserUpdated, "user:"+userID,
			model.AuditSuccess, "fields: "+strings.Join(changed, ", "))
	}
	return user, nil
}

func ptrTime(t time.Time) *time.Time { return &t }
