package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volunteerhub/volunteerhub/internal/alert"
	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/config"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/permission"
	"github.com/volunteerhub/volunteerhub/internal/repository"
	"github.com/volunteerhub/volunteerhub/internal/routes"
	"github.com/volunteerhub/volunteerhub/internal/session"
	"github.com/volunteerhub/volunteerhub/internal/storage"
)

// SnapshotVersion tags exported auth data. Import rejects anything
// else.
const SnapshotVersion = "vhub-auth/1"

// ErrSnapshotVersion is returned when an imported snapshot carries the
// wrong version string.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// AuthService orchestrates the login, registration, and reset flows and
// exposes the full operation surface UI collaborators consume. All
// backend work goes through the AuthAPI seam.
type AuthService struct {
	api      AuthAPI
	users    *repository.UserRepository
	userSvc  *UserService
	sessions *session.Manager
	checker  *permission.Checker
	auditLog *audit.Log
	alerts   *alert.Engine
	store    storage.Store
	cfg      *config.Config
	log      *logger.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	api AuthAPI,
	users *repository.UserRepository,
	userSvc *UserService,
	sessions *session.Manager,
	checker *permission.Checker,
	auditLog *audit.Log,
	alerts *alert.Engine,
	store storage.Store,
	cfg *config.Config,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		api:      api,
		users:    users,
		userSvc:  userSvc,
		sessions: sessions,
		checker:  checker,
		auditLog: auditLog,
		alerts:   alerts,
		store:    store,
		cfg:      cfg,
		log:      log.WithComponent("auth_service"),
	}
}

// TwoFactorChallenge is returned when a login needs a second factor
// before a session can be created.
type TwoFactorChallenge struct {
	UserID string `json:"userId"`
}

// LoginResult wraps either a created session or a two-factor challenge.
type LoginResult struct {
	Session   *model.Session      `json:"session,omitempty"`
	TwoFactor *TwoFactorChallenge `json:"twoFactor,omitempty"`
}

// Login authenticates and either creates a session or hands back a
// two-factor challenge.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		s.log.Info().Str("user_id", user.ID).Msg("login pending second factor")
		return &LoginResult{TwoFactor: &TwoFactorChallenge{UserID: user.ID}}, nil
	}

	sess, err := s.sessions.Create(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: sess}, nil
}

// CompleteTwoFactor finishes a challenged login and creates the
// session.
func (s *AuthService) CompleteTwoFactor(ctx context.Context, userID, code string) (*model.Session, error) {
	user, err := s.api.VerifyTwoFactor(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	return s.sessions.Create(user)
}

// Register creates a new unassigned, unverified account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	return s.api.Register(ctx, req)
}

// RequestPasswordReset issues a new password for the account and
// returns it in the clear, once.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return s.api.RequestPasswordReset(ctx, email)
}

// Logout clears the current session. Safe to call with none.
func (s *AuthService) Logout() {
	s.sessions.Logout()
}

// CurrentSession returns the live session, if any.
func (s *AuthService) CurrentSession() *model.Session {
	return s.sessions.Current()
}

// CurrentUser resolves the live session to its full user record.
func (s *AuthService) CurrentUser() (*model.User, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrUserNotFound
	}
	return s.users.GetByID(sess.UserID)
}

// IsAuthenticated reports whether a live session exists.
func (s *AuthService) IsAuthenticated() bool {
	return s.sessions.Current() != nil
}

// CheckPermission evaluates an action for the currently logged-in user.
// Denials are always audited and alerted, whoever asks.
func (s *AuthService) CheckPermission(action permission.Action, resource string) permission.Decision {
	sess := s.sessions.Current()
	if sess == nil {
		return s.checker.Check("", action, resource)
	}
	return s.checker.Check(sess.UserID, action, resource)
}

// CheckPermissionFor evaluates an action for an explicit user id.
func (s *AuthService) CheckPermissionFor(userID string, action permission.Action, resource string) permission.Decision {
	return s.checker.Check(userID, action, resource)
}

// CheckRouteAccess applies the route protection table to a path for the
// current session.
func (s *AuthService) CheckRouteAccess(path string) routes.Access {
	return routes.CheckAccess(path, s.sessions.Current())
}

// RedirectPath returns the landing page for a role.
func (s *AuthService) RedirectPath(role model.Role) string {
	return routes.RedirectPath(role)
}

// UpdateUser merges partial fields into a user record on behalf of the
// current user (or the system when nobody is logged in).
func (s *AuthService) UpdateUser(userID string, upd repository.Update) (*model.User, error) {
	actor := ""
	if sess := s.sessions.Current(); sess != nil {
		actor = sess.UserID
	}
	return s.userSvc.UpdateUser(actor, userID, upd)
}

// AuditLog returns up to limit audit entries, newest first.
func (s *AuthService) AuditLog(limit int) []model.AuditEntry {
	return s.auditLog.Recent(limit)
}

// SecurityAlerts returns the retained alerts, newest first.
func (s *AuthService) SecurityAlerts() []model.SecurityAlert {
	return s.alerts.List()
}

// AcknowledgeAlert marks an alert as handled. Unknown ids are ignored.
func (s *AuthService) AcknowledgeAlert(alertID string) {
	s.alerts.Acknowledge(alertID)
}

// DemoControls returns the active demo controls.
func (s *AuthService) DemoControls() DemoControls {
	return LoadDemoControls(s.store, s.cfg)
}

// SetDemoControls persists new demo controls.
func (s *AuthService) SetDemoControls(dc DemoControls) error {
	return SaveDemoControls(s.store, dc)
}

// Snapshot is a versioned export of the whole persisted auth state.
type Snapshot struct {
	Version      string                `json:"version"`
	ExportedAt   time.Time             `json:"exportedAt"`
	Users        []model.User          `json:"users"`
	Session      *model.Session        `json:"session,omitempty"`
	AuditLog     []model.AuditEntry    `json:"auditLog"`
	Alerts       []model.SecurityAlert `json:"alerts"`
	DemoControls DemoControls          `json:"demoControls"`
}

// Export captures the current state as a snapshot.
func (s *AuthService) Export() *Snapshot {
	return &Snapshot{
		Version:      SnapshotVersion,
		ExportedAt:   time.Now(),
		Users:        s.users.All(),
		Session:      s.sessions.Current(),
		AuditLog:     s.auditLog.Recent(0),
		Alerts:       s.alerts.List(),
		DemoControls: s.DemoControls(),
	}
}

// Import replaces the whole state from a snapshot. The version string
// must match exactly; a mismatch leaves current state untouched.
func (s *AuthService) Import(snap *Snapshot) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrSnapshotVersion, snap.Version, SnapshotVersion)
	}

	// The outgoing session's logout lands in the old trail, not the
	// imported one.
	s.sessions.Logout()

	s.users.Replace(snap.Users)
	s.auditLog.Replace(snap.AuditLog)
	s.alerts.Replace(snap.Alerts)
	if err := SaveDemoControls(s.store, snap.DemoControls); err != nil {
		return err
	}

	if snap.Session != nil {
		if user, err := s.users.GetByID(snap.Session.UserID); err == nil {
			if _, err := s.sessions.Create(user); err != nil {
				return err
			}
		}
	}

	s.auditLog.Record("", "", model.AuditActionDataImported, "storage", model.AuditSuccess,
		fmt.Sprintf("%d users, %d audit entries, %d alerts", len(snap.Users), len(snap.AuditLog), len(snap.Alerts)))
	s.log.Info().Msg("auth data imported")
	return nil
}

// ResetToSeed drops every store back to the fixture state.
func (s *AuthService) ResetToSeed() error {
	s.sessions.Logout()
	if err := s.users.Seed(); err != nil {
		return err
	}
	s.auditLog.Reset()
	s.alerts.Reset()
	s.log.Info().Msg("auth data reset to seed fixtures")
	return nil
}

// ClearAll wipes the whole storage namespace. The fresh audit trail
// opens with the clear event itself.
func (s *AuthService) ClearAll() error {
	s.auditLog.Reset()
	s.alerts.Reset()
	s.users.Replace(nil)
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.auditLog.Record("", "", model.AuditActionDataCleared, "storage", model.AuditSuccess, "")
	s.log.Info().Msg("auth data cleared")
	return nil
}
