package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/volunteerhub/volunteerhub/internal/alert"
	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/config"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/permission"
	"github.com/volunteerhub/volunteerhub/internal/repository"
	"github.com/volunteerhub/volunteerhub/internal/service"
	"github.com/volunteerhub/volunteerhub/internal/session"
	"github.com/volunteerhub/volunteerhub/internal/storage"
	"github.com/volunteerhub/volunteerhub/internal/token"
)

var rootCmd = &cobra.Command{
	Use:   "vhub",
	Short: "VolunteerHub auth demo console",
}

var loginCmd = &cobra.Command{
	Use:   "login [email] [password]",
	Short: "Authenticate and create a session",
	Args:  cobra.ExactArgs(2),
	RunE:  runLogin,
}

var verify2FACmd = &cobra.Command{
	Use:   "verify-2fa [user-id] [code]",
	Short: "Complete a two-factor login challenge",
	Args:  cobra.ExactArgs(2),
	RunE:  runVerify2FA,
}

var registerCmd = &cobra.Command{
	Use:   "register [email] [name] [password]",
	Short: "Create a new volunteer account",
	Args:  cobra.ExactArgs(3),
	RunE:  runRegister,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [email]",
	Short: "Request a password reset for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runResetPassword,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE:  runWhoami,
}

var checkCmd = &cobra.Command{
	Use:   "check [action] [resource]",
	Short: "Check a permission for the current user",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCheck,
}

var routeCmd = &cobra.Command{
	Use:   "route [path]",
	Short: "Check route access for the current session",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoute,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit log entries",
	RunE:  runAudit,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List security alerts",
	RunE:  runAlerts,
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack [alert-id]",
	Short: "Acknowledge a security alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsAck,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Show or change demo controls",
	RunE:  runDemo,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all auth data to a JSON snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import auth data from a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset all auth data to the demo fixtures",
	RunE:  runSeed,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe all auth data",
	RunE:  runClear,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the session heartbeat until interrupted",
	RunE:  runMonitor,
}

var updateUserCmd = &cobra.Command{
	Use:   "update-user [user-id]",
	Short: "Change fields on a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdateUser,
}

var (
	auditLimit    int
	demoDelayMs   int
	demoLoading   string
	demoSimErrors string

	updName     string
	updRole     string
	updStatus   string
	updVerified string
	upd2FA      string
)

func init() {
	updateUserCmd.Flags().StringVar(&updName, "name", "", "display name")
	updateUserCmd.Flags().StringVar(&updRole, "role", "", "role (admin, hr, lead_project, volunteer, unassigned)")
	updateUserCmd.Flags().StringVar(&updStatus, "status", "", "account status (active, suspended, inactive, deleted)")
	updateUserCmd.Flags().StringVar(&updVerified, "verified", "", "email verified (true/false)")
	updateUserCmd.Flags().StringVar(&upd2FA, "2fa", "", "two-factor enabled (true/false)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum entries to show (0 for all)")
	demoCmd.Flags().IntVar(&demoDelayMs, "delay-ms", -1, "simulated network delay in milliseconds")
	demoCmd.Flags().StringVar(&demoLoading, "loading", "", "show loading states (true/false)")
	demoCmd.Flags().StringVar(&demoSimErrors, "errors", "", "simulate network errors (true/false)")

	alertsCmd.AddCommand(alertsAckCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(verify2FACmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(updateUserCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    storage.Store
	sessions *session.Manager
	auth     *service.AuthService
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	auditLog := audit.New(store, cfg.Audit.MaxEntries, log)
	alerts := alert.New(store, cfg.Alerts.MaxAlerts, log)

	userRepo, err := repository.NewUserRepository(store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user repository: %w", err)
	}

	tokenSvc := token.NewService(cfg.Security.Tokens, log)
	sessions := session.NewManager(store, tokenSvc, auditLog, cfg.Session.HeartbeatInterval, log)
	checker := permission.NewChecker(userRepo, auditLog, alerts, log)

	userSvc := service.NewUserService(userRepo, auditLog, alerts, cfg, log)
	api := service.NewMockAPI(userSvc, store, cfg, log)
	authSvc := service.NewAuthService(api, userRepo, userSvc, sessions, checker, auditLog, alerts, store, cfg, log)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		sessions: sessions,
		auth:     authSvc,
	}, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "redis":
		return storage.NewRedisStore(cfg.Redis)
	default:
		return storage.NewFileStore(cfg.Storage.Path)
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	result, err := a.auth.Login(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	if result.TwoFactor != nil {
		fmt.Printf("Two-factor code required. Complete with:\n  vhub verify-2fa %s <code>\n", result.TwoFactor.UserID)
		return nil
	}

	sess := result.Session
	fmt.Printf("Logged in as %s (%s)\n", sess.Name, sess.Role)
	fmt.Printf("Session expires: %s\n", sess.ExpiresAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Landing page: %s\n", a.auth.RedirectPath(sess.Role))
	return nil
}

func runVerify2FA(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	sess, err := a.auth.CompleteTwoFactor(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", sess.Name, sess.Role)
	fmt.Printf("Landing page: %s\n", a.auth.RedirectPath(sess.Role))
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	user, err := a.auth.Register(cmd.Context(), service.RegisterRequest{
		Email:    args[0],
		Name:     args[1],
		Password: args[2],
	})
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s (%s) with role %s\n", user.Name, user.Email, user.Role)
	fmt.Println("The account starts unverified; an administrator must assign a role.")
	return nil
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	password, err := a.auth.RequestPasswordReset(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("New password for %s: %s\n", args[0], password)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	a.auth.Logout()
	fmt.Println("Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	sess := a.auth.CurrentSession()
	if sess == nil {
		fmt.Println("Not logged in")
		return nil
	}

	fmt.Printf("User:    %s (%s)\n", sess.Name, sess.Email)
	fmt.Printf("Role:    %s\n", sess.Role)
	fmt.Printf("Expires: %s (%d minutes remaining)\n",
		sess.ExpiresAt.Format("2006-01-02 15:04:05"), a.sessions.MinutesRemaining())
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	action := permission.Action(args[0])
	resource := string(action)
	if len(args) == 2 {
		resource = args[1]
	}

	decision := a.auth.CheckPermission(action, resource)
	if decision.Allowed {
		fmt.Printf("Allowed: %s\n", action)
	} else {
		fmt.Printf("Denied: %s (%s)\n", action, decision.Reason)
	}
	return nil
}

func runRoute(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	access := a.auth.CheckRouteAccess(args[0])
	if access.Allowed {
		fmt.Printf("Allowed: %s\n", args[0])
		return nil
	}

	fmt.Printf("Denied: %s\n", args[0])
	if access.Message != "" {
		fmt.Printf("  %s\n", access.Message)
	}
	fmt.Printf("  Redirect to: %s\n", access.RedirectTo)
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	entries := a.auth.AuditLog(auditLimit)
	if len(entries) == 0 {
		fmt.Println("Audit log is empty")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %-24s %s",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Result, e.Action, e.ActorEmail)
		if e.Details != "" {
			line += "  (" + e.Details + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func runAlerts(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	alerts := a.auth.SecurityAlerts()
	if len(alerts) == 0 {
		fmt.Println("No security alerts")
		return nil
	}

	for _, al := range alerts {
		status := " "
		if al.Acknowledged {
			status = "ack"
		}
		fmt.Printf("%s  [%-8s] %-22s %-3s %s\n",
			al.Timestamp.Format("2006-01-02 15:04:05"), al.Severity, al.Type, status, al.Message)
		fmt.Printf("  id: %s\n", al.ID)
	}
	return nil
}

func runAlertsAck(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	a.auth.AcknowledgeAlert(args[0])
	fmt.Printf("Acknowledged %s\n", args[0])
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	dc := a.auth.DemoControls()
	changed := false

	if demoDelayMs >= 0 {
		dc.NetworkDelayMs = demoDelayMs
		changed = true
	}
	if demoLoading != "" {
		v, err := strconv.ParseBool(demoLoading)
		if err != nil {
			return fmt.Errorf("invalid --loading value: %w", err)
		}
		dc.ShowLoadingStates = v
		changed = true
	}
	if demoSimErrors != "" {
		v, err := strconv.ParseBool(demoSimErrors)
		if err != nil {
			return fmt.Errorf("invalid --errors value: %w", err)
		}
		dc.SimulateErrors = v
		changed = true
	}

	if changed {
		if err := a.auth.SetDemoControls(dc); err != nil {
			return err
		}
	}

	fmt.Printf("Network delay:       %dms\n", dc.NetworkDelayMs)
	fmt.Printf("Show loading states: %v\n", dc.ShowLoadingStates)
	fmt.Printf("Simulate errors:     %v\n", dc.SimulateErrors)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	snap := a.auth.Export()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if len(args) == 0 {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(args[0], data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	fmt.Printf("Exported %d users, %d audit entries, %d alerts to %s\n",
		len(snap.Users), len(snap.AuditLog), len(snap.Alerts), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap service.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if err := a.auth.Import(&snap); err != nil {
		return err
	}
	fmt.Printf("Imported %d users, %d audit entries, %d alerts\n",
		len(snap.Users), len(snap.AuditLog), len(snap.Alerts))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.auth.ResetToSeed(); err != nil {
		return err
	}
	fmt.Println("Reset to demo fixtures. Seed accounts:")
	fmt.Println("  admin@volunteerhub.org / admin-demo-2024")
	fmt.Println("  hr@volunteerhub.org / hr-demo-2024")
	fmt.Println("  lead@volunteerhub.org / lead-demo-2024")
	fmt.Println("  volunteer@volunteerhub.org / volunteer-demo-2024")
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.auth.ClearAll(); err != nil {
		return err
	}
	fmt.Println("All auth data cleared")
	return nil
}

func runUpdateUser(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	var upd repository.Update
	if updName != "" {
		upd.Name = &updName
	}
	if updRole != "" {
		role := model.Role(updRole)
		upd.Role = &role
	}
	if updStatus != "" {
		status := model.UserStatus(updStatus)
		upd.Status = &status
	}
	if updVerified != "" {
		v, err := strconv.ParseBool(updVerified)
		if err != nil {
			return fmt.Errorf("invalid --verified value: %w", err)
		}
		upd.EmailVerified = &v
	}
	if upd2FA != "" {
		v, err := strconv.ParseBool(upd2FA)
		if err != nil {
			return fmt.Errorf("invalid --2fa value: %w", err)
		}
		upd.TwoFactorEnabled = &v
	}

	user, err := a.auth.UpdateUser(args[0], upd)
	if err != nil {
		return err
	}

	fmt.Printf("Updated %s (%s)\n", user.Name, user.Email)
	fmt.Printf("  role: %s  status: %s  verified: %v  2fa: %v\n",
		user.Role, user.Status, user.EmailVerified, user.TwoFactorEnabled)
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	sess := a.auth.CurrentSession()
	if sess == nil {
		return fmt.Errorf("not logged in")
	}

	a.log.Info().
		Str("user_id", sess.UserID).
		Dur("interval", a.cfg.Session.HeartbeatInterval).
		Msg("session heartbeat running")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a.sessions.StartHeartbeat(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.log.Info().Msg("heartbeat stopped")
	return nil
}
