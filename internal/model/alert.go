package model

import "time"

// AlertType identifies the audit pattern that triggered a security alert.
type AlertType string

const (
	AlertRepeatedFailedLogin AlertType = "repeated_failed_login"
	AlertImpossibleTravel    AlertType = "impossible_travel"
	AlertManyPasswordResets  AlertType = "many_password_resets"
	AlertPrivilegeEscalation AlertType = "privilege_escalation"
)

// AlertSeverity grades how urgent an alert is.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// SecurityAlert is a derived warning synthesized from patterns in the
// audit trail. Acknowledged is the only field that changes after
// creation; acknowledgement is terminal.
type SecurityAlert struct {
	ID           string        `json:"id"`
	Type         AlertType     `json:"type"`
	Severity     AlertSeverity `json:"severity"`
	Message      string        `json:"message"`
	UserID       string        `json:"userId,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	Acknowledged bool          `json:"acknowledged"`
}
