// Package alert derives security alerts from patterns the audit trail
// exposes and tracks their acknowledged state.
package alert

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/storage"
)

// Engine owns the bounded list of security alerts, newest first.
// An alert's only state transition is unacknowledged -> acknowledged;
// alerts are never deleted except by cap eviction.
type Engine struct {
	mu        sync.Mutex
	store     storage.Store
	log       *logger.Logger
	maxAlerts int
	alerts    []model.SecurityAlert // newest first
}

// New loads persisted alerts. A corrupt persisted value is cleared.
func New(store storage.Store, maxAlerts int, log *logger.Logger) *Engine {
	e := &Engine{
		store:     store,
		log:       log.WithComponent("alerts"),
		maxAlerts: maxAlerts,
	}
	e.hydrate()
	return e
}

func (e *Engine) hydrate() {
	raw, ok, err := e.store.Get(storage.KeyAlerts)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to read alerts from storage")
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, &e.alerts); err != nil {
		e.log.Warn().Err(err).Msg("discarding corrupt alert list")
		e.alerts = nil
		e.store.Delete(storage.KeyAlerts)
	}
}

// Raise records a new alert unless an unacknowledged alert of the same
// type for the same user already exists within the dedupe window, in
// which case the trigger is considered already reported.
func (e *Engine) Raise(t model.AlertType, severity model.AlertSeverity, message, userID string, dedupeWindow time.Duration) *model.SecurityAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-dedupeWindow)
	for _, a := range e.alerts {
		if a.Timestamp.Before(cutoff) {
			break
		}
		if a.Type == t && a.UserID == userID && !a.Acknowledged {
			return nil
		}
	}

	alert := model.SecurityAlert{
		ID:        "alr_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:26],
		Type:      t,
		Severity:  severity,
		Message:   message,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	e.alerts = append([]model.SecurityAlert{alert}, e.alerts...)
	if len(e.alerts) > e.maxAlerts {
		e.alerts = e.alerts[:e.maxAlerts]
	}
	e.persist()

	e.log.Warn().
		Str("alert_id", alert.ID).
		Str("type", string(t)).
		Str("severity", string(severity)).
		Str("user_id", userID).
		Msg(message)

	return &alert
}

// Acknowledge marks the alert as handled. An unknown id is a silent
// no-op.
func (e *Engine) Acknowledge(alertID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.alerts {
		if e.alerts[i].ID == alertID {
			if !e.alerts[i].Acknowledged {
				e.alerts[i].Acknowledged = true
				e.persist()
			}
			return
		}
	}
}

// List returns every retained alert, newest first.
func (e *Engine) List() []model.SecurityAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.SecurityAlert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// Replace swaps the alert list, used by snapshot import.
func (e *Engine) Replace(alerts []model.SecurityAlert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(alerts) > e.maxAlerts {
		alerts = alerts[:e.maxAlerts]
	}
	e.alerts = alerts
	e.persist()
}

// Reset drops every alert.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = nil
	e.persist()
}

// persist writes the alerts to storage. Caller must hold e.mu.
func (e *Engine) persist() {
	raw, err := json.Marshal(e.alerts)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to encode alerts")
		return
	}
	if err := e.store.Set(storage.KeyAlerts, raw); err != nil {
		e.log.Error().Err(err).Msg("failed to persist alerts")
	}
}
