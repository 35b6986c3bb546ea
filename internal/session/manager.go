// Package session owns the single current-session value and its
// storage lifecycle.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/volunteerhub/volunteerhub/internal/audit"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/storage"
	"github.com/volunteerhub/volunteerhub/internal/token"
)

// Manager persists and validates the current session. Expiry is lazy:
// it is only ever detected when Current is called, never by a
// background timer. The heartbeat only touches last-activity.
type Manager struct {
	mu       sync.Mutex
	store    storage.Store
	tokens   *token.Service
	auditLog *audit.Log
	log      *logger.Logger
	interval time.Duration
}

// NewManager creates a session Manager. interval is the activity
// heartbeat period.
func NewManager(store storage.Store, tokens *token.Service, auditLog *audit.Log, interval time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		store:    store,
		tokens:   tokens,
		auditLog: auditLog,
		log:      log.WithComponent("session"),
		interval: interval,
	}
}

// Create builds a session for the user, persists it as the sole current
// session (overwriting any prior one), and stores the issued tokens.
func (m *Manager) Create(user *model.User) (*model.Session, error) {
	accessToken, err := m.tokens.Issue(user, m.tokens.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := m.tokens.IssueRefresh()
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	now := time.Now()
	sess := &model.Session{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		Avatar:       user.Avatar,
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(m.tokens.AccessTokenTTL()),
		CreatedAt:    now,
		LastActivity: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persist(sess); err != nil {
		return nil, err
	}
	m.store.Set(storage.KeyAccessToken, []byte(accessToken))
	m.store.Set(storage.KeyRefreshToken, []byte(refreshToken))

	m.auditLog.Record(user.ID, user.Email, model.AuditActionSessionCreated, "session", model.AuditSuccess, "")
	m.log.Info().Str("user_id", user.ID).Time("expires_at", sess.ExpiresAt).Msg("session created")
	return sess, nil
}

// Current returns the persisted session, or nil when there is none.
// A session found expired is implicitly logged out on the spot. A
// corrupt persisted value is cleared and treated as absent.
func (m *Manager) Current() *model.Session {
	m.mu.Lock()
	sess := m.read()
	m.mu.Unlock()

	if sess == nil {
		return nil
	}
	if sess.IsExpired() {
		m.logoutWith(sess, "session expired")
		return nil
	}
	return sess
}

// Touch updates last-activity on the persisted session, if any. Called
// by the periodic heartbeat.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.read()
	if sess == nil {
		return
	}
	sess.LastActivity = time.Now()
	if err := m.persist(sess); err != nil {
		m.log.Error().Err(err).Msg("failed to persist activity touch")
	}
}

// Logout clears the session and stored tokens, recording the logout
// under the session's identity. With no active session it is a silent
// no-op, so calling it twice is safe.
func (m *Manager) Logout() {
	m.mu.Lock()
	sess := m.read()
	m.mu.Unlock()

	if sess == nil {
		return
	}
	m.logoutWith(sess, "")
}

func (m *Manager) logoutWith(sess *model.Session, details string) {
	m.auditLog.Record(sess.UserID, sess.Email, model.AuditActionLogout, "session", model.AuditSuccess, details)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Delete(storage.KeySession)
	m.store.Delete(storage.KeyAccessToken)
	m.store.Delete(storage.KeyRefreshToken)
	m.log.Info().Str("user_id", sess.UserID).Msg("session cleared")
}

// MinutesRemaining returns whole minutes until the current session
// expires, 0 when none exists.
func (m *Manager) MinutesRemaining() int {
	sess := m.Current()
	if sess == nil {
		return 0
	}
	return token.MinutesUntilExpiry(sess)
}

// StartHeartbeat launches the activity heartbeat, touching the session
// every interval until the context is canceled. Fire-and-forget and
// idempotent; it never forces expiry.
func (m *Manager) StartHeartbeat(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Touch()
			}
		}
	}()
}

// read loads the raw persisted session without expiry handling.
// Caller must hold m.mu.
func (m *Manager) read() *model.Session {
	raw, ok, err := m.store.Get(storage.KeySession)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to read session from storage")
		return nil
	}
	if !ok {
		return nil
	}
	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		m.log.Warn().Err(err).Msg("discarding corrupt session")
		m.store.Delete(storage.KeySession)
		return nil
	}
	return &sess
}

// persist writes the session. Caller must hold m.mu.
func (m *Manager) persist(sess *model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.store.Set(storage.KeySession, raw); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}
