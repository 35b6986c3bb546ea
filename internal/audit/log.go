// Package audit maintains the append-only, bounded trail of
// authentication and authorization outcomes.
package audit

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/storage"
)

// Log is the bounded, newest-first audit trail. Entries are immutable
// once appended; when the cap is reached the oldest entry is evicted.
type Log struct {
	mu         sync.Mutex
	store      storage.Store
	log        *logger.Logger
	maxEntries int
	entries    []model.AuditEntry // newest first
}

// New loads the audit trail from storage. A corrupt persisted value is
// cleared and the log starts empty.
func New(store storage.Store, maxEntries int, log *logger.Logger) *Log {
	l := &Log{
		store:      store,
		log:        log.WithComponent("audit"),
		maxEntries: maxEntries,
	}
	l.hydrate()
	return l
}

func (l *Log) hydrate() {
	raw, ok, err := l.store.Get(storage.KeyAuditLog)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to read audit log from storage")
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, &l.entries); err != nil {
		l.log.Warn().Err(err).Msg("discarding corrupt audit log")
		l.entries = nil
		l.store.Delete(storage.KeyAuditLog)
	}
}

// Record composes an entry with a fresh id, timestamp, and synthetic
// client fields, then appends it.
func (l *Log) Record(actorID, actorEmail, action, resource string, result model.AuditResult, details string) model.AuditEntry {
	if actorID == "" {
		actorID = model.SystemActor
	}
	entry := model.AuditEntry{
		ID:         generateID(),
		Timestamp:  time.Now(),
		ActorID:    actorID,
		ActorEmail: actorEmail,
		Action:     action,
		Resource:   resource,
		Result:     result,
		IPAddress:  syntheticIP(),
		UserAgent:  syntheticUserAgent(),
		Details:    details,
	}
	l.Append(entry)
	return entry
}

// Append inserts an entry at the head, evicting the oldest entry when
// the retention cap is exceeded, and persists the log.
func (l *Log) Append(entry model.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]model.AuditEntry{entry}, l.entries...)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[:l.maxEntries]
	}
	l.persist()
}

// Recent returns up to limit entries, newest first. A non-positive
// limit returns everything.
func (l *Log) Recent(limit int) []model.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.AuditEntry, n)
	copy(out, l.entries[:n])
	return out
}

// Len returns the current entry count.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// CountSince counts entries newer than the window that match pred.
// The alert rules re-scan the window on every evaluation rather than
// keeping running counters.
func (l *Log) CountSince(window time.Duration, pred func(model.AuditEntry) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-window)
	count := 0
	for _, e := range l.entries {
		if e.Timestamp.Before(cutoff) {
			// Entries are newest first; everything past here is older.
			break
		}
		if pred(e) {
			count++
		}
	}
	return count
}

// CountFailedLogins counts failed login entries for the email within
// the window.
func (l *Log) CountFailedLogins(email string, window time.Duration) int {
	email = strings.ToLower(email)
	return l.CountSince(window, func(e model.AuditEntry) bool {
		return e.Action == model.AuditActionLoginFailed &&
			strings.ToLower(e.ActorEmail) == email
	})
}

// CountPasswordResets counts completed reset requests for the user
// within the window.
func (l *Log) CountPasswordResets(userID string, window time.Duration) int {
	return l.CountSince(window, func(e model.AuditEntry) bool {
		return e.Action == model.AuditActionPasswordResetRequest &&
			e.Result == model.AuditSuccess &&
			e.ActorID == userID
	})
}

// Replace swaps the whole trail, used by snapshot import.
func (l *Log) Replace(entries []model.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(entries) > l.maxEntries {
		entries = entries[:l.maxEntries]
	}
	l.entries = entries
	l.persist()
}

// Reset drops every entry.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.persist()
}

// persist writes the trail to storage. Caller must hold l.mu.
func (l *Log) persist() {
	raw, err := json.Marshal(l.entries)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to encode audit log")
		return
	}
	if err := l.store.Set(storage.KeyAuditLog, raw); err != nil {
		l.log.Error().Err(err).Msg("failed to persist audit log")
	}
}

func generateID() string {
	return "aud_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:26]
}

// Synthetic client fields. The subsystem has no transport, so these
// stand in for what a real backend would record.

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_3) Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) Firefox/123.0",
}

func syntheticIP() string {
	return fmt.Sprintf("10.0.%d.%d", rand.Intn(256), rand.Intn(254)+1)
}

func syntheticUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}
