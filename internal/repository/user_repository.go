package repository

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/storage"
)

// UserRepository handles user record persistence over the key/value
// store. It is seeded from the fixture set on first run.
type UserRepository struct {
	mu    sync.Mutex
	store storage.Store
	log   *logger.Logger
	users []model.User
}

// NewUserRepository loads users from storage, seeding the fixture set
// when nothing is persisted yet. A corrupt persisted value is discarded
// and replaced by the fixtures.
func NewUserRepository(store storage.Store, log *logger.Logger) (*UserRepository, error) {
	r := &UserRepository{
		store: store,
		log:   log.WithComponent("user_repository"),
	}

	raw, ok, err := store.Get(storage.KeyUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &r.users); err == nil {
			return r, nil
		}
		r.log.Warn().Msg("discarding corrupt user list, reseeding")
		store.Delete(storage.KeyUsers)
	}

	if err := r.Seed(); err != nil {
		return nil, err
	}
	return r, nil
}

// Seed replaces all users with the fixture set and persists it.
func (r *UserRepository) Seed() error {
	users, err := SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to build seed users: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = users
	r.persist()
	r.log.Info().Int("count", len(users)).Msg("seeded user fixtures")
	return nil
}

// GetByID returns the user with the given id.
func (r *UserRepository) GetByID(id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// GetByEmail returns the user with the given email. Matching is exact
// and case-sensitive.
func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == email {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// All returns a copy of every user record.
func (r *UserRepository) All() []model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, len(r.users))
	copy(out, r.users)
	return out
}

// Create appends a new user. The email must not already be taken.
func (r *UserRepository) Create(user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == user.Email {
			return ErrAlreadyExists
		}
	}
	r.users = append(r.users, user)
	r.persist()
	return nil
}

// Update holds the partial fields an update may change. Nil pointers
// leave the field untouched.
type Update struct {
	Name             *string
	Role             *model.Role
	Status           *model.UserStatus
	EmailVerified    *bool
	TwoFactorEnabled *bool
	SSOLinked        *bool
	SSOProvider      *string
	Avatar           *string
	PasswordHash     *string
}

// Apply merges the update into the user record, returning the names of
// the fields that changed. Field names, never values: the changed-field
// list ends up in the audit trail.
func (r *UserRepository) Apply(userID string, upd Update) (*model.User, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.users {
		if r.users[i].ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, ErrNotFound
	}

	u := &r.users[idx]
	var changed []string

	if upd.Name != nil && *upd.Name != u.Name {
		u.Name = *upd.Name
		changed = append(changed, "name")
	}
	if upd.Role != nil && *upd.Role != u.Role {
		if !upd.Role.Valid() {
			return nil, nil, fmt.Errorf("invalid role %q", *upd.Role)
		}
		u.Role = *upd.Role
		changed = append(changed, "role")
	}
	if upd.Status != nil && *upd.Status != u.Status {
		if !upd.Status.Valid() {
			return nil, nil, fmt.Errorf("invalid status %q", *upd.Status)
		}
		u.Status = *upd.Status
		changed = append(changed, "status")
	}
	if upd.EmailVerified != nil && *upd.EmailVerified != u.EmailVerified {
		u.EmailVerified = *upd.EmailVerified
		changed = append(changed, "emailVerified")
	}
	if upd.TwoFactorEnabled != nil && *upd.TwoFactorEnabled != u.TwoFactorEnabled {
		u.TwoFactorEnabled = *upd.TwoFactorEnabled
		changed = append(changed, "twoFactorEnabled")
	}
	if upd.SSOLinked != nil && *upd.SSOLinked != u.SSOLinked {
		u.SSOLinked = *upd.SSOLinked
		changed = append(changed, "ssoLinked")
	}
	if upd.SSOProvider != nil && *upd.SSOProvider != u.SSOProvider {
		u.SSOProvider = *upd.SSOProvider
		changed = append(changed, "ssoProvider")
	}
	if upd.Avatar != nil && *upd.Avatar != u.Avatar {
		u.Avatar = *upd.Avatar
		changed = append(changed, "avatar")
	}
	if upd.PasswordHash != nil && *upd.PasswordHash != u.PasswordHash {
		u.PasswordHash = *upd.PasswordHash
		changed = append(changed, "password")
	}

	if len(changed) > 0 {
		sort.Strings(changed)
		r.persist()
	}

	cp := *u
	return &cp, changed, nil
}

// TouchLastLogin stamps the user's last successful login.
func (r *UserRepository) TouchLastLogin(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == userID {
			now := time.Now()
			r.users[i].LastLoginAt = &now
			r.persist()
			return nil
		}
	}
	return ErrNotFound
}

// Replace swaps the whole user list, used by snapshot import.
func (r *UserRepository) Replace(users []model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = users
	r.persist()
}

// persist writes the user list to storage. Caller must hold r.mu.
func (r *UserRepository) persist() {
	raw, err := json.Marshal(r.users)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to encode users")
		return
	}
	if err := r.store.Set(storage.KeyUsers, raw); err != nil {
		r.log.Error().Err(err).Msg("failed to persist users")
	}
}

// GenerateUserID returns a fresh prefixed user id.
func GenerateUserID() string {
	return "usr_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:26]
}
