package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/volunteerhub/volunteerhub/internal/config"
	"github.com/volunteerhub/volunteerhub/internal/logger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/storage"
)

// ErrSimulatedNetwork is what every call returns while the
// simulate-errors demo control is on.
var ErrSimulatedNetwork = errors.New("simulated network error")

// AuthAPI is the backend seam. Today the only implementation is the
// mock below; a real HTTP client can replace it without touching any
// caller.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	VerifyTwoFactor(ctx context.Context, userID, code string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
}

// DemoControls shape how the mock API behaves. They are persisted so a
// demo configuration survives restarts.
type DemoControls struct {
	NetworkDelayMs    int  `json:"networkDelayMs"`
	ShowLoadingStates bool `json:"showLoadingStates"`
	SimulateErrors    bool `json:"simulateErrors"`
}

// LoadDemoControls reads persisted controls, falling back to the
// configured defaults. A corrupt persisted value is cleared.
func LoadDemoControls(store storage.Store, cfg *config.Config) DemoControls {
	defaults := DemoControls{
		NetworkDelayMs:    cfg.Demo.NetworkDelayMs,
		ShowLoadingStates: cfg.Demo.ShowLoadingStates,
		SimulateErrors:    cfg.Demo.SimulateErrors,
	}
	raw, ok, err := store.Get(storage.KeyDemoControls)
	if err != nil || !ok {
		return defaults
	}
	var dc DemoControls
	if err := json.Unmarshal(raw, &dc); err != nil {
		store.Delete(storage.KeyDemoControls)
		return defaults
	}
	return dc
}

// SaveDemoControls persists the controls.
func SaveDemoControls(store storage.Store, dc DemoControls) error {
	raw, err := json.Marshal(dc)
	if err != nil {
		return err
	}
	return store.Set(storage.KeyDemoControls, raw)
}

// MockAPI implements AuthAPI against the local stores, wrapping every
// call in the simulated network delay. The delay exists purely so UI
// callers can exercise loading states; it carries no semantics.
type MockAPI struct {
	users *UserService
	store storage.Store
	cfg   *config.Config
	log   *logger.Logger
}

// NewMockAPI creates a MockAPI.
func NewMockAPI(users *UserService, store storage.Store, cfg *config.Config, log *logger.Logger) *MockAPI {
	return &MockAPI{
		users: users,
		store: store,
		cfg:   cfg,
		log:   log.WithComponent("mock_api"),
	}
}

// simulate applies the demo delay and the simulated-error switch before
// a call proceeds.
func (m *MockAPI) simulate(ctx context.Context) error {
	dc := LoadDemoControls(m.store, m.cfg)

	if dc.NetworkDelayMs > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(dc.NetworkDelayMs) * time.Millisecond):
		}
	}

	if dc.SimulateErrors {
		return ErrSimulatedNetwork
	}
	return nil
}

func (m *MockAPI) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	return m.users.Authenticate(email, password)
}

func (m *MockAPI) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	return m.users.Register(req)
}

func (m *MockAPI) VerifyTwoFactor(ctx context.Context, userID, code string) (*model.User, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	return m.users.VerifyTwoFactor(userID, code)
}

func (m *MockAPI) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := m.simulate(ctx); err != nil {
		return "", err
	}
	return m.users.ResetPassword(email)
}
