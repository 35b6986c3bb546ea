// Package storage provides the persisted key/value namespace the auth
// subsystem keeps its state in. Values are opaque JSON blobs; every key
// lives under the single "vhub:" namespace.
package storage

import "errors"

// Storage keys. The whole persisted state of the subsystem lives under
// these and nothing else.
const (
	KeySession      = "vhub:session"
	KeyUsers        = "vhub:users"
	KeyAuditLog     = "vhub:audit_log"
	KeyAlerts       = "vhub:alerts"
	KeyDemoControls = "vhub:demo_controls"
	KeyAccessToken  = "vhub:access_token"
	KeyRefreshToken = "vhub:refresh_token"
)

// Keys lists every key in the namespace, used by Clear implementations
// that cannot enumerate keys natively.
var Keys = []string{
	KeySession,
	KeyUsers,
	KeyAuditLog,
	KeyAlerts,
	KeyDemoControls,
	KeyAccessToken,
	KeyRefreshToken,
}

// ErrBackendUnavailable is returned when the backing store cannot be
// reached at all (as opposed to a key simply being absent).
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// Store is the persistence contract. Get returns (nil, false, nil) for
// an absent key; callers treat unparseable values as absent and delete
// them rather than failing.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Clear removes every key in the namespace.
	Clear() error
}
