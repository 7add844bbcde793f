package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrCorrupt is returned when a stored value exists but cannot be opened.
	ErrCorrupt = errors.New("store: stored value is unreadable")
)

// Persisted key names. The legacy names duplicate the current ones for older
// embedding integrations that read them directly.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserProfile  = "user_profile"

	LegacyKeyToken     = "token"
	LegacyKeyAuthToken = "authToken"
	LegacyKeyUser      = "user"
)

// AllKeys lists every key written for a session. Logout clears all of them.
func AllKeys() []string {
	return []string{
		KeyAccessToken, KeyRefreshToken, KeyUserProfile,
		LegacyKeyToken, LegacyKeyAuthToken, LegacyKeyUser,
	}
}

// Store is the root data access interface implemented by drivers.
type Store interface {
	Keys() Keys

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view of the store.
type Tx interface {
	Keys() Keys
}

// Keys is a small key/value table of opaque values.
type Keys interface {
	// Put inserts or replaces the value stored under name.
	Put(ctx context.Context, name string, value []byte) error

	// Get returns the value stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes the named keys. Missing keys are ignored.
	Delete(ctx context.Context, names ...string) error
}
