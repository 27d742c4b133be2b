package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps any fault of the backing store. Callers must surface
// it to the user as a generic failure instead of silently dropping the write.
var ErrUnavailable = errors.New("storage unavailable")

// Config configures the subscriber directory.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": process-local set, lost on restart (tests, dry runs)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the durable set of subscriber ids.
//
// Register is idempotent: re-adding a known id is a no-op, not an error.
// ListAll returns a point-in-time snapshot; registrations racing with an
// in-flight broadcast run may be included or excluded.
type Store interface {
	Register(ctx context.Context, userID int64) error
	ListAll(ctx context.Context) ([]int64, error)
	Close() error
}
