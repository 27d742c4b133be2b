package storage

import (
	"errors"
	"strings"

	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return newMemStore(), nil
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
