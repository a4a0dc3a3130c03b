// Package store persists the most recent import so a matrix can be rebuilt
// after a restart.
//
// Every backend holds exactly one slot. Saving overwrites it; there is no
// history and no conflict detection between concurrent writers.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/cohort/internal/core"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Store is an ImportStore with a lifecycle.
type Store interface {
	core.ImportStore
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver string
	URL    string

	// Slot names the single record that holds the last import.
	Slot string

	MaxConns int
}

// Open connects to the backend named by opts.Driver and verifies it.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Slot == "" {
		opts.Slot = core.LastImportKey
	}

	var (
		s   Store
		err error
	)
	switch strings.ToLower(opts.Driver) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverPostgres, "postgresql":
		s, err = OpenPostgres(ctx, opts)
	case DriverRedis:
		s, err = OpenRedis(ctx, opts)
	case DriverMySQL, "mariadb":
		s, err = OpenMySQL(ctx, opts)
	case DriverSQLite, "sqlite3":
		s, err = OpenSQLite(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", core.ErrInvalidArgument, opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping %s store: %w", opts.Driver, err)
	}
	return s, nil
}
