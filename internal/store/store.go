// Package store provides the database backends used to clean up data
// created by UI tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/config"
)

// ErrDisabled is returned by New when no backend is selected.
var ErrDisabled = errors.New("database cleanup disabled")

// ErrInvalidIdentifier marks a container or table name that cannot be
// interpolated into a statement.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Database is the common contract of every cleanup backend.
type Database interface {
	// ExecuteQuery runs a read statement and returns its rows keyed by column.
	ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	// ExecuteNonQuery runs a write statement and returns the affected count.
	ExecuteNonQuery(ctx context.Context, query string, args ...interface{}) (int64, error)
	// CleanTestData deletes the records of container matching where.
	CleanTestData(ctx context.Context, container, where string) (int64, error)
	Close() error
}

// DatabaseError wraps a backend failure with the operation that caused it.
type DatabaseError struct {
	Backend string
	Op      string
	Err     error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// New opens the backend named by cfg.Use. An empty selection yields ErrDisabled.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Database, error) {
	switch cfg.Use {
	case "":
		return nil, ErrDisabled
	case config.DBPostgres:
		return OpenPostgres(ctx, cfg.Postgres, logger)
	case config.DBMySQL:
		return OpenMySQL(ctx, cfg.MySQL, logger)
	case config.DBSQLite:
		return OpenSQLite(ctx, cfg.SQLite, logger)
	case config.DBCosmos:
		return OpenCosmos(ctx, cfg.Cosmos, logger)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Use)
	}
}
