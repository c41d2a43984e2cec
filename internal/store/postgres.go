package store

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/config"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Close()
}

// Postgres runs cleanup statements against PostgreSQL.
type Postgres struct {
	pool DBPool
	log  *zap.Logger
}

// PostgresURL builds a connection string from the configured parts.
func PostgresURL(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.DBName,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// OpenPostgres dials a pool and verifies the connection.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, PostgresURL(cfg))
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBPostgres, Op: "connect", Err: err}
	}
	store, err := NewPostgres(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgres wraps an existing pool and verifies the connection.
func NewPostgres(ctx context.Context, pool DBPool, logger *zap.Logger) (*Postgres, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, &DatabaseError{Backend: config.DBPostgres, Op: "ping", Err: fmt.Errorf("failed to ping database: %w", err)}
	}
	return &Postgres{
		pool: pool,
		log:  logger.Named("store").With(zap.String("backend", config.DBPostgres)),
	}, nil
}

func (s *Postgres) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBPostgres, Op: "query", Err: err}
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &DatabaseError{Backend: config.DBPostgres, Op: "scan", Err: err}
		}
		fields := rows.FieldDescriptions()
		record := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			if i < len(values) {
				record[fd.Name] = values[i]
			}
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Backend: config.DBPostgres, Op: "query", Err: fmt.Errorf("error during row iteration: %w", err)}
	}
	return out, nil
}

func (s *Postgres) ExecuteNonQuery(ctx context.Context, query string, args ...interface{}) (int64, error) {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, &DatabaseError{Backend: config.DBPostgres, Op: "exec", Err: err}
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) CleanTestData(ctx context.Context, container, where string) (int64, error) {
	if err := validateIdentifier(container); err != nil {
		return 0, &DatabaseError{Backend: config.DBPostgres, Op: "cleanup", Err: err}
	}
	n, err := s.ExecuteNonQuery(ctx, deleteStatement(container, where))
	if err != nil {
		return 0, err
	}
	s.log.Info("Cleaned test data", zap.String("container", container), zap.String("where", where), zap.Int64("deleted", n))
	return n, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func deleteStatement(table, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s", table, where)
}
