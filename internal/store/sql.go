package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/uiprobe/internal/config"
)

// SQL runs cleanup statements through database/sql. It backs MySQL and SQLite.
type SQL struct {
	db      *sql.DB
	backend string
	log     *zap.Logger
}

// MySQLDSN renders the driver connection string.
func MySQLDSN(cfg config.MySQLConfig) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dsn.DBName = cfg.DBName
	dsn.ParseTime = true
	dsn.Timeout = 10 * time.Second
	return dsn.FormatDSN()
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(ctx context.Context, cfg config.MySQLConfig, logger *zap.Logger) (*SQL, error) {
	db, err := sql.Open("mysql", MySQLDSN(cfg))
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBMySQL, Op: "connect", Err: err}
	}
	return NewSQL(ctx, db, config.DBMySQL, logger)
}

// OpenSQLite opens the database file, creating it when absent.
func OpenSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQL, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBSQLite, Op: "connect", Err: err}
	}
	return NewSQL(ctx, db, config.DBSQLite, logger)
}

// NewSQL wraps an open handle. The handle is closed when the ping fails.
func NewSQL(ctx context.Context, db *sql.DB, backend string, logger *zap.Logger) (*SQL, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &DatabaseError{Backend: backend, Op: "ping", Err: fmt.Errorf("failed to ping database: %w", err)}
	}
	return &SQL{
		db:      db,
		backend: backend,
		log:     logger.Named("store").With(zap.String("backend", backend)),
	}, nil
}

func (s *SQL) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &DatabaseError{Backend: s.backend, Op: "query", Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &DatabaseError{Backend: s.backend, Op: "query", Err: err}
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &DatabaseError{Backend: s.backend, Op: "scan", Err: err}
		}
		record := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// MySQL returns text columns as raw bytes.
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Backend: s.backend, Op: "query", Err: fmt.Errorf("error during row iteration: %w", err)}
	}
	return out, nil
}

func (s *SQL) ExecuteNonQuery(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &DatabaseError{Backend: s.backend, Op: "exec", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &DatabaseError{Backend: s.backend, Op: "exec", Err: err}
	}
	return n, nil
}

func (s *SQL) CleanTestData(ctx context.Context, container, where string) (int64, error) {
	if err := validateIdentifier(container); err != nil {
		return 0, &DatabaseError{Backend: s.backend, Op: "cleanup", Err: err}
	}
	n, err := s.ExecuteNonQuery(ctx, deleteStatement(container, where))
	if err != nil {
		return 0, err
	}
	s.log.Info("Cleaned test data", zap.String("container", container), zap.String("where", where), zap.Int64("deleted", n))
	return n, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
