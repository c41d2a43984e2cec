package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/store"
)

// CleanupEntry is one container/where pair registered by a test.
type CleanupEntry struct {
	Container string
	Where     string
}

// Registry collects cleanup entries in registration order.
type Registry struct {
	mu      sync.Mutex
	entries []CleanupEntry
}

// Add registers a delete of the records in container matching where.
func (r *Registry) Add(container, where string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, CleanupEntry{Container: container, Where: where})
}

// Drain returns the entries and empties the registry.
func (r *Registry) Drain() []CleanupEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}

// Len returns the number of pending entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Cleaner applies entries to a database. Failures are logged, never returned.
type Cleaner struct {
	db     store.Database
	logger *zap.Logger
}

// NewCleaner returns a cleaner; a nil db only logs the entries.
func NewCleaner(db store.Database, logger *zap.Logger) *Cleaner {
	return &Cleaner{db: db, logger: logger.Named("cleanup")}
}

// Clean runs every entry and returns the total number of deleted records.
func (c *Cleaner) Clean(ctx context.Context, entries []CleanupEntry) int64 {
	var total int64
	for _, e := range entries {
		fields := []zap.Field{zap.String("container", e.Container), zap.String("where", e.Where)}
		if e.Container == "" || e.Where == "" {
			c.logger.Warn("Cleanup entry is missing its container or where clause.", fields...)
			continue
		}
		if c.db == nil {
			c.logger.Info("Database cleanup disabled, dropping entry.", fields...)
			continue
		}
		n, err := c.db.CleanTestData(ctx, e.Container, e.Where)
		if err != nil {
			c.logger.Error("Database cleanup failed.", append(fields, zap.Error(err))...)
			continue
		}
		if n == 0 {
			c.logger.Info("No matching test data found.", fields...)
		}
		total += n
	}
	return total
}
