package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xkilldash9x/uiprobe/internal/results"
)

// Record is the retry bookkeeping of one test.
type Record struct {
	Retries int               `json:"retries"`
	Status  []results.Outcome `json:"status"`
}

// Last returns the most recent outcome, or "" before the first attempt.
func (r Record) Last() results.Outcome {
	if len(r.Status) == 0 {
		return ""
	}
	return r.Status[len(r.Status)-1]
}

// Ledger keeps the outcome history of every test of a run.
type Ledger interface {
	Append(ctx context.Context, testID string, o results.Outcome) error
	IncrementRetries(ctx context.Context, testID string) (int, error)
	Get(ctx context.Context, testID string) (Record, error)
	Close() error
}

// MemoryLedger is a process local ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]*Record)}
}

func (l *MemoryLedger) record(id string) *Record {
	r, ok := l.records[id]
	if !ok {
		r = &Record{}
		l.records[id] = r
	}
	return r
}

func (l *MemoryLedger) Append(_ context.Context, testID string, o results.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.record(testID)
	r.Status = append(r.Status, o)
	return nil
}

func (l *MemoryLedger) IncrementRetries(_ context.Context, testID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.record(testID)
	r.Retries++
	return r.Retries, nil
}

func (l *MemoryLedger) Get(_ context.Context, testID string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[testID]
	if !ok {
		return Record{}, nil
	}
	return Record{Retries: r.Retries, Status: append([]results.Outcome(nil), r.Status...)}, nil
}

func (l *MemoryLedger) Close() error { return nil }

// RedisLedger shares history between runner processes of one run id. It is
// never cleared; the run id namespaces the keys and the TTL expires them.
// Keys: <prefix>:<run>:tests (set), <prefix>:<run>:<test>:status (list),
// <prefix>:<run>:<test>:retries (counter).
type RedisLedger struct {
	client redis.UniversalClient
	base   string
	ttl    time.Duration
}

// DialRedisLedger connects and verifies the server.
func DialRedisLedger(ctx context.Context, addr, password string, db int, prefix, runID string, ttl time.Duration) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewRedisLedger(client, prefix, runID, ttl), nil
}

// NewRedisLedger wraps an existing client.
func NewRedisLedger(client redis.UniversalClient, prefix, runID string, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, base: prefix + ":" + runID, ttl: ttl}
}

func (l *RedisLedger) indexKey() string            { return l.base + ":tests" }
func (l *RedisLedger) statusKey(id string) string  { return l.base + ":" + id + ":status" }
func (l *RedisLedger) retriesKey(id string) string { return l.base + ":" + id + ":retries" }

func (l *RedisLedger) touch(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if l.ttl <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(ctx, k, l.ttl)
	}
}

func (l *RedisLedger) Append(ctx context.Context, testID string, o results.Outcome) error {
	pipe := l.client.TxPipeline()
	pipe.SAdd(ctx, l.indexKey(), testID)
	pipe.RPush(ctx, l.statusKey(testID), string(o))
	l.touch(ctx, pipe, l.indexKey(), l.statusKey(testID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append outcome for %s: %w", testID, err)
	}
	return nil
}

func (l *RedisLedger) IncrementRetries(ctx context.Context, testID string) (int, error) {
	pipe := l.client.TxPipeline()
	pipe.SAdd(ctx, l.indexKey(), testID)
	incr := pipe.Incr(ctx, l.retriesKey(testID))
	l.touch(ctx, pipe, l.indexKey(), l.retriesKey(testID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment retries for %s: %w", testID, err)
	}
	return int(incr.Val()), nil
}

func (l *RedisLedger) Get(ctx context.Context, testID string) (Record, error) {
	status, err := l.client.LRange(ctx, l.statusKey(testID), 0, -1).Result()
	if err != nil {
		return Record{}, fmt.Errorf("failed to read history of %s: %w", testID, err)
	}
	var rec Record
	for _, s := range status {
		rec.Status = append(rec.Status, results.Outcome(s))
	}

	raw, err := l.client.Get(ctx, l.retriesKey(testID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return Record{}, fmt.Errorf("failed to read retries of %s: %w", testID, err)
	default:
		if rec.Retries, err = strconv.Atoi(raw); err != nil {
			return Record{}, fmt.Errorf("corrupt retry counter for %s: %w", testID, err)
		}
	}
	return rec, nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
