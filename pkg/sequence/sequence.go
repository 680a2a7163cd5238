package sequence

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrEmptyPartitionKey = errors.New("sequence: partition key is required")
	ErrNoTransaction     = errors.New("sequence: a transaction is required")
	ErrInvalidConfig     = errors.New("sequence: table and column names are required")
)

// LockKey derives the advisory lock key for a partition: the first eight
// bytes of SHA-256 over namespace followed by the key.
func LockKey(namespace, partitionKey string) int64 {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(partitionKey))
	return int64(binary.BigEndian.Uint64(h.Sum(nil)[:8]))
}

// Config describes where issued numbers live.
//
// DayColumn, when set, names a date column holding the issue day. The
// day's maximum is then read with an equality on that column, which should
// be the column the table's unique key uses. Without it the day is bounded
// by TimeColumn.
type Config struct {
	Namespace       string // Namespace separates lock keys of unrelated sequences.
	Table           string
	PartitionColumn string
	NumberColumn    string
	TimeColumn      string
	DayColumn       string
}

// Partition names one numbering sequence. Key is matched against
// PartitionColumn. Scope only qualifies the advisory lock: callers whose
// reads are already confined by row-level security pass the tenant id so
// equal keys of different tenants never share a lock.
type Partition struct {
	Scope string
	Key   string
}

func (p Partition) lockKey(namespace string) int64 {
	if p.Scope == "" {
		return LockKey(namespace, p.Key)
	}
	return LockKey(namespace, p.Scope+"\x00"+p.Key)
}

// Generator hands out per-partition, per-day numbers. The current maximum
// is read from the table itself; a transaction-scoped advisory lock on the
// partition serializes readers of the same partition until their
// transaction ends.
type Generator struct {
	cfg      Config
	maxQuery string
	byDay    bool
	now      func() time.Time
	loc      *time.Location
	lockWait prometheus.Observer
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLocation sets the time zone whose calendar day bounds a sequence.
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithLockWaitObserver records how long Next waited for the partition lock.
func WithLockWaitObserver(o prometheus.Observer) Option {
	return func(g *Generator) { g.lockWait = o }
}

// New validates cfg and prepares the max query. Identifiers are quoted, so
// cfg may name schema-qualified tables such as "public.queue_tickets".
func New(cfg Config, opts ...Option) (*Generator, error) {
	if cfg.Table == "" || cfg.PartitionColumn == "" || cfg.NumberColumn == "" || (cfg.TimeColumn == "" && cfg.DayColumn == "") {
		return nil, ErrInvalidConfig
	}
	g := &Generator{cfg: cfg, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(g)
	}

	number := pgx.Identifier{cfg.NumberColumn}.Sanitize()
	table := identifier(cfg.Table).Sanitize()
	partition := pgx.Identifier{cfg.PartitionColumn}.Sanitize()
	if cfg.DayColumn != "" {
		g.byDay = true
		g.maxQuery = fmt.Sprintf(
			"SELECT COALESCE(MAX(%s), 0) FROM %s WHERE %s = $1 AND %s = $2",
			number, table, partition, pgx.Identifier{cfg.DayColumn}.Sanitize(),
		)
		return g, nil
	}
	ts := pgx.Identifier{cfg.TimeColumn}.Sanitize()
	g.maxQuery = fmt.Sprintf(
		"SELECT COALESCE(MAX(%s), 0) FROM %s WHERE %s = $1 AND %s >= $2 AND %s < $3",
		number, table, partition, ts, ts,
	)
	return g, nil
}

// Next is NextAt for an unscoped partition at the current time.
func (g *Generator) Next(ctx context.Context, tx pgx.Tx, partitionKey string) (int64, error) {
	return g.NextAt(ctx, tx, Partition{Key: partitionKey}, g.Now())
}

// NextAt locks the partition for the rest of tx and returns the maximum of
// the day containing at, plus one. The caller must insert the number, with
// the same day derived from at, in the same transaction. If tx aborts the
// number was never issued and the next caller computes the same value; gaps
// only appear when a caller commits without inserting.
func (g *Generator) NextAt(ctx context.Context, tx pgx.Tx, p Partition, at time.Time) (int64, error) {
	if tx == nil {
		return 0, ErrNoTransaction
	}
	if p.Key == "" {
		return 0, ErrEmptyPartitionKey
	}

	start := time.Now()
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", p.lockKey(g.cfg.Namespace)); err != nil {
		return 0, fmt.Errorf("sequence: lock partition: %w", err)
	}
	if g.lockWait != nil {
		g.lockWait.Observe(time.Since(start).Seconds())
	}

	from, to := g.DayOf(at)
	args := []any{p.Key, from, to}
	if g.byDay {
		args = args[:2]
	}
	var current int64
	if err := tx.QueryRow(ctx, g.maxQuery, args...).Scan(&current); err != nil {
		return 0, fmt.Errorf("sequence: read current maximum: %w", err)
	}
	return current + 1, nil
}

// Now returns the generator clock in its location.
func (g *Generator) Now() time.Time {
	return g.now().In(g.loc)
}

// Day returns the bounds of the current day in the generator's location.
func (g *Generator) Day() (from, to time.Time) {
	return g.DayOf(g.Now())
}

// DayOf returns the bounds of the day containing t in the generator's
// location. from is also the value stored in DayColumn.
func (g *Generator) DayOf(t time.Time) (from, to time.Time) {
	t = t.In(g.loc)
	from = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.loc)
	return from, from.AddDate(0, 0, 1)
}

func identifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}
