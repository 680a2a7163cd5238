// Package queue issues and lists same-day queue tickets per branch.
// Tenant scoping comes from the row-level security policy on
// queue_tickets, so queries never filter by tenant themselves.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/clinickit/pkg/dbctx"
	"github.com/dmitrymomot/clinickit/pkg/sequence"
)

// Ticket statuses.
const (
	StatusWaiting = "waiting"
	StatusServed  = "served"
	StatusExpired = "expired"
)

var (
	// ErrNotScoped is returned when a call runs without a tenant transaction.
	ErrNotScoped = errors.New("queue: no tenant transaction in context")
	ErrIssue     = errors.New("queue: failed to issue ticket")
	ErrList      = errors.New("queue: failed to list tickets")
	ErrExpire    = errors.New("queue: failed to expire tickets")
)

// Ticket is one issued queue number.
type Ticket struct {
	ID       uuid.UUID `json:"id" db:"id"`
	BranchID uuid.UUID `json:"branch_id" db:"branch_id"`
	Number   int64     `json:"number" db:"number"`
	Status   string    `json:"status" db:"status"`
	IssuedAt time.Time `json:"issued_at" db:"issued_at"`
}

// SequenceConfig describes queue_tickets to the sequence generator.
var SequenceConfig = sequence.Config{
	Namespace:       "queue_ticket",
	Table:           "queue_tickets",
	PartitionColumn: "branch_id",
	NumberColumn:    "number",
	TimeColumn:      "issued_at",
	DayColumn:       "issued_on",
}

// Service implements ticket issuing on top of the request transaction.
type Service struct {
	db  *dbctx.DB
	seq *sequence.Generator
}

func NewService(db *dbctx.DB, seq *sequence.Generator) *Service {
	return &Service{db: db, seq: seq}
}

// Issue allocates the branch's next number for today and stores the ticket.
// The advisory lock taken by the generator is scoped to the tenant and the
// branch and is held until the enclosing request transaction ends, so
// concurrent issues for one branch serialize while other branches and other
// tenants proceed. The issue instant is read once and stored as both
// issued_at and issued_on, the day the unique key and the maximum use.
func (s *Service) Issue(ctx context.Context, branchID uuid.UUID) (Ticket, error) {
	tenantID, ok := dbctx.TenantID(ctx)
	if !ok || !s.db.Scoped(ctx) {
		return Ticket{}, ErrNotScoped
	}

	at := s.seq.Now()
	day, _ := s.seq.DayOf(at)
	part := sequence.Partition{Scope: tenantID.String(), Key: branchID.String()}

	t := Ticket{BranchID: branchID, Status: StatusWaiting, IssuedAt: at}
	err := s.db.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		n, err := s.seq.NextAt(ctx, tx, part, at)
		if err != nil {
			return err
		}
		t.Number = n
		return tx.QueryRow(ctx,
			`INSERT INTO queue_tickets (branch_id, number, issued_on, issued_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			branchID, n, day, at,
		).Scan(&t.ID)
	})
	if err != nil {
		return Ticket{}, errors.Join(ErrIssue, err)
	}
	return t, nil
}

// ListToday returns today's tickets of a branch in issue order.
func (s *Service) ListToday(ctx context.Context, branchID uuid.UUID) ([]Ticket, error) {
	if !s.db.Scoped(ctx) {
		return nil, ErrNotScoped
	}
	day, _ := s.seq.Day()
	tickets, err := dbctx.Query(ctx, s.db,
		`SELECT id, branch_id, number, status, issued_at FROM queue_tickets
		  WHERE branch_id = $1 AND issued_on = $2
		  ORDER BY number`,
		pgx.RowToStructByName[Ticket],
		branchID, day,
	)
	if err != nil {
		return nil, errors.Join(ErrList, err)
	}
	return tickets, nil
}

// ExpireBefore marks waiting tickets issued before cutoff as expired and
// returns how many changed. It runs inside whatever tenant transaction ctx
// carries, which is how the nightly job scopes it.
func (s *Service) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if !s.db.Scoped(ctx) {
		return 0, ErrNotScoped
	}
	tag, err := s.db.Querier(ctx).Exec(ctx,
		`UPDATE queue_tickets SET status = $1 WHERE status = $2 AND issued_at < $3`,
		StatusExpired, StatusWaiting, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExpire, err)
	}
	return tag.RowsAffected(), nil
}
