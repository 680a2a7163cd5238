package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

// TicketExpirer expires waiting queue tickets issued before a cutoff.
type TicketExpirer interface {
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpireTickets returns a task that expires every waiting ticket issued
// before the start of the current day in loc.
func ExpireTickets(svc TicketExpirer, now func() time.Time, loc *time.Location, log *slog.Logger) Task {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return func(ctx context.Context, t tenant.Tenant) error {
		local := now().In(loc)
		cutoff := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		n, err := svc.ExpireBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 && log != nil {
			log.InfoContext(ctx, "expired queue tickets",
				slog.String("tenant_slug", t.Slug), slog.Int64("expired", n))
		}
		return nil
	}
}
