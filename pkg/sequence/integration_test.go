package sequence_test

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/sequence"
)

// testPool connects to CLINICKIT_TEST_PG_URL or skips the test.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("CLINICKIT_TEST_PG_URL")
	if url == "" {
		t.Skip("CLINICKIT_TEST_PG_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestGenerator_Postgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	table := "seq_it_" + uuid.NewString()[:8]
	_, err := pool.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE %s (branch_id text NOT NULL, number bigint NOT NULL, issued_at timestamptz NOT NULL DEFAULT now(), UNIQUE (branch_id, number))`,
		pgx.Identifier{table}.Sanitize()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE "+pgx.Identifier{table}.Sanitize())
	})

	g, err := sequence.New(sequence.Config{
		Namespace:       "it",
		Table:           table,
		PartitionColumn: "branch_id",
		NumberColumn:    "number",
		TimeColumn:      "issued_at",
	})
	require.NoError(t, err)

	insert := fmt.Sprintf("INSERT INTO %s (branch_id, number) VALUES ($1, $2)", pgx.Identifier{table}.Sanitize())

	const workers = 20
	var (
		mu  sync.Mutex
		got []int64
		wg  sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
				n, err := g.Next(ctx, tx, "branch-1")
				if err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, insert, "branch-1", n); err != nil {
					return err
				}
				mu.Lock()
				got = append(got, n)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	slices.Sort(got)
	for i, n := range got {
		assert.Equal(t, int64(i+1), n)
	}
	assert.Len(t, got, workers)
}
