package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/pg"
)

func pgErr(code string) error {
	return fmt.Errorf("query: %w", &pgconn.PgError{Code: code})
}

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("wrap: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.True(t, pg.IsTxClosedError(pgx.ErrTxClosed))

	assert.True(t, pg.IsDuplicateKeyError(pgErr("23505")))
	assert.False(t, pg.IsDuplicateKeyError(pgErr("23503")))
	assert.True(t, pg.IsForeignKeyViolationError(pgErr("23503")))
	assert.True(t, pg.IsRowSecurityViolation(pgErr("42501")))

	for _, code := range []string{"40001", "40P01", "55P03"} {
		assert.True(t, pg.IsRetryableError(pgErr(code)), code)
	}
	assert.False(t, pg.IsRetryableError(pgErr("23505")))
	assert.False(t, pg.IsRetryableError(errors.New("plain")))
}

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	require.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

func TestConnect_InvalidConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	require.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestMigrate_NilFS(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(context.Background(), nil, nil, pg.Config{}, nil)
	require.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
	require.ErrorIs(t, err, pg.ErrMigrationsNotProvided)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ok := pg.Healthcheck(pingerFunc(func(context.Context) error { return nil }))
	require.NoError(t, ok(context.Background()))

	down := errors.New("connection refused")
	failing := pg.Healthcheck(pingerFunc(func(context.Context) error { return down }))
	err := failing(context.Background())
	require.ErrorIs(t, err, pg.ErrHealthcheckFailed)
	require.ErrorIs(t, err, down)
}
