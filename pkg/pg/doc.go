// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect builds a *pgxpool.Pool from Config and retries until the database
// answers a ping. Migrate applies goose migrations from an fs.FS (usually an
// embedded directory) through the same pool. Healthcheck adapts the pool to a
// readiness probe.
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
//
// The Is* helpers classify errors returned by pgx. IsRowSecurityViolation is
// what a write outside the current tenant looks like once row-level security
// policies are in place.
package pg
