package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/clinickit/internal/config"
	"github.com/dmitrymomot/clinickit/internal/db/migrations"
	"github.com/dmitrymomot/clinickit/internal/jobs"
	"github.com/dmitrymomot/clinickit/internal/queue"
	"github.com/dmitrymomot/clinickit/internal/store"
	"github.com/dmitrymomot/clinickit/pkg/dbctx"
	"github.com/dmitrymomot/clinickit/pkg/httpserver"
	"github.com/dmitrymomot/clinickit/pkg/jwt"
	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/pg"
	"github.com/dmitrymomot/clinickit/pkg/redis"
	"github.com/dmitrymomot/clinickit/pkg/requestid"
	"github.com/dmitrymomot/clinickit/pkg/sequence"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithConfig(cfg.Log),
		logger.WithService(cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, cfg.DB, log); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)}

	var cache tenant.Cache = tenant.NewMemoryCache(1024)
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = tenant.NewRedisCache(rdb, cfg.Tenant.CacheKeyPrefix, log)
		checks["redis"] = redis.Healthcheck(rdb)
	}

	shared := dbctx.New(pool)
	tenants := store.NewTenants(shared)

	var provider tenant.Provider = tenants
	if cfg.Tenant.CacheTTL > 0 {
		provider = tenant.NewCachedProvider(tenants, cache, cfg.Tenant.CacheTTL)
	}
	resolver := tenant.NewResolver(provider, cfg.Tenant.ResolverOptions()...)

	lockWait := promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
		Name:    "sequence_lock_wait_seconds",
		Help:    "Time spent waiting for the per-partition sequence lock.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	seq, err := sequence.New(queue.SequenceConfig,
		sequence.WithLocation(loc),
		sequence.WithLockWaitObserver(lockWait),
	)
	if err != nil {
		return err
	}
	tickets := queue.NewService(shared, seq)
	ticketHandler := queue.NewHandler(tickets, log)

	dbPool := dbctx.FromPgxPool(pool)
	txOpts := []dbctx.Option{
		dbctx.WithTenantSetting(cfg.DBCtx.TenantSetting),
		dbctx.WithCleanupTimeout(cfg.DBCtx.CleanupTimeout),
		dbctx.WithLogger(log),
		dbctx.WithMetrics(dbctx.NewMetrics(reg)),
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(log, 2*time.Second, checks))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(tenant.Middleware(resolver,
			tenant.WithSkipPaths(cfg.Tenant.SkipPaths...),
			tenant.WithTrustForwardedHost(cfg.Tenant.TrustForwardedHost),
			tenant.WithLogger(log),
		))
		r.Use(dbctx.Middleware(dbPool, txOpts...))
		ticketHandler.Routes(r)
	})

	if cfg.JWT.Enabled() {
		tokens, err := jwt.NewFromConfig(cfg.JWT)
		if err != nil {
			return err
		}
		r.Route("/mobile", func(r chi.Router) {
			r.Use(jwt.Middleware(tokens, jwt.WithExtractor(cfg.JWT.Extractor())))
			r.Use(dbctx.TokenMiddleware(dbPool, jwt.TenantID, txOpts...))
			ticketHandler.Routes(r)
		})
	} else {
		log.InfoContext(ctx, "mobile api disabled: JWT_SIGNING_KEY is empty")
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Jobs.Enabled {
		expire, err := jobs.NewRunner("expire_tickets", dbPool, tenants,
			jobs.DailyAt(cfg.Jobs.ExpireHour, cfg.Jobs.ExpireMinute, loc),
			jobs.ExpireTickets(tickets, time.Now, loc, log),
			jobs.WithLogger(log),
			jobs.WithTxOptions(txOpts...),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return expire.Start(gctx) })
	}

	srv := httpserver.New(cfg.HTTP, r, httpserver.WithLogger(log))
	g.Go(func() error { return srv.Run(gctx) })

	return g.Wait()
}
