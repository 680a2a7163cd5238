// Package logger builds *slog.Logger instances with functional options and a
// handler decorator that injects request-scoped attributes from context.
//
// Every log record written with a context passes through the registered
// ContextExtractor callbacks, so the request id and the resolved tenant are
// attached without call sites having to repeat them:
//
//	log := logger.New(
//		logger.WithConfig(cfg.Log),
//		logger.WithService("clinic-api"),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			tenant.LoggerExtractor(),
//		),
//	)
//	log.InfoContext(ctx, "ticket issued", logger.Duration(time.Since(start)))
//
// Helper constructors such as Error return an empty Attr for nil input, so
// log.Info("done", logger.Error(err)) needs no nil check.
package logger
