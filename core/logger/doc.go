// Package logger builds structured slog loggers and provides attribute helpers
// for request pipeline logging.
//
//	log := logger.New(
//		logger.WithDevelopment("site"),
//		logger.WithContextValue("tenant", tenantKey{}),
//	)
//
//	log.Info("request finished",
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//		logger.StatusCode(200),
//		logger.Duration(time.Since(start)),
//	)
//
// Development loggers write text at debug level; staging and production loggers
// write JSON at info level. Discard returns a logger for components that log only
// when the caller opts in.
package logger
