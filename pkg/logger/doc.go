// Package logger builds the structured slog logger used across the module.
//
// Records go to stdout as JSON (or text). Context extractors attach
// request-scoped attributes such as the request ID to every record logged
// with a context:
//
//	log, err := logger.New(cfg, logger.WithExtractors(middlewares.RequestIDExtractor()))
//	log.InfoContext(r.Context(), "login succeeded", slog.String("identity", id))
//
// Setting SENTRY_DSN additionally forwards warnings as Sentry logs and
// errors as Sentry issues. Call [Flush] before exit.
package logger
