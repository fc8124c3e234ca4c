// Package middlewares provides net/http middlewares for request IDs,
// panic recovery, access logging and request deadlines. They compose with
// any router accepting func(http.Handler) http.Handler, chi included:
//
//	r := chi.NewRouter()
//	r.Use(
//	    middlewares.RequestID(),
//	    middlewares.AccessLog(log),
//	    middlewares.Recover(log),
//	    middlewares.Timeout(10*time.Second),
//	)
//
// Build the logger with middlewares.RequestIDExtractor() so every record
// logged with the request context carries the request ID.
package middlewares
