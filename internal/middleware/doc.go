// Package middleware holds the HTTP middleware of the dashboard server:
// request IDs, structured request logging, panic recovery, request
// timeouts, CORS, per-client rate limiting, security headers, API key
// checks for the reload endpoint, OpenTelemetry instrumentation and
// query parameter validation.
//
// Middleware order in the router:
//
//	RequestID -> OTel -> StructuredLogger -> Recoverer -> SecureHeaders ->
//	CORS -> RateLimiter -> Timeout
//
// Errors are written as RFC 7807 problem details through
// internal/errors.ErrorHandler, so every response carries the request ID.
package middleware
