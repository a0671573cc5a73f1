// Package http implements the HTTP handlers of the ETV dashboard. Handlers
// stay thin: they parse and validate query parameters, call the dashboard
// service and format the response.
//
// # Routes
//
//	GET  /                              dashboard page with selectors
//	GET  /charts/                       every chart on one page
//	GET  /charts/breakdown?municipality= intervention pie
//	GET  /charts/comparison?metric=     metric per municipality
//	GET  /charts/cases                  ETV cases per municipality
//	GET  /api/dashboard/...             JSON views, GeoJSON and exports
//	POST /api/dashboard/reload          rebuild the pipeline (API key)
//	GET  /api/health[/ready|/live]      health probes
//	GET  /metrics                       Prometheus exposition
//
// # Responses
//
// JSON views answer with a success envelope:
//
//	{"status": "success", "data": {...}, "count": 3}
//
// Failures go through the shared ErrorHandler as RFC 7807 problem details.
// A dataset that cannot be loaded answers 503 with error_code
// DATA_SOURCE_UNAVAILABLE, missing boundaries answer 503 with
// GEO_SOURCE_UNAVAILABLE on geometry routes only, and a dataset without
// area codes answers 409 JOIN_UNSUPPORTED where a join is required.
package http
