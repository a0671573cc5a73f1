// Package services implements the presentation logic between the HTTP
// handlers and the pipeline cache.
//
// DashboardService reads the memoized pipeline result and derives the
// dashboard views from it: the municipality selector, the intervention
// breakdown, metric comparisons, ETV case totals and map metadata. It
// never reads input files itself.
//
// The municipal view is built from the joined boundaries when they are
// available, so every polygon appears with zero-filled counters. When the
// boundary file is missing or the dataset carries no area codes, the view
// falls back to the dataset aggregates and the map views return the geo
// error instead.
//
// HealthService reports readiness from the same cache: the dataset must load,
// and missing boundaries degrade the status without failing it.
package services
