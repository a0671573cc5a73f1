// Package charts renders the dashboard views as go-echarts HTML: the
// intervention distribution pie, the per-municipality comparison bar with
// its colour scale and the grouped ETV case bar.
package charts
