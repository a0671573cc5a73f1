package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/charts"
	"github.com/larrynino/spatial-public-health/internal/middleware"
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"count": func(c domain.Counters, key string) string {
		col, ok := domain.ParseColumn(key)
		if !ok {
			return "0"
		}
		return strconv.FormatFloat(c.Get(col), 'f', -1, 64)
	},
}).Parse(indexHTML))

// IndexPage is the data behind the dashboard page
type IndexPage struct {
	Title          string
	Summary        *services.Summary
	Municipalities *services.MunicipalityList
	Interventions  []services.MetricOption
	Population     []services.MetricOption
	Municipality   string
	Metric         string
	GeoError       string
}

// IndexHandler serves the dashboard page with its selectors and embedded charts
type IndexHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(service DashboardServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *IndexHandler {
	return &IndexHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "index")),
		errorHandler: errorHandler,
	}
}

// ServeIndex handles GET /
func (h *IndexHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	page := IndexPage{
		Title:         charts.TitleDashboard,
		Interventions: services.InterventionOptions(),
		Population:    services.PopulationOptions(),
		Municipality:  query.Get("municipality"),
		Metric:        query.Get("metric"),
	}
	if page.Metric == "" {
		page.Metric = DefaultMetric
	}

	if err := h.validator.Struct(BreakdownQuery{Municipality: page.Municipality}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.Struct(ComparisonQuery{Metric: page.Metric}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var err error
	if page.Summary, err = h.service.Summary(ctx); err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	if page.Municipalities, err = h.service.Municipalities(ctx); err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	if page.Municipality == "" {
		page.Municipality = page.Municipalities.All
	}

	if !page.Summary.GeoAvailable {
		if status, err := h.service.Status(ctx); err == nil {
			page.GeoError = status.GeoError
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		h.logger.ErrorContext(ctx, "index render failed", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

const indexHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: #f5f7fa; color: #1f2933; }
header { background: #08306b; color: #fff; padding: 16px 32px; }
main { padding: 16px 32px; }
.tiles { display: flex; flex-wrap: wrap; gap: 12px; margin-bottom: 16px; }
.tile { background: #fff; border-radius: 6px; padding: 12px 16px; min-width: 160px; box-shadow: 0 1px 2px rgba(0,0,0,.1); }
.tile strong { display: block; font-size: 1.4em; }
.warning { background: #fff3cd; color: #856404; padding: 10px; border-radius: 4px; margin-bottom: 16px; }
form { display: flex; flex-wrap: wrap; gap: 16px; align-items: end; margin-bottom: 16px; }
iframe { width: 100%; border: 0; background: #fff; margin-bottom: 16px; }
.downloads a { margin-right: 16px; }
</style>
</head>
<body>
<header><h1>{{.Title}}</h1></header>
<main>
{{with .Summary}}
<section class="tiles">
  <div class="tile">Registros<strong>{{.Records}}</strong></div>
  <div class="tile">Municipios<strong>{{.Municipalities}}</strong></div>
  <div class="tile">Intervenciones<strong>{{count .Totals "int_tot"}}</strong></div>
  <div class="tile">Población total<strong>{{count .Totals "pob_tot"}}</strong></div>
  <div class="tile">Dengue<strong>{{count .Totals "cas_den"}}</strong></div>
  <div class="tile">Leishmaniasis<strong>{{count .Totals "cas_lei"}}</strong></div>
  <div class="tile">Malaria<strong>{{count .Totals "cas_mal"}}</strong></div>
</section>
{{end}}
{{if not .Summary.GeoAvailable}}
<div class="warning">Límites municipales no disponibles{{if .GeoError}}: {{.GeoError}}{{end}}</div>
{{end}}
<form method="get" action="/">
  <label>Municipio
    <select name="municipality">
      <option value="{{.Municipalities.All}}"{{if eq $.Municipality .Municipalities.All}} selected{{end}}>{{.Municipalities.All}}</option>
      {{range .Municipalities.Names}}<option value="{{.}}"{{if eq $.Municipality .}} selected{{end}}>{{.}}</option>
      {{end}}
    </select>
  </label>
  <label>Métrica
    <select name="metric">
      <optgroup label="Intervenciones">
      {{range .Interventions}}<option value="{{.Key}}"{{if eq $.Metric .Key}} selected{{end}}>{{.Label}}</option>
      {{end}}
      </optgroup>
      <optgroup label="Población">
      {{range .Population}}<option value="{{.Key}}"{{if eq $.Metric .Key}} selected{{end}}>{{.Label}}</option>
      {{end}}
      </optgroup>
    </select>
  </label>
  <button type="submit">Actualizar</button>
</form>
<iframe title="breakdown" height="560" src="/charts/breakdown?municipality={{.Municipality}}"></iframe>
<iframe title="comparison" height="900" src="/charts/comparison?metric={{.Metric}}"></iframe>
<iframe title="cases" height="700" src="/charts/cases"></iframe>
<p class="downloads">
  <a href="/api/dashboard/export.csv">CSV</a>
  <a href="/api/dashboard/export.xlsx">Excel</a>
  {{if .Summary.GeoAvailable}}<a href="/api/dashboard/geojson">GeoJSON</a>{{end}}
</p>
</main>
</body>
</html>
`
