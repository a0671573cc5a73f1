package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/exporter"
	"github.com/larrynino/spatial-public-health/internal/infrastructure"
	"github.com/larrynino/spatial-public-health/internal/middleware"
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// ExportBasename names downloaded exports
const ExportBasename = "intervenciones_etv"

// DefaultMetric is compared when no metric is requested
var DefaultMetric = domain.ColTotalInterventions.Key()

// BreakdownQuery selects the municipality of the intervention breakdown
type BreakdownQuery struct {
	Municipality string `query:"municipality" validate:"omitempty,municipality"`
}

// ComparisonQuery selects the compared metric
type ComparisonQuery struct {
	Metric string `query:"metric" validate:"required,metric"`
}

// DashboardHandler serves the dashboard views as JSON and the exports as files
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.Validator
	metrics      *infrastructure.DashboardMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service DashboardServiceInterface,
	validator *middleware.Validator,
	metrics *infrastructure.DashboardMetrics,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		metrics:      metrics,
		logger:       logger.With(slog.String("handler", "dashboard")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes. Guards wrap the reload endpoint only.
func (h *DashboardHandler) Routes(reloadGuards ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/summary", h.GetSummary)
		r.Get("/municipalities", h.GetMunicipalities)
		r.Get("/rows", h.GetRows)
		r.Get("/metrics", h.GetMetricOptions)
		r.Get("/breakdown", h.GetBreakdown)
		r.Get("/comparison", h.GetComparison)
		r.Get("/cases", h.GetCases)
		r.Get("/map", h.GetMap)
		r.Get("/status", h.GetStatus)
		r.With(reloadGuards...).Post("/reload", h.Reload)
	})

	r.Get("/geojson", h.GetGeoJSON)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.xlsx", h.ExportXLSX)

	return r
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errorHandler.HandleError(w, r, toAPIError(err))
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetMunicipalities handles GET /api/dashboard/municipalities
func (h *DashboardHandler) GetMunicipalities(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Municipalities(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   list,
		"count":  len(list.Names),
	})
}

// GetRows handles GET /api/dashboard/rows
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Rows(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// GetMetricOptions handles GET /api/dashboard/metrics
func (h *DashboardHandler) GetMetricOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"interventions": services.InterventionOptions(),
			"population":    services.PopulationOptions(),
			"default":       DefaultMetric,
		},
	})
}

// GetBreakdown handles GET /api/dashboard/breakdown?municipality=
func (h *DashboardHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	q := BreakdownQuery{Municipality: r.URL.Query().Get("municipality")}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	breakdown, err := h.service.InterventionBreakdown(r.Context(), q.Municipality)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   breakdown,
		"count":  len(breakdown.Slices),
	})
}

// GetComparison handles GET /api/dashboard/comparison?metric=
func (h *DashboardHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	q := ComparisonQuery{Metric: r.URL.Query().Get("metric")}
	if q.Metric == "" {
		q.Metric = DefaultMetric
	}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	comparison, err := h.service.Comparison(r.Context(), q.Metric)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   comparison,
		"count":  len(comparison.Rows),
	})
}

// GetCases handles GET /api/dashboard/cases
func (h *DashboardHandler) GetCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.CaseSummary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   cases,
		"count":  len(cases.Rows),
	})
}

// GetMap handles GET /api/dashboard/map
func (h *DashboardHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.MapInfo(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetStatus handles GET /api/dashboard/status
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Reload(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "pipeline reloaded",
		slog.String("fingerprint", status.Fingerprint),
		slog.String("client", middleware.APIClient(r.Context())),
		slog.Int("records", status.Records))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// GetGeoJSON handles GET /api/dashboard/geojson
func (h *DashboardHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.WriteGeoJSON(r.Context(), &buf); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exporter.FormatGeoJSON.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
	infrastructure.RecordExport(r.Context(), h.metrics, string(exporter.FormatGeoJSON))
}

// ExportCSV handles GET /api/dashboard/export.csv
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, exporter.FormatCSV, func(buf *bytes.Buffer, t *exporter.Table) error {
		return exporter.NewCSVWriter("").Write(buf, t, exporter.DefaultWriteOptions())
	})
}

// ExportXLSX handles GET /api/dashboard/export.xlsx
func (h *DashboardHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, exporter.FormatXLSX, func(buf *bytes.Buffer, t *exporter.Table) error {
		return exporter.WriteXLSX(buf, t)
	})
}

func (h *DashboardHandler) export(w http.ResponseWriter, r *http.Request, format exporter.Format, write func(*bytes.Buffer, *exporter.Table) error) {
	rows, err := h.service.Rows(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, exporter.NewTable(rows)); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ExportFailed(string(format), err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s%s"`, ExportBasename, format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
	infrastructure.RecordExport(r.Context(), h.metrics, string(format))
}
