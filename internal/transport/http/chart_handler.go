package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-echarts/go-echarts/v2/components"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/charts"
	"github.com/larrynino/spatial-public-health/internal/infrastructure"
	"github.com/larrynino/spatial-public-health/internal/middleware"
)

// ChartHandler renders dashboard views as go-echarts HTML
type ChartHandler struct {
	service      DashboardServiceInterface
	renderer     *charts.Renderer
	validator    *middleware.Validator
	metrics      *infrastructure.DashboardMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a new chart handler
func NewChartHandler(
	service DashboardServiceInterface,
	renderer *charts.Renderer,
	validator *middleware.Validator,
	metrics *infrastructure.DashboardMetrics,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *ChartHandler {
	return &ChartHandler{
		service:      service,
		renderer:     renderer,
		validator:    validator,
		metrics:      metrics,
		logger:       logger.With(slog.String("handler", "charts")),
		errorHandler: errorHandler,
	}
}

// Routes sets up the chart routes
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetDashboard)
	r.Get("/breakdown", h.GetBreakdown)
	r.Get("/comparison", h.GetComparison)
	r.Get("/cases", h.GetCases)
	return r
}

func (h *ChartHandler) breakdownChart(r *http.Request) (charts.Chart, error) {
	q := BreakdownQuery{Municipality: r.URL.Query().Get("municipality")}
	if err := h.validator.Struct(q); err != nil {
		return nil, err
	}
	b, err := h.service.InterventionBreakdown(r.Context(), q.Municipality)
	if err != nil {
		return nil, toAPIError(err)
	}
	return h.renderer.Breakdown(b), nil
}

func (h *ChartHandler) comparisonChart(r *http.Request) (charts.Chart, error) {
	q := ComparisonQuery{Metric: r.URL.Query().Get("metric")}
	if q.Metric == "" {
		q.Metric = DefaultMetric
	}
	if err := h.validator.Struct(q); err != nil {
		return nil, err
	}
	c, err := h.service.Comparison(r.Context(), q.Metric)
	if err != nil {
		return nil, toAPIError(err)
	}
	return h.renderer.Comparison(c), nil
}

func (h *ChartHandler) casesChart(r *http.Request) (charts.Chart, error) {
	cs, err := h.service.CaseSummary(r.Context())
	if err != nil {
		return nil, toAPIError(err)
	}
	return h.renderer.Cases(cs), nil
}

// GetBreakdown handles GET /charts/breakdown?municipality=
func (h *ChartHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	c, err := h.breakdownChart(r)
	h.write(w, r, "breakdown", c, err)
}

// GetComparison handles GET /charts/comparison?metric=
func (h *ChartHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	c, err := h.comparisonChart(r)
	h.write(w, r, "comparison", c, err)
}

// GetCases handles GET /charts/cases
func (h *ChartHandler) GetCases(w http.ResponseWriter, r *http.Request) {
	c, err := h.casesChart(r)
	h.write(w, r, "cases", c, err)
}

// GetDashboard handles GET /charts/ and renders every chart on one page
func (h *ChartHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	builders := []func(*http.Request) (charts.Chart, error){
		h.breakdownChart,
		h.comparisonChart,
		h.casesChart,
	}
	charters := make([]components.Charter, 0, len(builders))
	for _, build := range builders {
		c, err := build(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		charters = append(charters, c)
	}
	h.write(w, r, "dashboard", h.renderer.Page(charters...), nil)
}

func (h *ChartHandler) write(w http.ResponseWriter, r *http.Request, name string, c charts.Renderable, err error) {
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, c); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
	infrastructure.RecordChartRender(r.Context(), h.metrics, name)
}
