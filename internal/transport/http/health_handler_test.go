package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/pipeline"
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

func newHealthRouter(source services.ResultSource) http.Handler {
	logger := testLogger()
	svc := services.NewHealthService("v1.0.0-test", "https://example.com/repo", source, logger)
	return NewHealthHandler(svc, logger).Routes()
}

func loadedResult(geoErr error) *pipeline.Result {
	res := &pipeline.Result{
		Dataset:  &domain.Dataset{Records: []domain.InterventionRecord{{AreaCode: "23001"}}},
		LoadedAt: time.Now(),
	}
	if geoErr != nil {
		res.GeoErr = geoErr
	} else {
		res.Geo = &domain.GeoJoin{Features: []domain.MunicipalFeature{{AreaCode: "23001"}}}
	}
	return res
}

func TestHealthHandler_Endpoints(t *testing.T) {
	source := new(services.MockResultSource)
	source.On("Get", mock.Anything).Return(loadedResult(nil), nil)
	router := newHealthRouter(source)

	tests := []struct {
		name   string
		target string
		check  func(t *testing.T, body map[string]interface{})
	}{
		{
			name:   "health",
			target: "/",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ok", body["status"])
				assert.Equal(t, "v1.0.0-test", body["version"])
				assert.Contains(t, body, "timestamp")
			},
		},
		{
			name:   "ready",
			target: "/ready",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, services.StatusReady, body["status"])
				assert.Contains(t, body["services"], "dataset")
				assert.Contains(t, body["services"], "boundaries")
			},
		},
		{
			name:   "live",
			target: "/live",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "alive", body["status"])
				assert.Contains(t, body, "runtime")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			tt.check(t, decodeBody(t, rec))
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		result     *pipeline.Result
		err        error
		wantStatus int
		wantState  string
	}{
		{
			name:       "boundaries missing degrade",
			result:     loadedResult(apierrors.NewGeoSourceError("cannot open boundary file", nil)),
			wantStatus: http.StatusOK,
			wantState:  services.StatusDegraded,
		},
		{
			name:       "dataset missing",
			err:        apierrors.NewDataSourceError("cannot open dataset", errors.New("no such file")),
			wantStatus: http.StatusServiceUnavailable,
			wantState:  services.StatusNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(services.MockResultSource)
			source.On("Get", mock.Anything).Return(tt.result, tt.err)

			rec := serve(newHealthRouter(source), http.MethodGet, "/ready")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantState, decodeBody(t, rec)["status"])
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	logger := testLogger()
	svc := services.NewHealthServiceWithBuildInfo("v1.0.0-test", "https://example.com/repo", "2026-01-01", "abc123", nil, logger)
	h := NewHealthHandler(svc, logger)

	time.Sleep(10 * time.Millisecond)
	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	body := decodeBody(t, rec)
	assert.Equal(t, "v1.0.0-test", body["version"])
	assert.Equal(t, "abc123", body["build_id"])
	assert.Contains(t, body, "go_version")
	uptime, ok := body["uptime"].(float64)
	require.True(t, ok)
	assert.Greater(t, uptime, 0.0)
}

func TestMetricsHandler(t *testing.T) {
	exposition := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("http_requests_total 3\n"))
	})

	rec := serve(NewMetricsHandler(exposition).Routes(), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total 3")

	rec = serve(NewMetricsHandler(nil).Routes(), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
