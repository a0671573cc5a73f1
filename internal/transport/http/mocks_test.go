package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/middleware"
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Rows(ctx context.Context) ([]services.MunicipalRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]services.MunicipalRow)
	return rows, args.Error(1)
}

func (m *MockDashboardService) Municipalities(ctx context.Context) (*services.MunicipalityList, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).(*services.MunicipalityList)
	return list, args.Error(1)
}

func (m *MockDashboardService) InterventionBreakdown(ctx context.Context, municipality string) (*services.Breakdown, error) {
	args := m.Called(ctx, municipality)
	b, _ := args.Get(0).(*services.Breakdown)
	return b, args.Error(1)
}

func (m *MockDashboardService) Comparison(ctx context.Context, metric string) (*services.Comparison, error) {
	args := m.Called(ctx, metric)
	c, _ := args.Get(0).(*services.Comparison)
	return c, args.Error(1)
}

func (m *MockDashboardService) CaseSummary(ctx context.Context) (*services.CaseSummary, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).(*services.CaseSummary)
	return cs, args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context) (*services.Summary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*services.Summary)
	return s, args.Error(1)
}

func (m *MockDashboardService) WriteGeoJSON(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockDashboardService) MapInfo(ctx context.Context) (*services.MapInfo, error) {
	args := m.Called(ctx)
	info, _ := args.Get(0).(*services.MapInfo)
	return info, args.Error(1)
}

func (m *MockDashboardService) Status(ctx context.Context) (*services.Status, error) {
	args := m.Called(ctx)
	st, _ := args.Get(0).(*services.Status)
	return st, args.Error(1)
}

func (m *MockDashboardService) Reload(ctx context.Context) (*services.Status, error) {
	args := m.Called(ctx)
	st, _ := args.Get(0).(*services.Status)
	return st, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDeps() (*slog.Logger, *apierrors.ErrorHandler, *middleware.Validator) {
	logger := testLogger()
	return logger, apierrors.NewErrorHandler(logger, false), middleware.NewValidator(logger)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func testRows() []services.MunicipalRow {
	var monteria, cerete domain.Counters
	monteria.Set(domain.ColLodgings, 3)
	monteria.Set(domain.ColTILD, 5)
	monteria.Set(domain.ColDengue, 6)
	monteria.Recompute()
	cerete.Set(domain.ColFumigation, 2)
	cerete.Set(domain.ColPopDwelling, 20)
	cerete.Recompute()

	return []services.MunicipalRow{
		{Key: "23001", AreaCode: "23001", Name: "MONTERÍA", Counters: monteria, Matched: true, HasGeometry: true},
		{Key: "23162", AreaCode: "23162", Name: "CERETÉ", Counters: cerete, Matched: true, HasGeometry: true},
	}
}

func testBreakdown() *services.Breakdown {
	return &services.Breakdown{
		Municipality: "MONTERÍA",
		Slices: []services.Slice{
			{Key: "int_tild", Label: "TILD", Value: 5, Share: 0.625},
			{Key: "int_aloj", Label: "Alojamientos", Value: 3, Share: 0.375},
		},
		Total: 8,
	}
}

func testComparison() *services.Comparison {
	_, opt, _ := services.LookupMetric("int_tot")
	return &services.Comparison{
		Metric: opt,
		Rows: []services.ComparisonRow{
			{Key: "23001", AreaCode: "23001", Name: "MONTERÍA", Value: 8},
			{Key: "23162", AreaCode: "23162", Name: "CERETÉ", Value: 2},
		},
		Total: 10,
		Max:   8,
	}
}

func testCases() *services.CaseSummary {
	return &services.CaseSummary{
		Dengue: 6,
		Total:  6,
		Rows:   []services.CaseRow{{Name: "MONTERÍA", AreaCode: "23001", Dengue: 6, Total: 6}},
	}
}
