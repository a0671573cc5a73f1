package http

import (
	"context"
	"io"

	"github.com/larrynino/spatial-public-health/internal/services"
)

// DashboardServiceInterface defines the dashboard views served over HTTP
type DashboardServiceInterface interface {
	Rows(ctx context.Context) ([]services.MunicipalRow, error)
	Municipalities(ctx context.Context) (*services.MunicipalityList, error)
	InterventionBreakdown(ctx context.Context, municipality string) (*services.Breakdown, error)
	Comparison(ctx context.Context, metric string) (*services.Comparison, error)
	CaseSummary(ctx context.Context) (*services.CaseSummary, error)
	Summary(ctx context.Context) (*services.Summary, error)
	WriteGeoJSON(ctx context.Context, w io.Writer) error
	MapInfo(ctx context.Context) (*services.MapInfo, error)
	Status(ctx context.Context) (*services.Status, error)
	Reload(ctx context.Context) (*services.Status, error)
}
