package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/larrynino/spatial-public-health/internal/infrastructure"
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// Exporter writes one file per requested format under a directory
type Exporter struct {
	dir     string
	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics
}

// NewExporter creates an exporter. metrics may be nil.
func NewExporter(dir string, logger *slog.Logger, metrics *infrastructure.DashboardMetrics) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		dir:     dir,
		logger:  logger.With(slog.String("component", "exporter")),
		metrics: metrics,
	}
}

// Export writes basename.<ext> for every format and returns the paths.
// GeoJSON needs a join; without one it fails with ErrNoGeometry.
func (e *Exporter) Export(ctx context.Context, basename string, formats []Format, rows []services.MunicipalRow, join *domain.GeoJoin) ([]string, error) {
	table := NewTable(rows)
	paths := make([]string, 0, len(formats))

	for _, f := range formats {
		name := basename + f.Extension()

		var path string
		var err error
		switch f {
		case FormatCSV:
			path, err = NewCSVWriter(e.dir).WriteFile(name, table)
		case FormatXLSX:
			path, err = WriteXLSXFile(e.dir, name, table)
		case FormatGeoJSON:
			if join == nil {
				err = services.ErrNoGeometry
				break
			}
			path, err = WriteGeoJSONFile(e.dir, name, join)
		default:
			err = fmt.Errorf("unknown export format %q", f)
		}
		if err != nil {
			e.logger.ErrorContext(ctx, "export failed",
				slog.String("format", string(f)),
				slog.String("error", err.Error()))
			return paths, fmt.Errorf("export %s: %w", f, err)
		}

		infrastructure.RecordExport(ctx, e.metrics, string(f))
		e.logger.InfoContext(ctx, "export written",
			slog.String("format", string(f)),
			slog.String("path", path),
			slog.Int("rows", len(rows)))
		paths = append(paths, path)
	}
	return paths, nil
}
