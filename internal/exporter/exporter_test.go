package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

func testJoin() *domain.GeoJoin {
	ring := []float64{-76, 8, -75, 8, -75, 9, -76, 9, -76, 8}
	return &domain.GeoJoin{
		Features: []domain.MunicipalFeature{{
			AreaCode: "23001",
			Name:     "MONTERÍA",
			Matched:  true,
			Geometry: geom.NewMultiPolygonFlat(geom.XY, ring, [][]int{{len(ring)}}),
		}},
	}
}

func TestExporter_Export(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, nil, nil)

	paths, err := e.Export(context.Background(), "etv", Formats(), testRows(), testJoin())
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for i, ext := range []string{".csv", ".xlsx", ".geojson"} {
		assert.Equal(t, filepath.Join(dir, "etv"+ext), paths[i])
		info, err := os.Stat(paths[i])
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	data, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
	assert.Contains(t, string(data), `"area_code":"23001"`)
}

func TestExporter_GeoJSONWithoutJoin(t *testing.T) {
	e := NewExporter(t.TempDir(), nil, nil)

	paths, err := e.Export(context.Background(), "etv", []Format{FormatCSV, FormatGeoJSON}, testRows(), nil)
	assert.ErrorIs(t, err, services.ErrNoGeometry)
	assert.Len(t, paths, 1, "formats before the failure are kept")
}
