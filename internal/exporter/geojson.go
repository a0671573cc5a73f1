package exporter

import (
	"io"

	"github.com/larrynino/spatial-public-health/internal/geo"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// WriteGeoJSONFile writes the joined boundaries under dir and returns the
// full path
func WriteGeoJSONFile(dir, filePath string, join *domain.GeoJoin) (string, error) {
	fullPath := resolvePath(dir, filePath)
	return fullPath, writeFile(fullPath, func(w io.Writer) error {
		return geo.WriteGeoJSON(w, join)
	})
}
