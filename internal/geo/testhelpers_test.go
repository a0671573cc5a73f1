package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"golang.org/x/text/encoding/charmap"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// squareCW is a closed clockwise ring with its lower-left corner at (x, y)
func squareCW(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

func reversed(ring []shp.Point) []shp.Point {
	out := make([]shp.Point, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}

type shapeRecord struct {
	parts [][]shp.Point
	attrs []string
}

// writeShapefile writes a polygon shapefile with string fields into dir
func writeShapefile(t *testing.T, dir string, fields []string, records ...shapeRecord) string {
	t.Helper()

	path := filepath.Join(dir, "mun.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	shpFields := make([]shp.Field, len(fields))
	for i, f := range fields {
		shpFields[i] = shp.StringField(f, 40)
	}
	require.NoError(t, w.SetFields(shpFields))

	for _, rec := range records {
		poly := shp.Polygon(*shp.NewPolyLine(rec.parts))
		row := int(w.Write(&poly))
		for j, v := range rec.attrs {
			require.NoError(t, w.WriteAttribute(row, j, v))
		}
	}
	w.Close()
	return path
}

func writeSidecar(t *testing.T, shpPath, ext, content string) {
	t.Helper()
	base := shpPath[:len(shpPath)-len(filepath.Ext(shpPath))]
	require.NoError(t, os.WriteFile(base+ext, []byte(content), 0o644))
}

func latin1(t *testing.T, s string) string {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return out
}

// squareFeature builds an in-memory boundary in lon/lat
func squareFeature(code, name string, lon, lat, size float64) BoundaryFeature {
	ring := []float64{lon, lat, lon + size, lat, lon + size, lat + size, lon, lat + size, lon, lat}
	return BoundaryFeature{
		Attributes: []domain.Attribute{
			{Name: "MPIO_CDPMP", Value: code},
			{Name: "MPIO_CNMBR", Value: name},
		},
		Geometry: geom.NewMultiPolygonFlat(geom.XY, ring, [][]int{{len(ring)}}),
	}
}

const prjMagnaBogota = `PROJCS["MAGNA_Colombia_Bogota",GEOGCS["GCS_MAGNA",DATUM["D_MAGNA",SPHEROID["GRS_1980",6378137.0,298.257222101]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",1000000.0],PARAMETER["False_Northing",1000000.0],PARAMETER["Central_Meridian",-74.07750791666666],PARAMETER["Scale_Factor",1.0],PARAMETER["Latitude_Of_Origin",4.596200416666666],UNIT["Meter",1.0]]`

const prjWGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`
