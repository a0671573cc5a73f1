package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEPSG(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"EPSG:3116", "3116", true},
		{"epsg:9377", "9377", true},
		{"4326", "4326", true},
		{"urn:ogc:def:crs:EPSG::3857", "3857", true},
		{"urn:ogc:def:crs:OGC:1.3:CRS84", "4326", true},
		{"MAGNA", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseEPSG(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForEPSG_Origins(t *testing.T) {
	tests := []struct {
		code   string
		x, y   float64
		lon    float64
		lat    float64
		tolDeg float64
	}{
		{"EPSG:9377", 5000000, 2000000, -73, 4, 1e-7},
		{"EPSG:3116", 1000000, 1000000, -74.07750791666666, 4.596200416666666, 1e-7},
		{"EPSG:32618", 500000, 0, -75, 0, 1e-7},
		{"EPSG:32718", 500000, 10000000, -75, 0, 1e-7},
		{"EPSG:3857", 0, 0, 0, 0, 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			p, err := ForEPSG(tt.code)
			require.NoError(t, err)
			ll, err := p.Inverse([]float64{tt.x, tt.y})
			require.NoError(t, err)
			require.Len(t, ll, 2)
			assert.InDelta(t, tt.lon, ll[0], tt.tolDeg)
			assert.InDelta(t, tt.lat, ll[1], tt.tolDeg)
		})
	}
}

func TestProjections_RoundTrip(t *testing.T) {
	// Montería and Ayapel
	points := []float64{-75.8814, 8.7479, -75.1437, 8.3125}

	for _, code := range []string{"EPSG:3116", "EPSG:3115", "EPSG:9377", "EPSG:32618", "EPSG:3857", "EPSG:4686"} {
		p, err := ForEPSG(code)
		require.NoError(t, err)
		assert.Equal(t, code, p.Name())

		xy, err := p.Forward(points)
		require.NoError(t, err)
		ll, err := p.Inverse(xy)
		require.NoError(t, err)
		require.Len(t, ll, len(points))
		for i := range points {
			assert.InDelta(t, points[i], ll[i], 1e-6, "%s [%d]", code, i)
		}
	}
}

func TestForEPSG_KnownPoints(t *testing.T) {
	t.Run("utm one degree east of the central meridian", func(t *testing.T) {
		p, err := ForEPSG("EPSG:32618")
		require.NoError(t, err)
		xy, err := p.Forward([]float64{-74, 0})
		require.NoError(t, err)
		assert.InDelta(t, 611280.65, xy[0], 0.05)
		assert.InDelta(t, 0.0, xy[1], 1e-3)
	})

	t.Run("web mercator extent", func(t *testing.T) {
		p, err := ForEPSG("EPSG:900913")
		require.NoError(t, err)
		xy, err := p.Forward([]float64{180, 0})
		require.NoError(t, err)
		assert.InDelta(t, 20037508.34, xy[0], 0.01)
	})
}

func TestForEPSG_RegistersOnce(t *testing.T) {
	a, err := ForEPSG("EPSG:3117")
	require.NoError(t, err)
	b, err := ForEPSG("urn:ogc:def:crs:EPSG::3117")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForEPSG_Unsupported(t *testing.T) {
	for _, code := range []string{"EPSG:2154", "EPSG:32661", "Bogota"} {
		_, err := ForEPSG(code)
		assert.Error(t, err, code)
	}
}

func TestParsePRJ(t *testing.T) {
	t.Run("esri transverse mercator", func(t *testing.T) {
		p, err := ParsePRJ(prjMagnaBogota)
		require.NoError(t, err)

		pr, ok := p.(Projected)
		require.True(t, ok)
		assert.Equal(t, "MAGNA_Colombia_Bogota", pr.Name())
		assert.Equal(t, 1.0, pr.UnitToMetre)
		assert.GreaterOrEqual(t, int(pr.Code), customCodeBase)

		ll, err := p.Inverse([]float64{1000000, 1000000})
		require.NoError(t, err)
		assert.InDelta(t, -74.0775, ll[0], 1e-4)
		assert.InDelta(t, 4.5962, ll[1], 1e-4)

		again, err := ParsePRJ(prjMagnaBogota)
		require.NoError(t, err)
		assert.Equal(t, pr.Code, again.(Projected).Code, "identical definitions share a code")
	})

	t.Run("feet", func(t *testing.T) {
		wkt := `PROJCS["tm_feet",GEOGCS["GCS_MAGNA",DATUM["D_MAGNA",SPHEROID["GRS_1980",6378137.0,298.257222101]]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",-75.0],PARAMETER["Scale_Factor",1.0],PARAMETER["Latitude_Of_Origin",0.0],UNIT["Foot_US",0.3048006096012192]]`
		p, err := ParsePRJ(wkt)
		require.NoError(t, err)
		assert.InDelta(t, 0.3048006096012192, p.(Projected).UnitToMetre, 1e-15)

		ll, err := p.Inverse([]float64{0, 0})
		require.NoError(t, err)
		assert.InDelta(t, -75.0, ll[0], 1e-7)
		assert.InDelta(t, 0.0, ll[1], 1e-7)
	})

	t.Run("authority wins", func(t *testing.T) {
		wkt := `PROJCS["MAGNA-SIRGAS / Colombia Bogota zone",GEOGCS["MAGNA-SIRGAS",DATUM["Marco_Geocentrico_Nacional_de_Referencia",SPHEROID["GRS 1980",6378137,298.257222101,AUTHORITY["EPSG","7019"]]],AUTHORITY["EPSG","4686"]],PROJECTION["Transverse_Mercator"],UNIT["metre",1],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","3116"]]`
		p, err := ParsePRJ(wkt)
		require.NoError(t, err)
		assert.Equal(t, "EPSG:3116", p.Name())
	})

	t.Run("geographic", func(t *testing.T) {
		p, err := ParsePRJ(prjWGS84)
		require.NoError(t, err)
		assert.IsType(t, Geographic{}, p)
		ll, err := p.Inverse([]float64{-75.5, 8.5})
		require.NoError(t, err)
		assert.Equal(t, []float64{-75.5, 8.5}, ll)
	})

	t.Run("web mercator", func(t *testing.T) {
		wkt := `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],UNIT["Meter",1.0]]`
		p, err := ParsePRJ(wkt)
		require.NoError(t, err)
		assert.Equal(t, "EPSG:3857", p.Name())
	})

	t.Run("unsupported projection", func(t *testing.T) {
		wkt := `PROJCS["lcc",GEOGCS["GCS_WGS_1984",DATUM["D",SPHEROID["WGS_1984",6378137.0,298.257223563]]],PROJECTION["Lambert_Conformal_Conic"],UNIT["Meter",1.0]]`
		_, err := ParsePRJ(wkt)
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, wkt := range []string{"", `PROJCS["x"`, `PROJCS["x",PARAMETER["a",]`, "123"} {
			_, err := ParsePRJ(wkt)
			assert.Error(t, err, wkt)
		}
	})
}
