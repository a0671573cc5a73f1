package services

import (
	"time"

	"github.com/twpayne/go-geom"

	"github.com/larrynino/spatial-public-health/internal/dataprocessing"
	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/pipeline"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

func record(code, name string, values map[domain.Column]float64) domain.InterventionRecord {
	rec := domain.InterventionRecord{AreaCode: code, Name: name}
	for col, v := range values {
		rec.Counters.Set(col, v)
	}
	rec.Counters.Recompute()
	return rec
}

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		Mode: domain.KeyModeCoded,
		Records: []domain.InterventionRecord{
			record("23001", "0", map[domain.Column]float64{
				domain.ColLodgings: 3, domain.ColLodgingsDwellings: 2, domain.ColIEC: 1, domain.ColTILD: 5,
				domain.ColLocalities: 4, domain.ColDengue: 6, domain.ColMalaria: 1,
			}),
			record("23162", "0", map[domain.Column]float64{
				domain.ColFumigation: 2, domain.ColPopLodging: 10, domain.ColPopDwelling: 20, domain.ColPopBenefited: 5,
				domain.ColLeishmaniasis: 1,
			}),
			record("23068", "0", map[domain.Column]float64{domain.ColVaccination: 8}),
			record("99999", "0", map[domain.Column]float64{domain.ColLarvicide: 100}),
		},
		Quality: domain.QualityReport{FilledCells: 3},
	}
}

func feature(i int, code, name string, totals map[string]domain.MunicipalTotals) domain.MunicipalFeature {
	lon, lat := -76.0, 8+float64(i)
	ring := []float64{lon, lat, lon + 1, lat, lon + 1, lat + 1, lon, lat + 1, lon, lat}
	f := domain.MunicipalFeature{
		Index:      i,
		AreaCode:   code,
		Name:       name,
		Attributes: []domain.Attribute{{Name: "MPIO_CDPMP", Value: code}, {Name: "MPIO_CNMBR", Value: name}},
		Centroid:   domain.LatLon{Lat: lat + 0.5, Lon: lon + 0.5},
		Geometry:   geom.NewMultiPolygonFlat(geom.XY, ring, [][]int{{len(ring)}}),
	}
	if t, ok := totals[code]; ok {
		f.Counters, f.Matched = t.Counters, true
	}
	return f
}

// geoResult joins the test dataset to four boundaries; Lorica has no rows
// and 99999 has no boundary
func geoResult() *pipeline.Result {
	ds := testDataset()
	totals := dataprocessing.Aggregate(ds)
	byKey := dataprocessing.IndexByKey(totals)

	return &pipeline.Result{
		Dataset: ds,
		Totals:  totals,
		Geo: &domain.GeoJoin{
			Features: []domain.MunicipalFeature{
				feature(0, "23001", "MONTERÍA", byKey),
				feature(1, "23162", "CERETÉ", byKey),
				feature(2, "23068", "AYAPEL", byKey),
				feature(3, "23417", "LORICA", byKey),
			},
			NameField:  "MPIO_CNMBR",
			CodeField:  "MPIO_CDPMP",
			Center:     domain.LatLon{Lat: 9.5, Lon: -76},
			SourceCRS:  "EPSG:4326",
			OrphanKeys: []string{"99999"},
		},
		Fingerprint: pipeline.Fingerprint{Mode: pipeline.FingerprintStat, Digest: "0123456789abcdef0123"},
		LoadedAt:    time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
		Duration:    150 * time.Millisecond,
	}
}

// tabularResult has no boundaries
func tabularResult() *pipeline.Result {
	res := geoResult()
	res.Geo = nil
	res.GeoErr = errors.NewGeoSourceError("cannot open boundary file", nil)
	return res
}
