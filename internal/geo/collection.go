package geo

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// Property keys added to every serialized feature
const (
	PropAreaCode = "area_code"
	PropName     = "name"
	PropMatched  = "matched"

	// SourcePropPrefix renames boundary attributes that collide with a
	// computed property
	SourcePropPrefix = "src_"
)

// computedProps lists every property key the join sets itself
func computedProps() map[string]bool {
	keys := map[string]bool{PropAreaCode: true, PropName: true, PropMatched: true}
	for _, col := range domain.AllColumns() {
		keys[col.Key()] = true
	}
	return keys
}

// FeatureCollection converts a join into GeoJSON. Properties hold the
// boundary attributes, the normalized area code, the display name and all
// counters. Computed properties take precedence: a boundary attribute with
// the same name is kept under SourcePropPrefix + name.
func FeatureCollection(join *domain.GeoJoin) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	if join == nil {
		return fc
	}

	computed := computedProps()
	for _, f := range join.Features {
		props := make(map[string]interface{}, len(f.Attributes)+len(computed))
		for _, a := range f.Attributes {
			if computed[a.Name] {
				props[SourcePropPrefix+a.Name] = a.Value
				continue
			}
			props[a.Name] = a.Value
		}
		props[PropAreaCode] = f.AreaCode
		props[PropName] = f.Name
		props[PropMatched] = f.Matched
		for _, col := range domain.AllColumns() {
			props[col.Key()] = f.Counters.Get(col)
		}

		feat := &geojson.Feature{ID: strconv.Itoa(f.Index), Properties: props}
		if f.Geometry != nil {
			feat.Geometry = f.Geometry
		}
		fc.Features = append(fc.Features, feat)
	}
	return fc
}

// WriteGeoJSON encodes the join as a FeatureCollection
func WriteGeoJSON(w io.Writer, join *domain.GeoJoin) error {
	data, err := json.Marshal(FeatureCollection(join))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
