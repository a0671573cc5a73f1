package domain

import (
	"github.com/twpayne/go-geom"
)

// LatLon is a geographic point in EPSG:4326
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Attribute is a named boundary attribute, kept in schema order
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MunicipalFeature is a boundary polygon with its joined counters
type MunicipalFeature struct {
	Index      int                `json:"index"`
	AreaCode   string             `json:"area_code"`
	Name       string             `json:"name"`
	Attributes []Attribute        `json:"attributes"`
	Counters   Counters           `json:"counters"`
	Matched    bool               `json:"matched"`
	Centroid   LatLon             `json:"centroid"`
	Geometry   *geom.MultiPolygon `json:"-"`
}

// Attr returns the value of a named boundary attribute
func (f MunicipalFeature) Attr(name string) (string, bool) {
	for _, a := range f.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// GeoJoin is the boundary collection joined with the aggregated dataset
type GeoJoin struct {
	Features  []MunicipalFeature `json:"features"`
	NameField string             `json:"name_field"`
	CodeField string             `json:"code_field"`
	Center    LatLon             `json:"center"`
	SourceCRS string             `json:"source_crs"`
	// OrphanKeys are dataset area codes that matched no boundary
	OrphanKeys []string `json:"orphan_keys,omitempty"`
}

// Matched returns the number of features that received dataset rows
func (g *GeoJoin) Matched() int {
	n := 0
	for _, f := range g.Features {
		if f.Matched {
			n++
		}
	}
	return n
}
