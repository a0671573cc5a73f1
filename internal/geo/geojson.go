package geo

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// GeoJSONSource reads a GeoJSON FeatureCollection of polygons
type GeoJSONSource struct {
	path   string
	opts   SourceOptions
	logger *slog.Logger
}

// NewGeoJSONSource creates a source for the GeoJSON file at path
func NewGeoJSONSource(path string, opts SourceOptions) *GeoJSONSource {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoJSONSource{
		path:   path,
		opts:   opts,
		logger: logger.With(slog.String("component", "geojson_source")),
	}
}

func (s *GeoJSONSource) Files() []string { return []string{s.path} }

type rawCollection struct {
	Type string `json:"type"`
	CRS  *struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
	Features []struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties json.RawMessage `json:"properties"`
	} `json:"features"`
}

// Load parses the collection. Property order of the first feature defines
// the field order; the legacy "crs" member is honoured.
func (s *GeoJSONSource) Load(ctx context.Context) (*Boundaries, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.NewGeoSourceError("cannot open boundary file", err).
			WithContext("path", s.path)
	}

	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewGeoSourceError("malformed GeoJSON", err).
			WithContext("path", s.path)
	}
	if raw.Type != "FeatureCollection" {
		return nil, errors.NewGeoSourceError("GeoJSON is not a FeatureCollection", nil).
			WithContext("path", s.path).
			WithContext("type", raw.Type)
	}

	b := &Boundaries{Path: s.path}
	seen := map[string]bool{}
	withoutGeometry := 0

	for i, rf := range raw.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mp, err := decodePolygonal(rf.Geometry)
		if err != nil {
			return nil, errors.NewGeoSourceError("invalid feature geometry", err).
				WithContext("path", s.path).
				WithContext("feature", i)
		}
		if mp == nil {
			withoutGeometry++
		}

		attrs, err := orderedProperties(rf.Properties)
		if err != nil {
			return nil, errors.NewGeoSourceError("invalid feature properties", err).
				WithContext("path", s.path).
				WithContext("feature", i)
		}
		for _, a := range attrs {
			if !seen[a.Name] {
				seen[a.Name] = true
				b.Fields = append(b.Fields, a.Name)
			}
		}
		b.Features = append(b.Features, BoundaryFeature{Attributes: attrs, Geometry: mp})
	}

	if withoutGeometry > 0 {
		s.logger.WarnContext(ctx, "features without polygon geometry kept with null geometry",
			slog.String("path", s.path),
			slog.Int("count", withoutGeometry))
	}

	// align every feature to the collection schema
	for i := range b.Features {
		b.Features[i].Attributes = alignAttributes(b.Fields, b.Features[i].Attributes)
	}

	proj, err := resolveOverride(s.opts)
	if err != nil {
		return nil, err
	}
	if proj == nil && raw.CRS != nil && raw.CRS.Properties.Name != "" {
		if proj, err = ForEPSG(raw.CRS.Properties.Name); err != nil {
			return nil, errors.NewGeoSourceError("cannot reproject boundaries", err).
				WithContext("path", s.path)
		}
	}
	if proj == nil {
		if proj, err = assumeGeographic(b.Features); err != nil {
			var appErr *errors.AppError
			if stderrors.As(err, &appErr) {
				appErr.WithContext("path", s.path)
			}
			return nil, err
		}
	}
	if err := reproject(b.Features, proj); err != nil {
		return nil, err
	}
	b.SourceCRS = proj.Name()

	s.logger.InfoContext(ctx, "boundaries loaded",
		slog.String("path", s.path),
		slog.Int("features", len(b.Features)),
		slog.String("source_crs", b.SourceCRS))

	return b, nil
}

// decodePolygonal returns nil for null or non-polygonal geometries
func decodePolygonal(raw json.RawMessage) (*geom.MultiPolygon, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, err
	}

	switch g := g.(type) {
	case *geom.MultiPolygon:
		return g, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(g.Layout())
		if err := mp.Push(g); err != nil {
			return nil, err
		}
		return mp, nil
	default:
		return nil, nil
	}
}

// orderedProperties decodes a properties object keeping key order
func orderedProperties(raw json.RawMessage) ([]domain.Attribute, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("properties must be an object")
	}

	var attrs []domain.Attribute
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		attrs = append(attrs, domain.Attribute{Name: key, Value: stringifyProperty(v)})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return attrs, nil
}

func stringifyProperty(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func alignAttributes(fields []string, attrs []domain.Attribute) []domain.Attribute {
	if len(attrs) == len(fields) {
		match := true
		for i := range attrs {
			if attrs[i].Name != fields[i] {
				match = false
				break
			}
		}
		if match {
			return attrs
		}
	}

	byName := make(map[string]string, len(attrs))
	for _, a := range attrs {
		byName[a.Name] = a.Value
	}
	out := make([]domain.Attribute, len(fields))
	for i, f := range fields {
		out[i] = domain.Attribute{Name: f, Value: byName[f]}
	}
	return out
}
