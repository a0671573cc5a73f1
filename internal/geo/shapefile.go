package geo

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"golang.org/x/text/encoding/charmap"

	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// ShapefileSource reads an ESRI shapefile with its .dbf attributes and
// optional .prj and .cpg sidecars
type ShapefileSource struct {
	path   string
	opts   SourceOptions
	logger *slog.Logger
}

// NewShapefileSource creates a source for the .shp at path
func NewShapefileSource(path string, opts SourceOptions) *ShapefileSource {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ShapefileSource{
		path:   path,
		opts:   opts,
		logger: logger.With(slog.String("component", "shapefile_source")),
	}
}

// Files returns the shapefile and the sidecars that affect how it is read
func (s *ShapefileSource) Files() []string {
	return []string{s.path, s.sidecar(".dbf"), s.sidecar(".prj"), s.sidecar(".cpg")}
}

func (s *ShapefileSource) sidecar(ext string) string {
	base := strings.TrimSuffix(s.path, filepath.Ext(s.path))
	for _, candidate := range []string{base + ext, base + strings.ToUpper(ext)} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return base + ext
}

// Load reads every polygon record, decodes attributes and reprojects
func (s *ShapefileSource) Load(ctx context.Context) (*Boundaries, error) {
	reader, err := shp.Open(s.path)
	if err != nil {
		return nil, errors.NewGeoSourceError("cannot open boundary file", err).
			WithContext("path", s.path)
	}
	defer reader.Close()

	decode := s.attributeDecoder()

	fields := reader.Fields()
	b := &Boundaries{Path: s.path, Fields: make([]string, len(fields))}
	for i, f := range fields {
		b.Fields[i] = decode(strings.TrimRight(string(f.Name[:]), "\x00"))
	}

	withoutGeometry := 0
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, shape := reader.Shape()
		feature := BoundaryFeature{Attributes: make([]domain.Attribute, len(fields))}
		if rings, ok := polygonRings(shape); ok {
			feature.Geometry = assembleRings(rings)
		} else {
			withoutGeometry++
		}
		for i := range fields {
			feature.Attributes[i] = domain.Attribute{
				Name:  b.Fields[i],
				Value: decode(reader.ReadAttribute(row, i)),
			}
		}
		b.Features = append(b.Features, feature)
	}
	if err := reader.Err(); err != nil {
		return nil, errors.NewGeoSourceError("cannot read boundary file", err).
			WithContext("path", s.path)
	}

	if withoutGeometry > 0 {
		s.logger.WarnContext(ctx, "shapes without polygon geometry kept with null geometry",
			slog.String("path", s.path),
			slog.Int("count", withoutGeometry))
	}

	proj, err := s.projection(b.Features)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			appErr.WithContext("path", s.path)
		}
		return nil, err
	}
	if err := reproject(b.Features, proj); err != nil {
		return nil, err
	}
	b.SourceCRS = proj.Name()

	s.logger.InfoContext(ctx, "boundaries loaded",
		slog.String("path", s.path),
		slog.Int("features", len(b.Features)),
		slog.Int("fields", len(b.Fields)),
		slog.String("source_crs", b.SourceCRS))

	return b, nil
}

// projection resolves the source CRS: override, then .prj, then a bounds check
func (s *ShapefileSource) projection(features []BoundaryFeature) (Projection, error) {
	if p, err := resolveOverride(s.opts); p != nil || err != nil {
		return p, err
	}

	data, err := os.ReadFile(s.sidecar(".prj"))
	if os.IsNotExist(err) {
		s.logger.Warn("boundary file has no .prj, checking for geographic coordinates",
			slog.String("path", s.path))
		return assumeGeographic(features)
	}
	if err != nil {
		return nil, errors.NewGeoSourceError("cannot read projection file", err)
	}

	p, err := ParsePRJ(string(data))
	if err != nil {
		return nil, errors.NewGeoSourceError("cannot reproject boundaries", err)
	}
	return p, nil
}

// attributeDecoder honours a .cpg code page; without one, valid UTF-8 is
// kept and anything else is read as Latin-1
func (s *ShapefileSource) attributeDecoder() func(string) string {
	cpg, _ := os.ReadFile(s.sidecar(".cpg"))
	page := strings.ToUpper(strings.TrimSpace(string(cpg)))

	latin1 := func(v string) string {
		out, err := charmap.ISO8859_1.NewDecoder().String(v)
		if err != nil {
			return v
		}
		return out
	}

	return func(v string) string {
		v = strings.TrimSpace(strings.TrimRight(v, "\x00"))
		switch {
		case page == "UTF-8" || page == "UTF8" || page == "65001":
			return v
		case page != "":
			return latin1(v)
		case utf8.ValidString(v):
			return v
		default:
			return latin1(v)
		}
	}
}

// polygonRings returns the rings of a polygon shape as flat XY slices
func polygonRings(shape shp.Shape) ([][]float64, bool) {
	var parts []int32
	var points []shp.Point

	switch p := shape.(type) {
	case *shp.Polygon:
		parts, points = p.Parts, p.Points
	case *shp.PolygonZ:
		parts, points = p.Parts, p.Points
	case *shp.PolygonM:
		parts, points = p.Parts, p.Points
	default:
		return nil, false
	}
	if len(points) == 0 {
		return nil, false
	}

	rings := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		ring := make([]float64, 0, 2*(end-start))
		for _, pt := range points[start:end] {
			ring = append(ring, pt.X, pt.Y)
		}
		rings = append(rings, ring)
	}
	return rings, len(rings) > 0
}
