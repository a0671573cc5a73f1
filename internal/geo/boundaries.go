package geo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// BoundarySource loads municipal boundaries reprojected to EPSG:4326
type BoundarySource interface {
	Load(ctx context.Context) (*Boundaries, error)
	// Files lists every file the source reads, for change detection
	Files() []string
}

// Boundaries is a boundary collection before the join
type Boundaries struct {
	Path      string
	Fields    []string
	Features  []BoundaryFeature
	SourceCRS string
}

// BoundaryFeature is one boundary with its attributes in schema order.
// Geometry is nil for null or non-polygonal records.
type BoundaryFeature struct {
	Attributes []domain.Attribute
	Geometry   *geom.MultiPolygon
}

// FieldIndex returns the position of a field, matched case-insensitively
func (b *Boundaries) FieldIndex(name string) int {
	for i, f := range b.Fields {
		if strings.EqualFold(f, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// SourceOptions configures boundary reading
type SourceOptions struct {
	// SourceCRS forces the source reference ("EPSG:3116"), ignoring any .prj
	SourceCRS string
	Logger    *slog.Logger
}

// OpenSource picks a reader from the file extension
func OpenSource(path string, opts SourceOptions) (BoundarySource, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return NewShapefileSource(path, opts), nil
	case ".geojson", ".json":
		return NewGeoJSONSource(path, opts), nil
	default:
		return nil, errors.NewGeoSourceError("unsupported boundary format", nil).
			WithContext("path", path)
	}
}

// resolveOverride returns the forced projection, if any
func resolveOverride(opts SourceOptions) (Projection, error) {
	if strings.TrimSpace(opts.SourceCRS) == "" {
		return nil, nil
	}
	p, err := ForEPSG(opts.SourceCRS)
	if err != nil {
		return nil, errors.NewGeoSourceError("cannot reproject boundaries", err).
			WithContext("source_crs", opts.SourceCRS)
	}
	return p, nil
}

// assumeGeographic accepts undeclared coordinates only if they already look
// like lon/lat degrees
func assumeGeographic(features []BoundaryFeature) (Projection, error) {
	for _, f := range features {
		if f.Geometry == nil || f.Geometry.Empty() {
			continue
		}
		b := f.Geometry.Bounds()
		if b.Min(0) < -180 || b.Max(0) > 180 || b.Min(1) < -90 || b.Max(1) > 90 {
			return nil, errors.NewGeoSourceError("boundary CRS is undeclared and coordinates are not geographic", nil).
				WithContext("bounds", []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)})
		}
	}
	return Geographic{Label: TargetCRS}, nil
}

// reproject converts every feature to lon/lat in place
func reproject(features []BoundaryFeature, p Projection) error {
	if _, ok := p.(Geographic); ok {
		return nil
	}
	for i := range features {
		mp, err := projectMultiPolygon(features[i].Geometry, p)
		if err != nil {
			return errors.NewGeoSourceError("cannot reproject boundaries", err).
				WithContext("feature", i).
				WithContext("source_crs", p.Name())
		}
		features[i].Geometry = mp
	}
	return nil
}

func projectMultiPolygon(mp *geom.MultiPolygon, p Projection) (*geom.MultiPolygon, error) {
	if mp == nil {
		return nil, nil
	}
	stride := mp.Stride()
	src := mp.FlatCoords()
	pairs := make([]float64, 0, len(src)/stride*2)
	for i := 0; i+1 < len(src); i += stride {
		pairs = append(pairs, src[i], src[i+1])
	}

	flat, err := p.Inverse(pairs)
	if err != nil {
		return nil, err
	}
	if len(flat) != len(pairs) {
		return nil, fmt.Errorf("projection returned %d values for %d", len(flat), len(pairs))
	}
	for i := 0; i+1 < len(flat); i += 2 {
		lon, lat := flat[i], flat[i+1]
		if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) || math.Abs(lat) > 90 {
			return nil, errors.NewGeoSourceError("coordinate outside projection domain", nil).
				WithContext("x", pairs[i]).WithContext("y", pairs[i+1])
		}
	}

	endss := make([][]int, len(mp.Endss()))
	for i, ends := range mp.Endss() {
		endss[i] = make([]int, len(ends))
		for j, e := range ends {
			endss[i][j] = e / stride * 2
		}
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, endss), nil
}

// assembleRings groups flat XY rings into polygons. Clockwise rings are
// shells and counter-clockwise rings are holes of the shell containing
// them. Output follows RFC 7946 orientation (shells counter-clockwise).
func assembleRings(rings [][]float64) *geom.MultiPolygon {
	type polygon struct {
		shell []float64
		holes [][]float64
	}

	var shells []*polygon
	var holes [][]float64
	for _, r := range rings {
		if len(r) < 8 {
			continue
		}
		if xy.IsRingCounterClockwise(geom.XY, r) {
			holes = append(holes, r)
		} else {
			shells = append(shells, &polygon{shell: r})
		}
	}

	// writers that ignore orientation leave no clockwise ring at all
	if len(shells) == 0 {
		for _, h := range holes {
			shells = append(shells, &polygon{shell: h})
		}
		holes = nil
	}

	for _, h := range holes {
		var owner *polygon
		pt := geom.Coord{h[0], h[1]}
		for _, s := range shells {
			if xy.IsPointInRing(geom.XY, pt, s.shell) {
				owner = s
				break
			}
		}
		if owner == nil {
			shells = append(shells, &polygon{shell: h})
			continue
		}
		owner.holes = append(owner.holes, h)
	}

	var flat []float64
	endss := make([][]int, 0, len(shells))
	for _, s := range shells {
		var ends []int
		flat = append(flat, orient(s.shell, true)...)
		ends = append(ends, len(flat))
		for _, h := range s.holes {
			flat = append(flat, orient(h, false)...)
			ends = append(ends, len(flat))
		}
		endss = append(endss, ends)
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, endss)
}

// orient returns a copy of ring wound counter-clockwise (ccw) or clockwise
func orient(ring []float64, ccw bool) []float64 {
	out := make([]float64, len(ring))
	copy(out, ring)
	if xy.IsRingCounterClockwise(geom.XY, out) == ccw {
		return out
	}
	for i, j := 0, len(out)-2; i < j; i, j = i+2, j-2 {
		out[i], out[j] = out[j], out[i]
		out[i+1], out[j+1] = out[j+1], out[i+1]
	}
	return out
}
