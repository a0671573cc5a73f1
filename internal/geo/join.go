package geo

import (
	"context"
	stderrors "errors"
	"log/slog"
	"math"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"gonum.org/v1/gonum/stat"

	"github.com/larrynino/spatial-public-health/internal/dataprocessing"
	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// ErrJoinUnsupported is returned for datasets keyed by name only
var ErrJoinUnsupported = stderrors.New("geo: dataset has no area codes to join on")

// JoinOptions names the boundary fields used by the join
type JoinOptions struct {
	CodeField string
	NameField string
}

// Joiner attaches aggregated dataset counters to boundaries
type Joiner struct {
	opts   JoinOptions
	logger *slog.Logger
}

// NewJoiner creates a joiner
func NewJoiner(opts JoinOptions, logger *slog.Logger) *Joiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Joiner{
		opts:   opts,
		logger: logger.With(slog.String("component", "geo_join")),
	}
}

// Join left-joins the aggregated dataset onto the boundaries by area code.
// Every boundary is kept; unmatched ones carry zero counters.
func (j *Joiner) Join(ctx context.Context, ds *domain.Dataset, b *Boundaries) (*domain.GeoJoin, error) {
	if ds == nil || b == nil {
		return nil, errors.NewAppValidationError("join needs a dataset and boundaries")
	}
	if ds.Mode != domain.KeyModeCoded {
		return nil, ErrJoinUnsupported
	}
	if len(b.Features) == 0 {
		return nil, errors.NewGeoSourceError("boundary file has no polygons", nil).
			WithContext("path", b.Path)
	}

	codeIdx := b.FieldIndex(j.opts.CodeField)
	if codeIdx < 0 {
		return nil, errors.NewGeoSourceError("boundary file has no code field", nil).
			WithContext("path", b.Path).
			WithContext("code_field", j.opts.CodeField).
			WithContext("fields", b.Fields)
	}

	nameField, rule, err := ResolveNameField(b.Fields, j.opts.NameField)
	if err != nil {
		return nil, err
	}
	nameIdx := b.FieldIndex(nameField)

	totals := dataprocessing.IndexByKey(dataprocessing.Aggregate(ds))
	used := make(map[string]bool, len(totals))

	join := &domain.GeoJoin{
		Features:  make([]domain.MunicipalFeature, 0, len(b.Features)),
		NameField: nameField,
		CodeField: b.Fields[codeIdx],
		SourceCRS: b.SourceCRS,
	}
	lats := make([]float64, 0, len(b.Features))
	lons := make([]float64, 0, len(b.Features))

	for i, bf := range b.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		code, _ := dataprocessing.NormalizeAreaCode(attrAt(bf.Attributes, codeIdx))
		f := domain.MunicipalFeature{
			Index:      i,
			AreaCode:   code,
			Name:       attrAt(bf.Attributes, nameIdx),
			Attributes: bf.Attributes,
			Geometry:   bf.Geometry,
			Centroid:   centroid(bf.Geometry),
		}
		if t, ok := totals[code]; ok {
			f.Counters = t.Counters
			f.Matched = true
			used[code] = true
		}

		join.Features = append(join.Features, f)
		if bf.Geometry != nil && !bf.Geometry.Empty() {
			lats = append(lats, f.Centroid.Lat)
			lons = append(lons, f.Centroid.Lon)
		}
	}

	// features without geometry stay in the join but not in the center
	if len(lats) > 0 {
		join.Center = domain.LatLon{
			Lat: stat.Mean(lats, nil),
			Lon: stat.Mean(lons, nil),
		}
	}

	for key := range totals {
		if !used[key] {
			join.OrphanKeys = append(join.OrphanKeys, key)
		}
	}
	sort.Strings(join.OrphanKeys)

	j.logger.InfoContext(ctx, "boundaries joined",
		slog.Int("features", len(join.Features)),
		slog.Int("matched", join.Matched()),
		slog.String("name_field", nameField),
		slog.String("name_rule", rule),
		slog.Float64("center_lat", join.Center.Lat),
		slog.Float64("center_lon", join.Center.Lon))

	if len(join.OrphanKeys) > 0 {
		j.logger.WarnContext(ctx, "dataset area codes without a boundary",
			slog.Int("count", len(join.OrphanKeys)),
			slog.Any("codes", join.OrphanKeys))
	}

	return join, nil
}

func attrAt(attrs []domain.Attribute, i int) string {
	if i < 0 || i >= len(attrs) {
		return ""
	}
	return attrs[i].Value
}

// centroid falls back to the bounding box center for degenerate polygons
func centroid(mp *geom.MultiPolygon) domain.LatLon {
	if mp == nil || mp.Empty() {
		return domain.LatLon{}
	}
	c, err := xy.Centroid(mp)
	if err == nil && len(c) >= 2 && !math.IsNaN(c[0]) && !math.IsNaN(c[1]) {
		return domain.LatLon{Lon: c[0], Lat: c[1]}
	}
	b := mp.Bounds()
	return domain.LatLon{
		Lon: (b.Min(0) + b.Max(0)) / 2,
		Lat: (b.Min(1) + b.Max(1)) / 2,
	}
}
