package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/larrynino/spatial-public-health/internal/dataprocessing"
	"github.com/larrynino/spatial-public-health/internal/geo"
	"github.com/larrynino/spatial-public-health/internal/pipeline"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// ResultSource provides the memoized pipeline result
type ResultSource interface {
	Get(ctx context.Context) (*pipeline.Result, error)
	Reload(ctx context.Context) (*pipeline.Result, error)
	Inputs() []string
}

// DashboardService builds the dashboard views from the cached pipeline result
type DashboardService struct {
	source ResultSource
	logger *slog.Logger
}

// NewDashboardService creates a dashboard service
func NewDashboardService(source ResultSource, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		source: source,
		logger: logger.With(slog.String("service", "dashboard")),
	}
}

func (s *DashboardService) result(ctx context.Context) (*pipeline.Result, error) {
	res, err := s.source.Get(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "pipeline unavailable", slog.String("error", err.Error()))
		return nil, err
	}
	if res == nil || res.Dataset == nil {
		return nil, ErrNotReady
	}
	return res, nil
}

// Rows returns the municipal view: every joined boundary when geometry is
// available, otherwise one row per dataset group
func (s *DashboardService) Rows(ctx context.Context) ([]MunicipalRow, error) {
	res, err := s.result(ctx)
	if err != nil {
		return nil, err
	}
	return municipalRows(res), nil
}

func municipalRows(res *pipeline.Result) []MunicipalRow {
	if res.HasGeo() {
		rows := make([]MunicipalRow, len(res.Geo.Features))
		for i, f := range res.Geo.Features {
			name := f.Name
			if name == "" {
				name = f.AreaCode
			}
			rows[i] = MunicipalRow{
				Key:         f.AreaCode,
				AreaCode:    f.AreaCode,
				Name:        name,
				Counters:    f.Counters,
				Matched:     f.Matched,
				HasGeometry: f.Geometry != nil,
			}
		}
		return rows
	}

	rows := make([]MunicipalRow, len(res.Totals))
	for i, t := range res.Totals {
		rows[i] = MunicipalRow{
			Key:      t.Key,
			AreaCode: t.AreaCode,
			Name:     t.DisplayName(),
			Counters: t.Counters,
			Matched:  true,
		}
	}
	return rows
}

// Municipalities lists the names with at least one intervention
func (s *DashboardService) Municipalities(ctx context.Context) (*MunicipalityList, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Counters.Get(domain.ColTotalInterventions) <= 0 || r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		names = append(names, r.Name)
	}
	sortNames(names)

	return &MunicipalityList{All: AllMunicipalities, Names: names}, nil
}

// selectRows filters rows by name (accent- and case-insensitive) or area
// code. An empty selection or "Todos" selects everything.
func selectRows(rows []MunicipalRow, municipality string) ([]MunicipalRow, string, error) {
	m := strings.TrimSpace(municipality)
	if m == "" || foldName(m) == foldName(AllMunicipalities) {
		return rows, AllMunicipalities, nil
	}

	want := foldName(m)
	code, _ := dataprocessing.NormalizeAreaCode(m)

	var out []MunicipalRow
	label := ""
	for _, r := range rows {
		if foldName(r.Name) == want || (r.AreaCode != "" && r.AreaCode == code) {
			out = append(out, r)
			if label == "" {
				label = r.Name
			}
		}
	}
	if len(out) == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrMunicipalityNotFound, m)
	}
	return out, label, nil
}

// InterventionBreakdown distributes the intervention types of a selection.
// Types with no activity are left out; an empty breakdown is not an error.
func (s *DashboardService) InterventionBreakdown(ctx context.Context, municipality string) (*Breakdown, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	selected, label, err := selectRows(rows, municipality)
	if err != nil {
		return nil, err
	}

	var sum domain.Counters
	for _, r := range selected {
		sum.Add(r.Counters)
	}

	b := &Breakdown{Municipality: label, Slices: []Slice{}}
	for _, t := range breakdownTypes {
		v := sum.Get(t.col)
		if v <= 0 {
			continue
		}
		b.Slices = append(b.Slices, Slice{Key: t.col.Key(), Label: t.label, Value: v})
		b.Total += v
	}
	for i := range b.Slices {
		b.Slices[i].Share = b.Slices[i].Value / b.Total
	}
	return b, nil
}

// Comparison returns one metric for every municipality in the view
func (s *DashboardService) Comparison(ctx context.Context, metric string) (*Comparison, error) {
	col, opt, ok := LookupMetric(metric)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetric, metric)
	}

	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	c := &Comparison{Metric: opt, Rows: make([]ComparisonRow, 0, len(rows))}
	for _, r := range rows {
		v := r.Counters.Get(col)
		c.Rows = append(c.Rows, ComparisonRow{Key: r.Key, AreaCode: r.AreaCode, Name: r.Name, Value: v})
		c.Total += v
		if v > c.Max {
			c.Max = v
		}
	}
	sort.SliceStable(c.Rows, func(i, j int) bool { return c.Rows[i].Value > c.Rows[j].Value })
	return c, nil
}

// CaseSummary totals the ETV cases and lists municipalities with any case
func (s *DashboardService) CaseSummary(ctx context.Context) (*CaseSummary, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	cs := &CaseSummary{Rows: []CaseRow{}}
	for _, r := range rows {
		cr := CaseRow{
			Name:          r.Name,
			AreaCode:      r.AreaCode,
			Dengue:        r.Counters.Get(domain.ColDengue),
			Leishmaniasis: r.Counters.Get(domain.ColLeishmaniasis),
			Malaria:       r.Counters.Get(domain.ColMalaria),
		}
		cr.Total = cr.Dengue + cr.Leishmaniasis + cr.Malaria

		cs.Dengue += cr.Dengue
		cs.Leishmaniasis += cr.Leishmaniasis
		cs.Malaria += cr.Malaria

		if r.Counters.Any(domain.ColDengue, domain.ColLeishmaniasis, domain.ColMalaria) {
			cs.Rows = append(cs.Rows, cr)
		}
	}
	cs.Total = cs.Dengue + cs.Leishmaniasis + cs.Malaria

	sort.SliceStable(cs.Rows, func(i, j int) bool { return cs.Rows[i].Total < cs.Rows[j].Total })
	return cs, nil
}

// Summary returns headline totals over the municipal view and the dataset
func (s *DashboardService) Summary(ctx context.Context) (*Summary, error) {
	res, err := s.result(ctx)
	if err != nil {
		return nil, err
	}
	rows := municipalRows(res)

	sum := &Summary{
		Mode:           res.Dataset.Mode,
		Records:        res.Dataset.Len(),
		Municipalities: len(rows),
		DatasetTotals:  res.Dataset.Totals(),
		Quality:        res.Dataset.Quality,
		GeoAvailable:   res.HasGeo(),
		LoadedAt:       res.LoadedAt,
	}
	for _, r := range rows {
		sum.Totals.Add(r.Counters)
	}
	return sum, nil
}

func (s *DashboardService) geoJoin(ctx context.Context) (*domain.GeoJoin, error) {
	res, err := s.result(ctx)
	if err != nil {
		return nil, err
	}
	if !res.HasGeo() {
		if res.GeoErr != nil {
			return nil, res.GeoErr
		}
		return nil, ErrNoGeometry
	}
	return res.Geo, nil
}

// GeoJoin returns the joined boundaries
func (s *DashboardService) GeoJoin(ctx context.Context) (*domain.GeoJoin, error) {
	return s.geoJoin(ctx)
}

// WriteGeoJSON writes the joined boundaries as a FeatureCollection
func (s *DashboardService) WriteGeoJSON(ctx context.Context, w io.Writer) error {
	join, err := s.geoJoin(ctx)
	if err != nil {
		return err
	}
	return geo.WriteGeoJSON(w, join)
}

// MapInfo describes the joined boundaries
func (s *DashboardService) MapInfo(ctx context.Context) (*MapInfo, error) {
	join, err := s.geoJoin(ctx)
	if err != nil {
		return nil, err
	}
	return &MapInfo{
		Center:     join.Center,
		NameField:  join.NameField,
		CodeField:  join.CodeField,
		SourceCRS:  join.SourceCRS,
		TargetCRS:  geo.TargetCRS,
		Features:   len(join.Features),
		Matched:    join.Matched(),
		OrphanKeys: join.OrphanKeys,
	}, nil
}

// Status reports the loaded pipeline state
func (s *DashboardService) Status(ctx context.Context) (*Status, error) {
	res, err := s.result(ctx)
	if err != nil {
		return nil, err
	}
	return s.status(res), nil
}

// Reload forces a rebuild of the pipeline
func (s *DashboardService) Reload(ctx context.Context) (*Status, error) {
	res, err := s.source.Reload(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reload failed", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.InfoContext(ctx, "dashboard data reloaded", slog.String("fingerprint", res.Fingerprint.Short()))
	return s.status(res), nil
}

func (s *DashboardService) status(res *pipeline.Result) *Status {
	st := &Status{
		Fingerprint:  res.Fingerprint.Digest,
		Mode:         string(res.Fingerprint.Mode),
		Inputs:       s.source.Inputs(),
		LoadedAt:     res.LoadedAt,
		LoadDuration: res.Duration,
		Records:      res.Dataset.Len(),
		GeoAvailable: res.HasGeo(),
	}
	if res.GeoErr != nil {
		st.GeoError = res.GeoErr.Error()
	}
	return st
}
