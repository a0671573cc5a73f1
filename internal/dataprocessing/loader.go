package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// FillValue replaces every empty cell before coercion
const FillValue = "0"

// LoaderOptions configures how the intervention file is interpreted
type LoaderOptions struct {
	Encoding      string
	AreaCodeField string
	NameField     string
}

// DefaultLoaderOptions returns the options matching the reference file layout
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		Encoding:      EncodingLatin1,
		AreaCodeField: "divipola",
		NameField:     "mun",
	}
}

// Loader reads the intervention file into a cleaned dataset
type Loader struct {
	opts   LoaderOptions
	logger *slog.Logger
	now    func() time.Time
}

// NewLoader creates a loader. Zero-valued options fall back to the defaults.
func NewLoader(opts LoaderOptions, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultLoaderOptions()
	if opts.Encoding == "" {
		opts.Encoding = def.Encoding
	}
	if opts.AreaCodeField == "" {
		opts.AreaCodeField = def.AreaCodeField
	}
	if opts.NameField == "" {
		opts.NameField = def.NameField
	}

	return &Loader{
		opts:   opts,
		logger: logger.With(slog.String("component", "dataset_loader")),
		now:    time.Now,
	}
}

// Load reads path and returns the cleaned dataset. The result is complete or
// nil; a failure is always a DataSourceError.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Dataset, error) {
	start := l.now()

	raw, err := ReadTable(path, l.opts.Encoding)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to read dataset",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := l.Clean(raw)
	if err != nil {
		l.logger.ErrorContext(ctx, "dataset schema rejected",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.String("mode", string(ds.Mode)),
		slog.Int("rows", ds.Len()),
		slog.Int("filled_cells", ds.Quality.FilledCells),
		slog.Int("coerced_cells", ds.Quality.CoercedCells),
		slog.Duration("duration", time.Since(start)))

	if ds.Quality.OversizedCodes > 0 {
		l.logger.WarnContext(ctx, "area codes longer than the canonical width were kept verbatim",
			slog.Int("count", ds.Quality.OversizedCodes),
			slog.Int("width", domain.AreaCodeWidth))
	}

	return ds, nil
}

// Clean turns a raw table into a dataset: mode detection, area code padding,
// blanket fill, numeric coercion and derived counters.
func (l *Loader) Clean(raw *RawTable) (*domain.Dataset, error) {
	codeIdx := raw.ColumnIndex(l.opts.AreaCodeField)
	nameIdx := raw.ColumnIndex(l.opts.NameField)

	var mode domain.KeyMode
	switch {
	case codeIdx >= 0:
		mode = domain.KeyModeCoded
	case nameIdx >= 0:
		mode = domain.KeyModeNameOnly
	default:
		return nil, errors.NewDataSourceError("dataset has neither an area code nor a municipality name column", nil).
			WithContext("area_code_field", l.opts.AreaCodeField).
			WithContext("name_field", l.opts.NameField)
	}

	colIdx, missing := mapColumns(raw)
	if len(missing) > 0 {
		return nil, errors.NewDataSourceError("dataset is missing required columns", nil).
			WithContext("missing", missing)
	}

	ds := &domain.Dataset{
		Mode:       mode,
		Records:    make([]domain.InterventionRecord, 0, len(raw.Rows)),
		SourcePath: raw.Path,
		LoadedAt:   l.now(),
	}
	ds.Quality.IgnoredColumns = ignoredColumns(raw, codeIdx, nameIdx)

	for _, row := range raw.Rows {
		var rec domain.InterventionRecord

		if codeIdx >= 0 {
			code, oversized := NormalizeAreaCode(row[codeIdx])
			if oversized {
				ds.Quality.OversizedCodes++
			}
			rec.AreaCode = code
		}

		if nameIdx >= 0 {
			name := strings.TrimSpace(row[nameIdx])
			if name == "" {
				name = FillValue
				ds.Quality.FilledCells++
			}
			rec.Name = name
		}

		for col, idx := range colIdx {
			if idx < 0 {
				continue
			}
			cell := strings.TrimSpace(row[idx])
			if cell == "" {
				cell = FillValue
				ds.Quality.FilledCells++
			}
			v, ok := ParseCount(cell)
			if !ok {
				ds.Quality.CoercedCells++
			}
			rec.Counters.Set(domain.Column(col), v)
		}

		rec.Counters.Recompute()
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// mapColumns locates every numeric column. Derived columns are optional and
// reported with index -1; missing raw columns are returned by key.
func mapColumns(raw *RawTable) ([domain.NumColumns]int, []string) {
	var idx [domain.NumColumns]int
	var missing []string

	for _, col := range domain.AllColumns() {
		i := raw.ColumnIndex(col.Key())
		if i < 0 && !col.Derived() {
			missing = append(missing, col.Key())
		}
		if col.Derived() {
			i = -1
		}
		idx[col] = i
	}
	return idx, missing
}

func ignoredColumns(raw *RawTable, codeIdx, nameIdx int) []string {
	var ignored []string
	for i, h := range raw.Header {
		if i == codeIdx || i == nameIdx {
			continue
		}
		if _, ok := domain.ParseColumn(h); ok {
			continue
		}
		ignored = append(ignored, h)
	}
	return ignored
}
