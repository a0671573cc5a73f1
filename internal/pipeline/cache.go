package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/larrynino/spatial-public-health/internal/dataprocessing"
	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/geo"
	"github.com/larrynino/spatial-public-health/internal/infrastructure"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// Options configures the pipeline inputs
type Options struct {
	CSVPath         string
	BoundaryPath    string
	Loader          dataprocessing.LoaderOptions
	Join            geo.JoinOptions
	SourceCRS       string
	FingerprintMode FingerprintMode
}

// Result is one fully built pipeline output. It is never mutated after
// being published.
type Result struct {
	Dataset     *domain.Dataset
	Totals      []domain.MunicipalTotals
	Geo         *domain.GeoJoin
	GeoErr      error
	Fingerprint Fingerprint
	LoadedAt    time.Time
	Duration    time.Duration
}

// HasGeo reports whether the joined boundaries are available
func (r *Result) HasGeo() bool {
	return r != nil && r.Geo != nil && r.GeoErr == nil
}

// Cache memoizes the pipeline result against the input fingerprint
type Cache struct {
	opts    Options
	loader  *dataprocessing.Loader
	source  geo.BoundarySource
	joiner  *geo.Joiner
	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics
	tracer  trace.Tracer

	mu      sync.RWMutex
	current *Result
	group   singleflight.Group
	now     func() time.Time
}

// NewCache creates an empty cache. Nothing is read until the first Get.
func NewCache(opts Options, logger *slog.Logger, metrics *infrastructure.DashboardMetrics) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CSVPath == "" {
		return nil, errors.NewConfigError("dataset path is required", nil)
	}
	if opts.FingerprintMode == "" {
		opts.FingerprintMode = FingerprintStat
	}

	c := &Cache{
		opts:    opts,
		loader:  dataprocessing.NewLoader(opts.Loader, logger),
		logger:  logger.With(slog.String("component", "pipeline_cache")),
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.MeterName),
		now:     time.Now,
	}

	if opts.BoundaryPath != "" {
		src, err := geo.OpenSource(opts.BoundaryPath, geo.SourceOptions{SourceCRS: opts.SourceCRS, Logger: logger})
		if err != nil {
			return nil, err
		}
		c.source = src
		c.joiner = geo.NewJoiner(opts.Join, logger)
	}
	return c, nil
}

// Inputs lists every file whose change invalidates the cache
func (c *Cache) Inputs() []string {
	paths := []string{c.opts.CSVPath}
	if c.source != nil {
		paths = append(paths, c.source.Files()...)
	}
	return paths
}

// Get returns the memoized result, rebuilding it if the inputs changed.
// Concurrent callers share one build; readers never see a partial result.
func (c *Cache) Get(ctx context.Context) (*Result, error) {
	fp, err := ComputeFingerprint(c.opts.FingerprintMode, c.Inputs()...)
	if err != nil {
		return nil, errors.NewDataSourceError("cannot fingerprint inputs", err)
	}

	if res := c.Current(); res != nil && res.Fingerprint.Equal(fp) {
		infrastructure.RecordCacheLookup(ctx, c.metrics, true)
		return res, nil
	}
	infrastructure.RecordCacheLookup(ctx, c.metrics, false)

	v, err, shared := c.group.Do(fp.Digest, func() (interface{}, error) {
		if res := c.Current(); res != nil && res.Fingerprint.Equal(fp) {
			return res, nil
		}
		// a build outlives the request that triggered it
		return c.build(context.WithoutCancel(ctx), fp)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "joined in-flight pipeline build", slog.String("fingerprint", fp.Short()))
	}
	return v.(*Result), nil
}

// Current returns the published result without checking the inputs
func (c *Cache) Current() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Invalidate drops the published result; the next Get rebuilds
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.logger.Info("pipeline cache invalidated")
}

// Reload invalidates and rebuilds immediately
func (c *Cache) Reload(ctx context.Context) (*Result, error) {
	c.Invalidate()
	return c.Get(ctx)
}

func (c *Cache) build(ctx context.Context, fp Fingerprint) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.build",
		trace.WithAttributes(
			attribute.String("pipeline.fingerprint", fp.Short()),
			attribute.String("pipeline.csv_path", c.opts.CSVPath),
		))
	defer span.End()

	start := c.now()

	ds, err := c.loader.Load(ctx, c.opts.CSVPath)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordPipelineLoad(ctx, c.metrics, time.Since(start), "data_source", err)
		return nil, err
	}

	res := &Result{
		Dataset:     ds,
		Totals:      dataprocessing.Aggregate(ds),
		Fingerprint: fp,
	}

	if c.source != nil {
		res.Geo, res.GeoErr = c.buildGeo(ctx, ds)
		if res.GeoErr != nil {
			infrastructure.RecordError(ctx, res.GeoErr)
			c.logger.WarnContext(ctx, "map views unavailable",
				slog.String("path", c.opts.BoundaryPath),
				slog.String("error", res.GeoErr.Error()))
		}
	} else {
		res.GeoErr = errors.NewGeoSourceError("no boundary file configured", nil)
	}

	res.LoadedAt = c.now()
	res.Duration = time.Since(start)

	kind := ""
	var geoErr error
	if res.GeoErr != nil && c.source != nil && !stderrors.Is(res.GeoErr, geo.ErrJoinUnsupported) {
		kind, geoErr = "geo_source", res.GeoErr
	}
	infrastructure.RecordPipelineLoad(ctx, c.metrics, res.Duration, kind, geoErr)
	if c.metrics != nil {
		c.metrics.RecordsLoaded.Record(ctx, int64(ds.Len()))
		if res.Geo != nil {
			c.metrics.FeaturesJoined.Record(ctx, int64(len(res.Geo.Features)))
		}
	}

	c.mu.Lock()
	c.current = res
	c.mu.Unlock()

	span.SetAttributes(
		attribute.Int("pipeline.records", ds.Len()),
		attribute.Int("pipeline.municipalities", len(res.Totals)),
		attribute.Bool("pipeline.geo", res.HasGeo()),
	)
	c.logger.InfoContext(ctx, "pipeline built",
		slog.String("fingerprint", fp.Short()),
		slog.Int("records", ds.Len()),
		slog.Int("municipalities", len(res.Totals)),
		slog.Bool("geo", res.HasGeo()),
		slog.Duration("duration", res.Duration))

	return res, nil
}

func (c *Cache) buildGeo(ctx context.Context, ds *domain.Dataset) (*domain.GeoJoin, error) {
	if ds.Mode != domain.KeyModeCoded {
		return nil, geo.ErrJoinUnsupported
	}
	b, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.joiner.Join(ctx, ds, b)
}
