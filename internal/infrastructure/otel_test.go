package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCreateDashboardMetrics(t *testing.T) {
	metrics, err := CreateDashboardMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	assert.NotNil(t, metrics.PipelineLoadsTotal)
	assert.NotNil(t, metrics.ExportsTotal)
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordPipelineLoad(ctx, nil, time.Second, "data_source", errors.New("x"))
		RecordCacheLookup(ctx, nil, true)
		RecordExport(ctx, nil, "csv")
		RecordChartRender(ctx, nil, "pie")
	})
}

func TestRecordPipelineLoad(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := CreateDashboardMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	RecordPipelineLoad(ctx, metrics, 20*time.Millisecond, "", nil)
	RecordPipelineLoad(ctx, metrics, 5*time.Millisecond, "geo_source", errors.New("bad prj"))
	RecordCacheLookup(ctx, metrics, true)
	RecordCacheLookup(ctx, metrics, true)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), totals["pipeline_loads_total"])
	assert.Equal(t, int64(1), totals["pipeline_failures_total"])
	assert.Equal(t, int64(2), totals["pipeline_cache_hits_total"])
}

func TestInitializeOTel_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1,
	}, logger)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	_, err := InitializeOTel(&OTelConfig{TraceExporter: "jaeger", EnableTracing: true}, logger)
	assert.Error(t, err)
}
