package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"mortgagepulse/internal/config"
	"mortgagepulse/pkg/contracts/domain"
)

// MeterName is the instrumentation scope of every pipeline instrument.
const MeterName = "mortgagepulse"

// Telemetry holds the providers and instruments of one run. With both
// exporters set to "none" every instrument is a no-op.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics
	// Registry backs the Prometheus exporter. Nil when metrics are disabled.
	Registry *prometheus.Registry

	logger *slog.Logger
}

// PipelineMetrics are the counters and histograms recorded by each stage.
type PipelineMetrics struct {
	RowsRead          metric.Int64Counter
	RecordsRejected   metric.Int64Counter
	DuplicatesDropped metric.Int64Counter
	InvalidDates      metric.Int64Counter
	FilterResults     metric.Int64Counter
	RecordsSkipped    metric.Int64Counter
	StageDuration     metric.Float64Histogram
	HeapAlloc         metric.Int64Gauge
	Goroutines        metric.Int64Gauge
}

// InitializeTelemetry sets up tracing and metrics for a run. Spans from the
// stdout exporter go to traceOut; nil means stderr.
func InitializeTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if traceOut == nil {
		traceOut = os.Stderr
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	var err error
	t := &Telemetry{logger: logger}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	case "none", "":
		t.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	switch cfg.MetricsExporter {
	case "prometheus":
		t.Registry = prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	case "none", "":
		t.Meter = metricnoop.NewMeterProvider().Meter(MeterName)
	default:
		return nil, fmt.Errorf("unsupported metric exporter: %s", cfg.MetricsExporter)
	}

	if t.Metrics, err = NewPipelineMetrics(t.Meter); err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_exporter", cfg.MetricsExporter))

	return t, nil
}

// NewPipelineMetrics creates the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RowsRead, "mortgage_rows_read", "Raw rows read from source files"},
		{&m.RecordsRejected, "mortgage_records_rejected", "Rows rejected for lacking any identifying field"},
		{&m.DuplicatesDropped, "mortgage_duplicates_dropped", "Records dropped as duplicates"},
		{&m.InvalidDates, "mortgage_invalid_dates", "Records kept without a parsable document date"},
		{&m.FilterResults, "mortgage_filter_results", "Records passing or failing the active filter"},
		{&m.RecordsSkipped, "mortgage_records_skipped", "Records left out of an aggregate"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	if m.StageDuration, err = meter.Float64Histogram(
		"mortgage_stage_duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HeapAlloc, err = meter.Int64Gauge(
		"mortgage_heap_alloc",
		metric.WithDescription("Heap bytes allocated at the end of the run"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if m.Goroutines, err = meter.Int64Gauge(
		"mortgage_goroutines",
		metric.WithDescription("Number of goroutines at the end of the run"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// StartStage opens a span for a pipeline stage. The returned func ends it,
// marks it failed when err is non-nil and records the stage duration.
func (t *Telemetry) StartStage(ctx context.Context, stage string) (context.Context, func(err error)) {
	started := time.Now()
	ctx, span := t.Tracer.Start(ctx, stage)
	if traceID := GetTraceID(ctx); traceID != "" {
		span.SetAttributes(attribute.String("run.trace_id", traceID))
	}

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		t.Metrics.StageDuration.Record(ctx, time.Since(started).Seconds(),
			metric.WithAttributes(attribute.String("stage", stage)))
	}
}

// RecordIngest adds ingestion statistics to the pipeline counters.
func (t *Telemetry) RecordIngest(ctx context.Context, stats domain.IngestStats) {
	t.Metrics.RowsRead.Add(ctx, int64(stats.Total))
	t.Metrics.RecordsRejected.Add(ctx, int64(stats.Rejected))
	t.Metrics.DuplicatesDropped.Add(ctx, int64(stats.Duplicates))
	t.Metrics.InvalidDates.Add(ctx, int64(stats.InvalidDates))
}

// RecordFilter counts how many of total records passed the filter.
func (t *Telemetry) RecordFilter(ctx context.Context, total, kept int) {
	t.Metrics.FilterResults.Add(ctx, int64(kept), metric.WithAttributes(attribute.String("outcome", "pass")))
	t.Metrics.FilterResults.Add(ctx, int64(total-kept), metric.WithAttributes(attribute.String("outcome", "fail")))
}

// RecordSkipped counts records a stage left out of its result.
func (t *Telemetry) RecordSkipped(ctx context.Context, stage string, n int) {
	t.Metrics.RecordsSkipped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordRuntime samples heap and goroutine gauges.
func (t *Telemetry) RecordRuntime(ctx context.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	t.Metrics.HeapAlloc.Record(ctx, int64(ms.HeapAlloc))
	t.Metrics.Goroutines.Record(ctx, int64(runtime.NumGoroutine()))
}

// WriteMetricsFile dumps the current metrics in the Prometheus text format,
// for collection by a node exporter textfile collector. It is a no-op when
// metrics are disabled.
func (t *Telemetry) WriteMetricsFile(path string) error {
	if t.Registry == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	t.logger.Debug("Metrics file written", slog.String("path", path))
	return nil
}

// Shutdown flushes pending spans and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
