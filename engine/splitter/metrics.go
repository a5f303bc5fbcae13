package splitter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/compozy/docchunk/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	duration  metric.Float64Histogram
	chunks    metric.Int64Counter
	fallbacks metric.Int64Counter
}

// bound is nil until InitMetrics runs; recording is then a no-op.
var bound atomic.Pointer[instruments]

// InitMetrics creates the splitter instruments on meter. Later calls replace
// the earlier instruments.
func InitMetrics(meter metric.Meter) error {
	var (
		in  instruments
		err error
	)
	in.duration, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("splitter", "duration_seconds"),
		metric.WithDescription("Latency of splitting one text"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.StageDurationBuckets...),
	)
	if err != nil {
		return err
	}
	in.chunks, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("splitter", "chunks_total"),
		metric.WithDescription("Number of chunks produced by strategy"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	in.fallbacks, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("splitter", "fallback_total"),
		metric.WithDescription("Number of configuration fallbacks applied, by warning code"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	bound.Store(&in)
	return nil
}

func recordSplit(ctx context.Context, strategy Type, chunks int, d time.Duration) {
	in := bound.Load()
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("strategy", string(strategy)))
	in.duration.Record(ctx, d.Seconds(), attrs)
	if chunks > 0 {
		in.chunks.Add(ctx, int64(chunks), attrs)
	}
}

func recordFallback(ctx context.Context, code string) {
	if in := bound.Load(); in != nil {
		in.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
}
