package extract

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/compozy/docchunk/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

var bound atomic.Pointer[instruments]

// InitMetrics creates the extraction instruments on meter.
func InitMetrics(meter metric.Meter) error {
	var (
		in  instruments
		err error
	)
	in.duration, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("extract", "duration_seconds"),
		metric.WithDescription("Latency of text extraction by format"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.StageDurationBuckets...),
	)
	if err != nil {
		return err
	}
	in.failures, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("extract", "failures_total"),
		metric.WithDescription("Number of extractions that returned an error"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	bound.Store(&in)
	return nil
}

func recordExtraction(ctx context.Context, format Format, d time.Duration, err error) {
	in := bound.Load()
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("format", string(format)))
	in.duration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		in.failures.Add(ctx, 1, attrs)
	}
}
