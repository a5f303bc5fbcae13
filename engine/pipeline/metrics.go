package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/compozy/docchunk/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
)

type instruments struct {
	duration  metric.Float64Histogram
	documents metric.Int64Counter
	chunks    metric.Int64Histogram
	swept     metric.Int64Counter
}

var bound atomic.Pointer[instruments]

// InitMetrics creates the pipeline and sweeper instruments on meter.
func InitMetrics(meter metric.Meter) error {
	var (
		in  instruments
		err error
	)
	in.duration, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("pipeline", "duration_seconds"),
		metric.WithDescription("End-to-end latency of processing one upload"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.StageDurationBuckets...),
	)
	if err != nil {
		return err
	}
	in.documents, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("pipeline", "documents_total"),
		metric.WithDescription("Uploads processed by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	in.chunks, err = meter.Int64Histogram(
		metrics.MetricNameWithSubsystem("pipeline", "chunks_per_document"),
		metric.WithDescription("Chunks stored per completed document"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(metrics.ChunkCountBuckets...),
	)
	if err != nil {
		return err
	}
	in.swept, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("pipeline", "stale_documents_total"),
		metric.WithDescription("Documents failed by the stale processing sweeper"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	bound.Store(&in)
	return nil
}

func recordProcess(ctx context.Context, outcome, contentType string, chunks int, d time.Duration) {
	in := bound.Load()
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("content_type", contentType),
	)
	in.duration.Record(ctx, d.Seconds(), attrs)
	in.documents.Add(ctx, 1, attrs)
	if outcome == outcomeCompleted {
		in.chunks.Record(ctx, int64(chunks), metric.WithAttributes(attribute.String("content_type", contentType)))
	}
}

func recordSwept(ctx context.Context, n int) {
	if in := bound.Load(); in != nil && n > 0 {
		in.swept.Add(ctx, int64(n))
	}
}
