package ratelimit

import (
	"context"
	"sync"

	"github.com/compozy/docchunk/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// Global metrics for rate limiting
	rateLimitBlocksTotal metric.Int64Counter
	metricsOnce          sync.Once
)

// InitMetrics initializes rate limiting metrics
func InitMetrics(meter metric.Meter) error {
	var err error
	metricsOnce.Do(func() {
		rateLimitBlocksTotal, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("http", "rate_limit_blocks_total"),
			metric.WithDescription("Total number of requests blocked by rate limiting"),
			metric.WithUnit("1"),
		)
	})
	return err
}

// IncrementBlockedRequests increments the rate limit block counter
func IncrementBlockedRequests(ctx context.Context, route string) {
	if rateLimitBlocksTotal != nil {
		rateLimitBlocksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
	}
}
