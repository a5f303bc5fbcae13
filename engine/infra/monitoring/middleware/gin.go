package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/compozy/docchunk/engine/infra/monitoring/metrics"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProblemCodeKey is the gin context key under which error responses record
// their machine-readable code.
const ProblemCodeKey = "docchunk.problem_code"

type httpInstruments struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	inFlight     metric.Int64UpDownCounter
	requestSize  metric.Int64Histogram
	responseSize metric.Int64Histogram
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in   httpInstruments
		err  error
		errs []error
	)
	in.requests, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("http", "requests_total"),
		metric.WithDescription("Total HTTP requests by route, status and problem code"),
	)
	errs = append(errs, err)
	in.duration, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("http", "request_duration_seconds"),
		metric.WithDescription("HTTP request latency"),
		metric.WithExplicitBucketBoundaries(metrics.HTTPDurationBuckets...),
	)
	errs = append(errs, err)
	in.inFlight, err = meter.Int64UpDownCounter(
		metrics.MetricNameWithSubsystem("http", "requests_in_flight"),
		metric.WithDescription("Currently active HTTP requests"),
	)
	errs = append(errs, err)
	in.requestSize, err = meter.Int64Histogram(
		metrics.MetricNameWithSubsystem("http", "request_size_bytes"),
		metric.WithDescription("Upload body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(metrics.HTTPSizeBucketBoundaries...),
	)
	errs = append(errs, err)
	in.responseSize, err = meter.Int64Histogram(
		metrics.MetricNameWithSubsystem("http", "response_size_bytes"),
		metric.WithDescription("Response body size, dominated by chunk listings"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(metrics.HTTPSizeBucketBoundaries...),
	)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &in, nil
}

// HTTPMetrics returns a Gin middleware recording request metrics on meter.
// A nil meter, or one that rejects the instruments, yields a pass-through.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		logger.Error("failed to create http instruments", "error", err)
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		in.inFlight.Add(ctx, 1)
		defer in.inFlight.Add(ctx, -1)
		c.Next()
		in.record(c, time.Since(start))
	}
}

func (in *httpInstruments) record(c *gin.Context, elapsed time.Duration) {
	ctx := c.Request.Context()
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	code := c.GetString(ProblemCodeKey)
	if code == "" {
		code = "none"
	}
	route := metric.WithAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("path", path),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
	)
	in.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("path", path),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		attribute.String("problem_code", code),
	))
	in.duration.Record(ctx, elapsed.Seconds(), route)
	if c.Request.ContentLength > 0 {
		in.requestSize.Record(ctx, c.Request.ContentLength, route)
	}
	if n := c.Writer.Size(); n > 0 {
		in.responseSize.Record(ctx, int64(n), route)
	}
}
