package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/compozy/docchunk/engine/infra/monitoring/metrics"
	"github.com/compozy/docchunk/pkg/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InitSystemMetrics registers the build info and uptime gauges on meter.
// Uptime is measured from the call.
func InitSystemMetrics(ctx context.Context, meter metric.Meter) error {
	info := buildInfo()
	gauge, err := meter.Float64Gauge(
		metrics.MetricName("build_info"),
		metric.WithDescription("Build information (value=1)"),
	)
	if err != nil {
		return fmt.Errorf("create build info gauge: %w", err)
	}
	gauge.Record(ctx, 1, metric.WithAttributes(
		attribute.String("version", info.Version),
		attribute.String("commit_hash", info.CommitHash),
		attribute.String("build_date", info.BuildDate),
		attribute.String("go_version", runtime.Version()),
	))
	uptime, err := meter.Float64ObservableGauge(
		metrics.MetricName("uptime_seconds"),
		metric.WithDescription("Service uptime in seconds"),
	)
	if err != nil {
		return fmt.Errorf("create uptime gauge: %w", err)
	}
	started := time.Now()
	if _, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveFloat64(uptime, time.Since(started).Seconds())
		return nil
	}, uptime); err != nil {
		return fmt.Errorf("register uptime callback: %w", err)
	}
	return nil
}

// buildInfo fills unset ldflags values from the module build info.
func buildInfo() version.Info {
	info := version.Get()
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.CommitHash == "unknown":
			info.CommitHash = s.Value
		case s.Key == "vcs.time" && info.BuildDate == "unknown":
			info.BuildDate = s.Value
		}
	}
	return info
}
