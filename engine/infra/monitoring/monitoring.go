package monitoring

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/compozy/docchunk/engine/infra/monitoring/middleware"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Service owns the meter provider and the Prometheus exporter
type Service struct {
	meter             metric.Meter
	exporter          *prometheus.Exporter
	provider          *sdkmetric.MeterProvider
	registry          *prom.Registry
	config            *Config
	initialized       bool
	initializationErr error
}

func newDisabledService(cfg *Config, initErr error) *Service {
	return &Service{
		config:            cfg,
		meter:             noop.NewMeterProvider().Meter("docchunk"),
		initialized:       false,
		initializationErr: initErr,
	}
}

// NewMonitoringService creates a new monitoring service with Prometheus exporter
func NewMonitoringService(ctx context.Context, cfg *Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg, nil), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("docchunk")
	service := &Service{
		meter:       meter,
		exporter:    exporter,
		provider:    provider,
		registry:    registry,
		config:      cfg,
		initialized: true,
	}
	if err := InitSystemMetrics(ctx, meter); err != nil {
		log.Warn("System metrics unavailable", "error", err)
	}
	log.Info("Monitoring service initialized successfully")
	return service, nil
}

// Meter returns the OpenTelemetry meter for custom instrumentation
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// Path is the route the exporter is mounted on.
func (s *Service) Path() string {
	return s.config.Path
}

// GinMiddleware returns Gin middleware for HTTP metrics
func (s *Service) GinMiddleware() gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return middleware.HTTPMetrics(s.meter)
}

// ExporterHandler returns an HTTP handler for the metrics endpoint
func (s *Service) ExporterHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("Monitoring service not initialized")); err != nil {
				log := logger.FromContext(r.Context())
				log.Error("Failed to write response", "error", err)
			}
			return
		}
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// Shutdown flushes and stops the meter provider
func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}

// IsInitialized returns whether the monitoring service was successfully initialized
func (s *Service) IsInitialized() bool {
	return s.initialized
}

// InitializationError returns any error that occurred during initialization
func (s *Service) InitializationError() error {
	return s.initializationErr
}

// Instrumentation creates a component's instruments on the given meter.
type Instrumentation func(meter metric.Meter) error

// Register binds each component's instruments to the service meter, so they
// are exported on the metrics path. A disabled service binds no-op
// instruments. All components are attempted; failures are joined.
func (s *Service) Register(ctx context.Context, components map[string]Instrumentation) error {
	log := logger.FromContext(ctx)
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(components)) {
		if err := components[name](s.meter); err != nil {
			log.Warn("Failed to register component metrics", "component", name, "error", err)
			errs = append(errs, fmt.Errorf("%s metrics: %w", name, err))
			continue
		}
		log.Debug("Component metrics registered", "component", name, "exported", s.initialized)
	}
	return errors.Join(errs...)
}

// NewMonitoringServiceWithFallback returns a no-op service and logs the error
// when initialization fails.
func NewMonitoringServiceWithFallback(ctx context.Context, cfg *Config) *Service {
	log := logger.FromContext(ctx)
	service, err := NewMonitoringService(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize monitoring, using no-op implementation", "error", err)
		return newDisabledService(cfg, err)
	}
	return service
}
