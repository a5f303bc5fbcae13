package serve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/compozy/docchunk/engine/infra/monitoring"
	"github.com/compozy/docchunk/engine/infra/server/routes"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitForTests()
}

func TestServerConfig(t *testing.T) {
	t.Run("Should map the server section", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.Port = 9001
		cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
		got := ServerConfig(cfg)
		assert.Equal(t, "0.0.0.0", got.Host)
		assert.Equal(t, 9001, got.Port)
		assert.Equal(t, cfg.Server.MaxUploadBytes, got.MaxUploadBytes)
		assert.Equal(t, []string{"https://app.example.com"}, got.CORS.AllowedOrigins)
		assert.Equal(t, 86400, got.CORS.MaxAge)
		assert.Equal(t, 5*time.Second, got.ShutdownTimeout)
		assert.Nil(t, got.RateLimit)
	})
	t.Run("Should build rate limits when enabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.RateLimit.Enabled = true
		got := ServerConfig(cfg)
		require.NotNil(t, got.RateLimit)
		require.NoError(t, got.RateLimit.Validate())
		assert.Equal(t, int64(120), got.RateLimit.GlobalRate.Limit)
	})
}

func TestRateLimitConfig(t *testing.T) {
	t.Run("Should set route limits for upload and preview", func(t *testing.T) {
		rl := config.Default().RateLimit
		rl.Period = 30 * time.Second
		got := RateLimitConfig(&rl)
		assert.Equal(t, int64(20), got.RouteRates[routes.Upload()].Limit)
		assert.Equal(t, int64(60), got.RouteRates[routes.Preview()].Limit)
		assert.Equal(t, 30*time.Second, got.RouteRates[routes.Upload()].Period)
		assert.Contains(t, got.ExcludedPaths, "/health")
	})
	t.Run("Should leave zero route limits to the global limit", func(t *testing.T) {
		rl := config.Default().RateLimit
		rl.UploadLimit = 0
		rl.PreviewLimit = 0
		got := RateLimitConfig(&rl)
		assert.Empty(t, got.RouteRates)
	})
}

func TestInstrumentation(t *testing.T) {
	t.Run("Should export splitter metrics through the monitoring service", func(t *testing.T) {
		ctx := t.Context()
		mon, err := monitoring.NewMonitoringService(ctx, &monitoring.Config{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = mon.Shutdown(context.Background()) })
		components := Instrumentation()
		assert.Len(t, components, 3)
		require.NoError(t, mon.Register(ctx, components))

		_, err = splitter.Split(ctx, "alpha beta gamma", splitter.Config{
			ChunkSize:      6,
			SplitterType:   splitter.TypeRecursive,
			LengthFunction: splitter.LengthCharacters,
		})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		mon.ExporterHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Contains(t, w.Body.String(), "docchunk_splitter_chunks")
		assert.Contains(t, w.Body.String(), "docchunk_splitter_duration_seconds")
	})
}
