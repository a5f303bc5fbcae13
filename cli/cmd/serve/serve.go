package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/compozy/docchunk/cli/cmd"
	"github.com/compozy/docchunk/cli/helpers"
	"github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/engine/infra/monitoring"
	"github.com/compozy/docchunk/engine/infra/server"
	"github.com/compozy/docchunk/engine/infra/server/middleware/ratelimit"
	"github.com/compozy/docchunk/engine/infra/server/routes"
	"github.com/compozy/docchunk/engine/infra/sqlite"
	"github.com/compozy/docchunk/engine/infra/uploads"
	"github.com/compozy/docchunk/engine/pipeline"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/compozy/docchunk/pkg/version"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start", "server"},
		Short:   "Start the document processing HTTP server",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: handleJSON, Text: handleText}, args)
		},
	}
	f := command.Flags()
	f.String("host", "", "Address to listen on")
	f.Int("port", 0, "Port to listen on")
	f.Int64("max-upload-bytes", 0, "Maximum accepted upload size in bytes")
	f.Bool("cors", true, "Enable CORS headers")
	f.String("db-path", "", "SQLite database path or :memory:")
	f.String("upload-dir", "", "Directory holding original uploads")
	f.Bool("metrics", false, "Expose Prometheus metrics")
	f.Bool("rate-limit", false, "Enable per-client rate limiting")
	return command
}

func handleText(ctx context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	if helpers.ShouldUseColor() {
		fmt.Fprintln(c.ErrOrStderr(), helpers.Banner())
	}
	return Run(ctx)
}

func handleJSON(ctx context.Context, _ *cobra.Command, _ helpers.Mode, _ []string) error {
	return Run(ctx)
}

// Run wires storage, the pipeline and the HTTP server from the configuration
// in ctx and serves until an interrupt or ctx is canceled.
func Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)
	gin.SetMode(gin.ReleaseMode)

	store, err := sqlite.NewStore(ctx, &sqlite.Config{
		Path:         cfg.Database.Path,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to close database", "error", err)
		}
	}()
	repo := sqlite.NewDocumentRepo(store.DB())
	files, err := uploads.NewOS(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}
	sp, err := helpers.NewSplitter(cfg)
	if err != nil {
		return err
	}
	processor, err := pipeline.New(
		repo,
		files,
		pipeline.WithExtractor(helpers.NewExtractor(cfg)),
		pipeline.WithSplitter(sp),
		pipeline.WithMaxFileSize(cfg.Extraction.MaxFileSize),
	)
	if err != nil {
		return err
	}
	sweeper, err := pipeline.NewSweeper(repo, cfg.Chunking.SweepSchedule, cfg.Chunking.StaleAfter)
	if err != nil {
		return err
	}
	if _, err := sweeper.Sweep(ctx); err != nil {
		log.Warn("Initial stale document sweep failed", "error", err)
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	mon := monitoring.NewMonitoringServiceWithFallback(ctx, &monitoring.Config{
		Enabled: cfg.Monitoring.Enabled,
		Path:    cfg.Monitoring.Path,
	})
	defer func() {
		if err := mon.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to shut down monitoring", "error", err)
		}
	}()
	if err := mon.Register(ctx, Instrumentation()); err != nil {
		log.Warn("Some component metrics are unavailable", "error", err)
	}

	srv, err := server.NewServer(ctx, ServerConfig(cfg), server.Deps{
		Documents:  processor,
		Repo:       repo,
		Monitoring: mon,
		Defaults:   helpers.SplitterDefaults(cfg),
		Ping:       store.Ping,
		Version:    version.Get().Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Instrumentation lists the components whose instruments the monitoring
// service exports.
func Instrumentation() map[string]monitoring.Instrumentation {
	return map[string]monitoring.Instrumentation{
		"extract":  extract.InitMetrics,
		"pipeline": pipeline.InitMetrics,
		"splitter": splitter.InitMetrics,
	}
}

// ServerConfig maps the server and rate limit sections onto the HTTP layer.
func ServerConfig(cfg *config.Config) server.Config {
	s := cfg.Server
	out := server.Config{
		Host:           s.Host,
		Port:           s.Port,
		MaxUploadBytes: s.MaxUploadBytes,
		CORSEnabled:    s.CORSEnabled,
		CORS: server.CORSConfig{
			AllowedOrigins:   s.AllowedOrigins,
			AllowCredentials: s.AllowCredentials,
			MaxAge:           s.CORSMaxAge,
		},
		ReadTimeout:      s.ReadTimeout,
		WriteTimeout:     s.WriteTimeout,
		IdleTimeout:      s.IdleTimeout,
		ShutdownTimeout:  s.ShutdownTimeout,
		DetailCacheBytes: s.DetailCacheBytes,
	}
	if cfg.RateLimit.Enabled {
		out.RateLimit = RateLimitConfig(&cfg.RateLimit)
	}
	return out
}

// RateLimitConfig builds limiter settings. A zero route limit falls back to
// the global limit.
func RateLimitConfig(rl *config.RateLimitConfig) *ratelimit.Config {
	out := ratelimit.DefaultConfig()
	out.GlobalRate = ratelimit.RateConfig{Limit: rl.GlobalLimit, Period: rl.Period}
	out.RouteRates = map[string]ratelimit.RateConfig{}
	if rl.UploadLimit > 0 {
		out.RouteRates[routes.Upload()] = ratelimit.RateConfig{Limit: rl.UploadLimit, Period: rl.Period}
	}
	if rl.PreviewLimit > 0 {
		out.RouteRates[routes.Preview()] = ratelimit.RateConfig{Limit: rl.PreviewLimit, Period: rl.Period}
	}
	out.DisableHeaders = rl.DisableHeaders
	out.ExcludedPaths = append([]string(nil), rl.ExcludedPaths...)
	return out
}
