package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/infra/monitoring"
	"github.com/compozy/docchunk/engine/infra/server/middleware/ratelimit"
	"github.com/compozy/docchunk/engine/pipeline"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	httpReadTimeout       = 15 * time.Second
	httpWriteTimeout      = 60 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 5 * time.Second
	defaultMaxUploadBytes = 50 << 20
	// multipart framing allowance on top of the file limit
	uploadOverheadBytes = 1 << 20
)

// Config holds the HTTP surface settings.
type Config struct {
	Host            string
	Port            int
	MaxUploadBytes  int64
	CORS            CORSConfig
	CORSEnabled     bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// RateLimit is nil when rate limiting is disabled.
	RateLimit *ratelimit.Config
	// DetailCacheBytes bounds the terminal document cache; zero disables it.
	DetailCacheBytes int64
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Documents is the document workflow the routes drive.
type Documents interface {
	Process(ctx context.Context, up pipeline.Upload) (*document.Detail, error)
	Detail(ctx context.Context, id string) (*document.Detail, error)
	Delete(ctx context.Context, id string) error
	Preview(ctx context.Context, text string, cfg splitter.Config) (*splitter.Result, error)
}

// Deps are the collaborators the server is built from.
type Deps struct {
	Documents  Documents
	Repo       document.Repository
	Monitoring *monitoring.Service
	// Defaults is the chunking configuration uploads start from.
	Defaults splitter.Config
	// Ping reports storage health; nil means always healthy.
	Ping    func(ctx context.Context) error
	Version string
}

type Server struct {
	cfg    Config
	deps   Deps
	router *gin.Engine
	cache  *detailCache
}

func NewServer(ctx context.Context, cfg Config, deps Deps) (*Server, error) {
	if deps.Documents == nil || deps.Repo == nil {
		return nil, errors.New("server: documents and repository are required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if deps.Defaults.ChunkSize == 0 {
		deps.Defaults = splitter.DefaultConfig()
	}
	cache, err := newDetailCache(cfg.DetailCacheBytes)
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, deps: deps, cache: cache}
	if err := s.buildRouter(ctx); err != nil {
		cache.close()
		return nil, err
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	srv := s.createHTTPServer(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Shutting down HTTP server")
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = serverShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		log.Info("Server shutdown completed successfully")
		return nil
	})
	err := g.Wait()
	s.cache.close()
	return err
}

func (s *Server) createHTTPServer(ctx context.Context) *http.Server {
	return &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadTimeout:       orDefault(s.cfg.ReadTimeout, httpReadTimeout),
		ReadHeaderTimeout: orDefault(s.cfg.ReadTimeout, httpReadTimeout),
		WriteTimeout:      orDefault(s.cfg.WriteTimeout, httpWriteTimeout),
		IdleTimeout:       orDefault(s.cfg.IdleTimeout, httpIdleTimeout),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
