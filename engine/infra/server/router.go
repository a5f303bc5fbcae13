package server

import (
	"context"

	"github.com/compozy/docchunk/engine/infra/server/middleware/ratelimit"
	"github.com/compozy/docchunk/engine/infra/server/middleware/size"
	"github.com/compozy/docchunk/engine/infra/server/routes"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
)

func (s *Server) buildRouter(ctx context.Context) error {
	log := logger.FromContext(ctx)
	r := gin.New()
	r.Use(gin.Recovery())
	monitor := s.deps.Monitoring
	if monitor != nil && monitor.IsInitialized() {
		r.Use(monitor.GinMiddleware())
	}
	r.Use(LoggerMiddleware(log))
	if s.cfg.CORSEnabled {
		r.Use(CORSMiddleware(s.cfg.CORS))
	}
	if rl := s.cfg.RateLimit; rl != nil {
		var (
			manager *ratelimit.Manager
			err     error
		)
		if monitor != nil && monitor.IsInitialized() {
			manager, err = ratelimit.NewManagerWithMetrics(ctx, rl, monitor.Meter())
		} else {
			manager, err = ratelimit.NewManager(rl)
		}
		if err != nil {
			return err
		}
		r.Use(manager.Middleware())
		log.Info("rate limiter initialized",
			"driver", "memory",
			"global_limit", rl.GlobalRate.Limit,
			"global_period", rl.GlobalRate.Period)
	}
	if monitor != nil && monitor.IsInitialized() {
		r.GET(monitor.Path(), gin.WrapH(monitor.ExporterHandler()))
	}
	r.GET("/health", s.health)

	api := r.Group(routes.Base())
	api.GET("/health", s.health)
	api.POST(
		"/documents/upload",
		size.BodySizeLimiter(s.cfg.MaxUploadBytes+uploadOverheadBytes),
		s.uploadDocument,
	)
	api.GET("/documents", s.listDocuments)
	api.GET("/documents/:id", s.getDocument)
	api.GET("/documents/:id/chunks/:chunk_id", s.getChunk)
	api.DELETE("/documents/:id", s.deleteDocument)
	api.GET("/splitters/config", s.splitterConfig)
	api.POST("/splitters/preview", size.BodySizeLimiter(s.cfg.MaxUploadBytes), s.previewSplit)
	api.GET("/stats", s.stats)
	s.router = r
	return nil
}
