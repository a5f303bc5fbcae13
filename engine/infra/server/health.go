package server

import (
	"net/http"

	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	statusHealthy   = "ok"
	statusUnhealthy = "unavailable"
)

func (s *Server) health(c *gin.Context) {
	status := statusHealthy
	code := http.StatusOK
	database := gin.H{"ready": true}
	if s.deps.Ping != nil {
		if err := s.deps.Ping(c.Request.Context()); err != nil {
			logger.FromContext(c.Request.Context()).Warn("Health check failed", "error", err)
			status = statusUnhealthy
			code = http.StatusServiceUnavailable
			database = gin.H{"ready": false, "error": err.Error()}
		}
	}
	c.JSON(code, gin.H{
		"status":   status,
		"version":  s.deps.Version,
		"database": database,
	})
}
