package router

import (
	"encoding/json"
	"net/http"

	"github.com/compozy/docchunk/engine/infra/monitoring/middleware"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RespondProblem writes a canonical RFC 7807 error response.
func RespondProblem(c *gin.Context, problem *Problem) {
	if problem.Status == 0 {
		problem.Status = http.StatusInternalServerError
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}
	if problem.Type == "" {
		problem.Type = "about:blank"
	}
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	writeProblemResponse(c, problem)
}

// RespondProblemWithCode writes a problem response embedding a code and detail.
func RespondProblemWithCode(c *gin.Context, status int, code string, detail string) {
	RespondProblem(c, &Problem{
		Status: status,
		Title:  http.StatusText(status),
		Detail: detail,
		Code:   code,
	})
}

// RespondError maps err onto its problem response.
func RespondError(c *gin.Context, err error) {
	RespondProblem(c, ProblemFor(err))
}

func writeProblemResponse(c *gin.Context, problem *Problem) {
	logProblem(c, problem)
	if problem.Code != "" {
		c.Set(middleware.ProblemCodeKey, problem.Code)
	}
	payload, err := json.Marshal(problem.body())
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("failed to marshal problem", "err", err)
		fallback := []byte(`{"status":500,"title":"Internal Server Error"}`)
		c.Data(http.StatusInternalServerError, problemContentType, fallback)
		c.Abort()
		return
	}
	c.Data(problem.Status, problemContentType, payload)
	c.Abort()
}

func logProblem(c *gin.Context, problem *Problem) {
	log := logger.FromContext(c.Request.Context())
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := []any{
		"status", problem.Status,
		"title", problem.Title,
		"detail", problem.Detail,
		"route", route,
		"path", c.Request.URL.Path,
	}
	if problem.Code != "" {
		fields = append(fields, "code", problem.Code)
	}
	if requestID := c.Request.Header.Get("X-Request-ID"); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if problem.Status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Warn("request failed", fields...)
}
