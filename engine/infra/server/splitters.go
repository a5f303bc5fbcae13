package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/engine/infra/server/router"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/gin-gonic/gin"
)

type previewRequest struct {
	Text   string          `json:"text"`
	Config json.RawMessage `json:"splitter_config"`
}

type catalogResponse struct {
	splitter.CatalogInfo
	SupportedExtensions []string `json:"supported_extensions"`
}

func (s *Server) splitterConfig(c *gin.Context) {
	c.JSON(http.StatusOK, catalogResponse{
		CatalogInfo:         splitter.Catalog(),
		SupportedExtensions: extract.SupportedExtensions(),
	})
}

func (s *Server) previewSplit(c *gin.Context) {
	var req previewRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			router.RespondError(c, err)
			return
		}
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrBadRequestCode, "invalid JSON body: "+err.Error())
		return
	}
	cfg, err := s.decodeConfig(string(req.Config))
	if err != nil {
		router.RespondProblemWithCode(
			c,
			http.StatusBadRequest,
			router.ErrInvalidConfigCode,
			"invalid splitter configuration: "+err.Error(),
		)
		return
	}
	result, err := s.deps.Documents.Preview(c.Request.Context(), req.Text, cfg)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
