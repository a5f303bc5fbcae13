package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/infra/server/router"
	"github.com/compozy/docchunk/engine/pipeline"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/gin-gonic/gin"
)

const (
	formFile           = "file"
	formSplitterConfig = "splitter_config"
)

// uploadConfig is the splitter_config form field. custom_separators is the
// older name for separators.
type uploadConfig struct {
	splitter.Config
	CustomSeparators []string `json:"custom_separators"`
}

func (s *Server) decodeConfig(raw string) (splitter.Config, error) {
	in := uploadConfig{Config: s.deps.Defaults.Clone()}
	if strings.TrimSpace(raw) == "" {
		return in.Config, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&in); err != nil {
		return splitter.Config{}, err
	}
	if len(in.Separators) == 0 && len(in.CustomSeparators) > 0 {
		in.Separators = in.CustomSeparators
	}
	return in.Config, nil
}

func (s *Server) uploadDocument(c *gin.Context) {
	header, err := c.FormFile(formFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			router.RespondError(c, err)
			return
		}
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrBadRequestCode, "file is required")
		return
	}
	if header.Filename == "" {
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrBadRequestCode, "file name is required")
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		router.RespondProblemWithCode(
			c,
			http.StatusRequestEntityTooLarge,
			router.ErrPayloadTooLargeCode,
			fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes),
		)
		return
	}
	cfg, err := s.decodeConfig(c.PostForm(formSplitterConfig))
	if err != nil {
		router.RespondProblemWithCode(
			c,
			http.StatusBadRequest,
			router.ErrInvalidConfigCode,
			"invalid splitter configuration: "+err.Error(),
		)
		return
	}
	f, err := header.Open()
	if err != nil {
		router.RespondError(c, fmt.Errorf("server: open upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		router.RespondError(c, fmt.Errorf("server: read upload: %w", err))
		return
	}
	detail, err := s.deps.Documents.Process(c.Request.Context(), pipeline.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Config:      cfg,
	})
	if err != nil {
		router.RespondError(c, err)
		return
	}
	s.cache.set(detail)
	c.JSON(http.StatusCreated, detail)
}

func (s *Server) listDocuments(c *gin.Context) {
	filter := document.ListFilter{ContentType: c.Query("content_type")}
	var err error
	if filter.Page, err = queryInt(c, "page", 1); err != nil || filter.Page < 1 {
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrBadRequestCode, "page must be a positive integer")
		return
	}
	filter.PerPage, err = queryInt(c, "per_page", document.DefaultPerPage)
	if err != nil || filter.PerPage < 1 || filter.PerPage > document.MaxPerPage {
		router.RespondProblemWithCode(
			c,
			http.StatusBadRequest,
			router.ErrBadRequestCode,
			fmt.Sprintf("per_page must be between 1 and %d", document.MaxPerPage),
		)
		return
	}
	if raw := c.Query("status"); raw != "" {
		if filter.Status, err = document.ParseStatus(raw); err != nil {
			router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrBadRequestCode, err.Error())
			return
		}
	}
	result, err := s.deps.Repo.List(c.Request.Context(), filter)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getDocument(c *gin.Context) {
	id := c.Param("id")
	if detail, ok := s.cache.get(id); ok {
		c.JSON(http.StatusOK, detail)
		return
	}
	detail, err := s.deps.Documents.Detail(c.Request.Context(), id)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	s.cache.set(detail)
	c.JSON(http.StatusOK, detail)
}

func (s *Server) getChunk(c *gin.Context) {
	chunk, err := s.deps.Repo.GetChunk(c.Request.Context(), c.Param("id"), c.Param("chunk_id"))
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chunk)
}

func (s *Server) deleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := s.deps.Documents.Delete(c.Request.Context(), id); err != nil {
		router.RespondError(c, err)
		return
	}
	s.cache.del(id)
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully", "id": id})
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.deps.Repo.Stats(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
