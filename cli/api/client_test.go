package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/infra/server"
	"github.com/compozy/docchunk/engine/infra/sqlite"
	"github.com/compozy/docchunk/engine/infra/uploads"
	"github.com/compozy/docchunk/engine/pipeline"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitForTests()
	gin.SetMode(gin.TestMode)
}

const sampleText = "Hello world.\n\nThis is a test.\n\nShort."

func newTestClient(t *testing.T, ping func(context.Context) error) *Client {
	t.Helper()
	ctx := t.Context()
	store, err := sqlite.NewStore(ctx, &sqlite.Config{Path: sqlite.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close(context.Background())) })
	repo := sqlite.NewDocumentRepo(store.DB())
	proc, err := pipeline.New(repo, uploads.New(afero.NewMemMapFs(), "/uploads"))
	require.NoError(t, err)
	if ping == nil {
		ping = store.Ping
	}
	srv, err := server.NewServer(ctx, server.Config{Host: "127.0.0.1"}, server.Deps{
		Documents: proc,
		Repo:      repo,
		Ping:      ping,
		Version:   "test",
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	cfg := config.Default()
	cfg.CLI.ServerURL = ts.URL
	cfg.CLI.Timeout = 10 * time.Second
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func smallChunks() *splitter.Config {
	cfg := splitter.DefaultConfig()
	cfg.ChunkSize = 15
	cfg.ChunkOverlap = 0
	return &cfg
}

func TestNewClient(t *testing.T) {
	t.Run("Should reject a missing configuration", func(t *testing.T) {
		_, err := NewClient(nil)
		require.Error(t, err)
	})
	t.Run("Should reject a non-http server URL", func(t *testing.T) {
		cfg := config.Default()
		cfg.CLI.ServerURL = "ftp://example.com"
		_, err := NewClient(cfg)
		require.ErrorContains(t, err, "scheme")
	})
	t.Run("Should strip a trailing slash from the server URL", func(t *testing.T) {
		base, err := baseURL("http://localhost:8000/")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000", base)
	})
}

func TestClient_Documents(t *testing.T) {
	t.Run("Should upload, fetch, list and delete a document", func(t *testing.T) {
		c := newTestClient(t, nil)
		ctx := t.Context()
		detail, err := c.Upload(ctx, "notes.txt", []byte(sampleText), smallChunks())
		require.NoError(t, err)
		assert.Equal(t, document.StatusCompleted, detail.Status)
		require.Len(t, detail.Chunks, 3)

		got, err := c.Get(ctx, detail.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello world.", got.Chunks[0].Content)

		list, err := c.List(ctx, ListOptions{Page: 1, PerPage: 5, Status: "completed"})
		require.NoError(t, err)
		assert.Equal(t, 1, list.Total)
		require.Len(t, list.Documents, 1)
		assert.Equal(t, detail.ID, list.Documents[0].ID)

		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalDocuments)
		assert.Equal(t, 3, stats.TotalChunks)

		require.NoError(t, c.Delete(ctx, detail.ID))
		_, err = c.Get(ctx, detail.ID)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "NOT_FOUND", apiErr.Code)
	})
	t.Run("Should use server defaults when no configuration is sent", func(t *testing.T) {
		c := newTestClient(t, nil)
		detail, err := c.Upload(t.Context(), "notes.txt", []byte(sampleText), nil)
		require.NoError(t, err)
		require.Len(t, detail.Chunks, 1)
		assert.Equal(t, 1000, detail.ChunkingConfig.Config.ChunkSize)
	})
	t.Run("Should decode problem extras for unsupported formats", func(t *testing.T) {
		c := newTestClient(t, nil)
		_, err := c.Upload(t.Context(), "tool.exe", []byte("MZ"), nil)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "UNSUPPORTED_FORMAT", apiErr.Code)
		assert.Contains(t, apiErr.Extras, "supported_extensions")
	})
	t.Run("Should report invalid list filters", func(t *testing.T) {
		c := newTestClient(t, nil)
		_, err := c.List(t.Context(), ListOptions{Status: "bogus"})
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	})
}

func TestClient_Health(t *testing.T) {
	t.Run("Should report a ready server", func(t *testing.T) {
		c := newTestClient(t, nil)
		h, err := c.Health(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "ok", h.Status)
		assert.Equal(t, "test", h.Version)
		assert.True(t, h.Database.Ready)
	})
	t.Run("Should return the report of an unavailable server", func(t *testing.T) {
		c := newTestClient(t, func(context.Context) error { return assert.AnError })
		h, err := c.Health(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "unavailable", h.Status)
		assert.False(t, h.Database.Ready)
		assert.NotEmpty(t, h.Database.Error)
	})
}

func TestError(t *testing.T) {
	t.Run("Should prefer detail over title", func(t *testing.T) {
		err := &Error{Status: 404, Title: "Not Found", Detail: "document or chunk not found", Code: "NOT_FOUND"}
		assert.Equal(t, "document or chunk not found (404 NOT_FOUND)", err.Error())
	})
	t.Run("Should fall back to the title", func(t *testing.T) {
		err := &Error{Status: 500, Title: "Internal Server Error"}
		assert.Equal(t, "Internal Server Error (500)", err.Error())
	})
}
