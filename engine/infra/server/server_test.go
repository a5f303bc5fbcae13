package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/infra/server/routes"
	"github.com/compozy/docchunk/engine/infra/sqlite"
	"github.com/compozy/docchunk/engine/infra/uploads"
	"github.com/compozy/docchunk/engine/pipeline"
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

type testServer struct {
	srv  *Server
	repo *sqlite.DocumentRepo
	fs   afero.Fs
}

func newTestServer(t *testing.T, mutate func(*Config, *Deps)) *testServer {
	t.Helper()
	ctx := t.Context()
	store, err := sqlite.NewStore(ctx, &sqlite.Config{Path: sqlite.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close(context.Background())) })
	repo := sqlite.NewDocumentRepo(store.DB())
	fs := afero.NewMemMapFs()
	proc, err := pipeline.New(repo, uploads.New(fs, "/uploads"))
	require.NoError(t, err)
	cfg := Config{Host: "127.0.0.1", Port: 0, DetailCacheBytes: 1 << 20}
	deps := Deps{Documents: proc, Repo: repo, Ping: store.Ping, Version: "test"}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	srv, err := NewServer(ctx, cfg, deps)
	require.NoError(t, err)
	t.Cleanup(srv.cache.close)
	return &testServer{srv: srv, repo: repo, fs: fs}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) upload(t *testing.T, name, content, cfg string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(uploadRequest(t, name, content, cfg))
}

func uploadRequest(t *testing.T, name, content, cfg string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if cfg != "" {
		require.NoError(t, mw.WriteField("splitter_config", cfg))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, routes.Upload(), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (ts *testServer) mustUpload(t *testing.T, name, content, cfg string) document.Detail {
	t.Helper()
	w := ts.upload(t, name, content, cfg)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[document.Detail](t, w)
}

const sampleText = "Hello world.\n\nThis is a test.\n\nShort."

func TestServer_Upload(t *testing.T) {
	t.Run("Should process an upload with the requested configuration", func(t *testing.T) {
		ts := newTestServer(t, nil)
		detail := ts.mustUpload(t, "notes.txt", sampleText, `{"chunk_size":15,"chunk_overlap":0}`)
		assert.Equal(t, document.StatusCompleted, detail.Status)
		assert.Equal(t, "text/plain", detail.ContentType)
		assert.Equal(t, 3, detail.TotalChunks)
		require.Len(t, detail.Chunks, 3)
		assert.Equal(t, "Hello world.", detail.Chunks[0].Content)
		require.NotNil(t, detail.ChunkingConfig)
		assert.Equal(t, 15, detail.ChunkingConfig.Config.ChunkSize)
	})
	t.Run("Should use the defaults without a splitter configuration", func(t *testing.T) {
		ts := newTestServer(t, nil)
		detail := ts.mustUpload(t, "notes.txt", sampleText, "")
		assert.Equal(t, 1, detail.TotalChunks)
		require.NotNil(t, detail.ChunkingConfig)
		assert.Equal(t, 1000, detail.ChunkingConfig.Config.ChunkSize)
	})
	t.Run("Should accept custom_separators as the separator list", func(t *testing.T) {
		ts := newTestServer(t, nil)
		detail := ts.mustUpload(t, "list.txt", "a|b|c", `{"chunk_size":2,"chunk_overlap":0,"splitter_type":"character","custom_separators":["|"]}`)
		require.NotNil(t, detail.ChunkingConfig)
		assert.Equal(t, []string{"|"}, detail.ChunkingConfig.Config.Separators)
		require.Len(t, detail.Chunks, 3)
		assert.Equal(t, "a", detail.Chunks[0].Content)
	})
	t.Run("Should reject a missing file", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.upload(t, "", "", `{"chunk_size":10}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	})
	t.Run("Should reject malformed configuration JSON", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.upload(t, "notes.txt", sampleText, `{"chunk_size":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_CONFIG")
	})
	t.Run("Should reject an invalid configuration", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.upload(t, "notes.txt", sampleText, `{"chunk_size":10,"chunk_overlap":10}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "INVALID_CONFIG", body["code"])
		assert.Equal(t, "chunk_overlap", body["field"])
	})
	t.Run("Should reject an unsupported extension", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.upload(t, "tool.exe", "MZ", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "UNSUPPORTED_FORMAT", body["code"])
		assert.NotEmpty(t, body["supported_extensions"])
		list := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents(), http.NoBody))
		assert.Equal(t, 0, decode[document.ListResult](t, list).Total)
	})
	t.Run("Should reject a file over the upload limit", func(t *testing.T) {
		ts := newTestServer(t, func(cfg *Config, _ *Deps) { cfg.MaxUploadBytes = 8 })
		w := ts.upload(t, "notes.txt", sampleText, "")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	})
	t.Run("Should report extraction failures with the document id", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.upload(t, "broken.pdf", "not a pdf", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, "EXTRACTION_FAILED", body["code"])
		id, ok := body["document_id"].(string)
		require.True(t, ok)
		doc, err := ts.repo.Get(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, document.StatusFailed, doc.Status)
	})
}

func TestServer_Documents(t *testing.T) {
	t.Run("Should get a document with ordered chunks", func(t *testing.T) {
		ts := newTestServer(t, func(cfg *Config, _ *Deps) { cfg.DetailCacheBytes = 0 })
		created := ts.mustUpload(t, "notes.txt", sampleText, `{"chunk_size":15,"chunk_overlap":0}`)
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"/"+created.ID, http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		detail := decode[document.Detail](t, w)
		require.Len(t, detail.Chunks, 3)
		for i, c := range detail.Chunks {
			assert.Equal(t, i, c.Index)
		}
	})
	t.Run("Should return 404 for an unknown document", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"/missing", http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})
	t.Run("Should get a chunk scoped to its document", func(t *testing.T) {
		ts := newTestServer(t, nil)
		first := ts.mustUpload(t, "a.txt", sampleText, `{"chunk_size":15,"chunk_overlap":0}`)
		second := ts.mustUpload(t, "b.txt", sampleText, "")
		chunkID := first.Chunks[1].ID
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"/"+first.ID+"/chunks/"+chunkID, http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "This is a test.", decode[document.Chunk](t, w).Content)
		w = ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"/"+second.ID+"/chunks/"+chunkID, http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("Should delete a document and its file", func(t *testing.T) {
		ts := newTestServer(t, nil)
		created := ts.mustUpload(t, "notes.txt", sampleText, "")
		// prime the cache
		require.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"/"+created.ID, http.NoBody)).Code)
		w := ts.do(httptest.NewRequest(http.MethodDelete, routes.Documents()+"/"+created.ID, http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Document deleted successfully", decode[map[string]any](t, w)["message"])
		exists, err := afero.Exists(ts.fs, created.FilePath)
		require.NoError(t, err)
		assert.False(t, exists)
		w = ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"/"+created.ID, http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = ts.do(httptest.NewRequest(http.MethodDelete, routes.Documents()+"/"+created.ID, http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_ListDocuments(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, name := range []string{"a.txt", "b.txt", "c.md"} {
		ts.mustUpload(t, name, sampleText, "")
	}
	ts.upload(t, "broken.pdf", "not a pdf", "")

	t.Run("Should page results and report total pages", func(t *testing.T) {
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"?page=2&per_page=3", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[document.ListResult](t, w)
		assert.Equal(t, 4, res.Total)
		assert.Equal(t, 2, res.TotalPages)
		assert.Equal(t, 2, res.Page)
		assert.Len(t, res.Documents, 1)
	})
	t.Run("Should filter by status", func(t *testing.T) {
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"?status=failed", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[document.ListResult](t, w)
		require.Len(t, res.Documents, 1)
		assert.Equal(t, "broken.pdf", res.Documents[0].OriginalFilename)
	})
	t.Run("Should filter by content type", func(t *testing.T) {
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+"?content_type=text/markdown", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[document.ListResult](t, w)
		require.Len(t, res.Documents, 1)
		assert.Equal(t, "c.md", res.Documents[0].OriginalFilename)
	})
	t.Run("Should reject invalid paging and status", func(t *testing.T) {
		for _, q := range []string{"?page=0", "?page=x", "?per_page=101", "?per_page=0", "?status=done"} {
			w := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents()+q, http.NoBody))
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestServer_Splitters(t *testing.T) {
	ts := newTestServer(t, nil)
	t.Run("Should serve the splitter catalogue", func(t *testing.T) {
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Splitters()+"/config", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[map[string]any](t, w)
		assert.Len(t, body["splitter_types"], 3)
		assert.Contains(t, body["supported_extensions"], ".pdf")
	})
	t.Run("Should preview a split without persisting", func(t *testing.T) {
		payload := `{"text":"Hello world.\n\nThis is a test.\n\nShort.","splitter_config":{"chunk_size":15,"chunk_overlap":0}}`
		w := ts.do(httptest.NewRequest(http.MethodPost, routes.Preview(), strings.NewReader(payload)))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[map[string]any](t, w)
		assert.Len(t, body["chunks"], 3)
		list := ts.do(httptest.NewRequest(http.MethodGet, routes.Documents(), http.NoBody))
		assert.Equal(t, 0, decode[document.ListResult](t, list).Total)
	})
	t.Run("Should reject an invalid preview configuration", func(t *testing.T) {
		payload := `{"text":"abc","splitter_config":{"chunk_size":0}}`
		w := ts.do(httptest.NewRequest(http.MethodPost, routes.Preview(), strings.NewReader(payload)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_CONFIG")
	})
	t.Run("Should reject a malformed preview body", func(t *testing.T) {
		w := ts.do(httptest.NewRequest(http.MethodPost, routes.Preview(), strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_Stats(t *testing.T) {
	t.Run("Should report document and chunk totals", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.mustUpload(t, "a.txt", sampleText, `{"chunk_size":15,"chunk_overlap":0}`)
		ts.mustUpload(t, "b.txt", sampleText, "")
		w := ts.do(httptest.NewRequest(http.MethodGet, routes.Stats(), http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		st := decode[document.Stats](t, w)
		assert.Equal(t, 2, st.TotalDocuments)
		assert.Equal(t, 4, st.TotalChunks)
		assert.InDelta(t, 2.0, st.AverageChunksPerDocument, 0.001)
		assert.Equal(t, 2, st.ByStatus[document.StatusCompleted])
		assert.Equal(t, 2, st.ByContentType["text/plain"])
	})
}

func TestServer_Health(t *testing.T) {
	t.Run("Should report ok when storage answers", func(t *testing.T) {
		ts := newTestServer(t, nil)
		for _, path := range []string{"/health", routes.HealthVersioned()} {
			w := ts.do(httptest.NewRequest(http.MethodGet, path, http.NoBody))
			require.Equal(t, http.StatusOK, w.Code)
			body := decode[map[string]any](t, w)
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, "test", body["version"])
		}
	})
	t.Run("Should report unavailable when storage fails", func(t *testing.T) {
		ts := newTestServer(t, func(_ *Config, deps *Deps) {
			deps.Ping = func(context.Context) error { return errors.New("disk gone") }
		})
		w := ts.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unavailable", decode[map[string]any](t, w)["status"])
	})
}

func TestNewServer(t *testing.T) {
	t.Run("Should require documents and repository", func(t *testing.T) {
		_, err := NewServer(t.Context(), Config{}, Deps{})
		assert.Error(t, err)
	})
}
