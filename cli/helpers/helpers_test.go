package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFor(t *testing.T) {
	t.Run("Should honor explicit formats", func(t *testing.T) {
		assert.Equal(t, ModeJSON, ModeFor("json", true))
		assert.Equal(t, ModeText, ModeFor("text", false))
	})
	t.Run("Should pick text only on interactive terminals in auto mode", func(t *testing.T) {
		assert.Equal(t, ModeText, ModeFor("auto", true))
		assert.Equal(t, ModeJSON, ModeFor("auto", false))
		assert.Equal(t, ModeJSON, ModeFor("", false))
	})
}

func TestIsRunningInCI(t *testing.T) {
	t.Run("Should detect CI environment variables", func(t *testing.T) {
		t.Setenv("GITHUB_ACTIONS", "true")
		assert.True(t, isRunningInCI())
		assert.False(t, isInteractiveEnvironment())
	})
}

func TestFormatError(t *testing.T) {
	t.Run("Should render CLI errors as JSON with their code", func(t *testing.T) {
		out := FormatError(NewCliError("FILE_NOT_FOUND", "cannot read input file", "missing.txt"), ModeJSON)
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &body))
		assert.Equal(t, "FILE_NOT_FOUND", body["code"])
		assert.Equal(t, "cannot read input file", body["error"])
		assert.Equal(t, "missing.txt", body["details"])
	})
	t.Run("Should render plain errors as JSON without a code", func(t *testing.T) {
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(FormatError(errors.New("boom"), ModeJSON)), &body))
		assert.Equal(t, "boom", body["error"])
		assert.NotContains(t, body, "code")
	})
	t.Run("Should include the message and details in text mode", func(t *testing.T) {
		out := FormatError(NewCliError("X", "something failed", "why"), ModeText)
		assert.Contains(t, out, "something failed")
		assert.Contains(t, out, "why")
	})
	t.Run("Should write nothing for a nil error", func(t *testing.T) {
		var buf bytes.Buffer
		OutputError(&buf, nil, ModeJSON)
		assert.Empty(t, buf.String())
	})
}

func TestCliError(t *testing.T) {
	t.Run("Should format code, message and details", func(t *testing.T) {
		err := NewCliError("INVALID_INPUT", "input is a directory", "/tmp")
		assert.Equal(t, "INVALID_INPUT: input is a directory (/tmp)", err.Error())
	})
	t.Run("Should collect context values", func(t *testing.T) {
		err := NewCliError("HTTP_404", "Not Found").WithContext("status", 404)
		assert.Equal(t, 404, err.Context["status"])
	})
}

func TestIsNetworkError(t *testing.T) {
	t.Run("Should match connection failures", func(t *testing.T) {
		assert.True(t, IsNetworkError(errors.New("dial tcp: connection refused")))
		assert.False(t, IsNetworkError(errors.New("bad input")))
		assert.False(t, IsNetworkError(nil))
	})
}

func TestReadInputFile(t *testing.T) {
	t.Run("Should read a file and resolve its content type", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/docs/notes.md", []byte("# Title"), 0o644))
		in, err := ReadInputFile(fs, "/docs/notes.md", 0)
		require.NoError(t, err)
		assert.Equal(t, "notes.md", in.Name)
		assert.Equal(t, "text/markdown", in.ContentType)
		assert.Equal(t, []byte("# Title"), in.Data)
	})
	t.Run("Should report a missing file", func(t *testing.T) {
		_, err := ReadInputFile(afero.NewMemMapFs(), "/nope.txt", 0)
		var cliErr *CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "FILE_NOT_FOUND", cliErr.Code)
	})
	t.Run("Should reject directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/docs", 0o755))
		_, err := ReadInputFile(fs, "/docs", 0)
		var cliErr *CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "INVALID_INPUT", cliErr.Code)
	})
	t.Run("Should reject files over the limit", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/big.txt", []byte("0123456789"), 0o644))
		_, err := ReadInputFile(fs, "/big.txt", 5)
		var cliErr *CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "FILE_TOO_LARGE", cliErr.Code)
	})
}

func TestSplitterDefaults(t *testing.T) {
	t.Run("Should map the chunking section", func(t *testing.T) {
		cfg := config.Default()
		cfg.Chunking.ChunkSize = 300
		cfg.Chunking.ChunkOverlap = 30
		cfg.Chunking.SplitterType = "Character"
		cfg.Chunking.LengthFunction = "len"
		cfg.Chunking.Separators = []string{"|"}
		got := SplitterDefaults(cfg)
		assert.Equal(t, 300, got.ChunkSize)
		assert.Equal(t, 30, got.ChunkOverlap)
		assert.Equal(t, splitter.TypeCharacter, got.SplitterType)
		assert.Equal(t, splitter.LengthCharacters, got.LengthFunction)
		assert.Equal(t, []string{"|"}, got.Separators)
		assert.True(t, got.StripWhitespace)
	})
	t.Run("Should not share the separators slice", func(t *testing.T) {
		cfg := config.Default()
		cfg.Chunking.Separators = []string{"a"}
		got := SplitterDefaults(cfg)
		got.Separators[0] = "b"
		assert.Equal(t, "a", cfg.Chunking.Separators[0])
	})
}

func TestNewSplitter(t *testing.T) {
	t.Run("Should build a splitter for the default encoding", func(t *testing.T) {
		sp, err := NewSplitter(config.Default())
		require.NoError(t, err)
		res, err := sp.Split(t.Context(), "a b c", SplitterDefaults(config.Default()))
		require.NoError(t, err)
		require.Len(t, res.Chunks, 1)
	})
}

func TestPreview(t *testing.T) {
	t.Run("Should collapse whitespace", func(t *testing.T) {
		assert.Equal(t, "a b c", Preview("a\n\n b\tc"))
	})
	t.Run("Should truncate long content", func(t *testing.T) {
		long := make([]byte, 200)
		for i := range long {
			long[i] = 'x'
		}
		got := []rune(Preview(string(long)))
		assert.Len(t, got, previewRunes)
		assert.Equal(t, '…', got[len(got)-1])
	})
}
