package extract

import (
	"testing"

	"github.com/compozy/docchunk/cli/helpers"
	docextract "github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitForTests()
}

func TestRun(t *testing.T) {
	t.Run("Should extract a text file with metadata", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/notes.txt", []byte("Hello world."), 0o644))
		res, err := Run(t.Context(), fs, "/notes.txt")
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", res.File)
		assert.Equal(t, "text/plain", res.ContentType)
		assert.Equal(t, docextract.FormatText, res.Format)
		assert.Equal(t, "Hello world.", res.Text)
		assert.Equal(t, 12, res.ContentLength)
		assert.NotNil(t, res.Metadata)
	})
	t.Run("Should render CSV rows", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/data.csv", []byte("name,age\nada,36\n"), 0o644))
		res, err := Run(t.Context(), fs, "/data.csv")
		require.NoError(t, err)
		assert.Equal(t, docextract.FormatDelimited, res.Format)
		assert.Contains(t, res.Text, "ada")
	})
	t.Run("Should honor the configured size limit", func(t *testing.T) {
		cfg := config.Default()
		cfg.Extraction.MaxFileSize = 4
		ctx := config.ContextWithConfig(t.Context(), cfg)
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/notes.txt", []byte("Hello world."), 0o644))
		_, err := Run(ctx, fs, "/notes.txt")
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "FILE_TOO_LARGE", cliErr.Code)
	})
	t.Run("Should report extraction failures", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/broken.pdf", []byte("not a pdf"), 0o644))
		_, err := Run(t.Context(), fs, "/broken.pdf")
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "EXTRACTION_FAILED", cliErr.Code)
	})
}
