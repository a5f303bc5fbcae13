package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/compozy/docchunk/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := RootCmd()
	root.SetContext(context.Background())
	cmd, rest, err := root.Find(args)
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(rest))
	return cmd
}

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should load YAML and let flags override it", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "docchunk.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte(`
chunking:
  chunk_size: 500
  chunk_overlap: 50
server:
  port: 9000
`), 0o600))
		cmd := setupCommand(t, "split", "--config", cfgPath, "--env-file", "", "--chunk-size", "800")
		require.NoError(t, SetupGlobalConfig(cmd))
		cfg := config.FromContext(cmd.Context())
		assert.Equal(t, 800, cfg.Chunking.ChunkSize)
		assert.Equal(t, 50, cfg.Chunking.ChunkOverlap)
		assert.Equal(t, 9000, cfg.Server.Port)
	})
	t.Run("Should use defaults when the config file is missing", func(t *testing.T) {
		cmd := setupCommand(t, "formats", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--env-file", "")
		require.NoError(t, SetupGlobalConfig(cmd))
		cfg := config.FromContext(cmd.Context())
		assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	})
	t.Run("Should load variables from the env file", func(t *testing.T) {
		dir := t.TempDir()
		envPath := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envPath, []byte("DOCCHUNK_SERVER_PORT=9100\n"), 0o600))
		t.Setenv("DOCCHUNK_SERVER_PORT", "")
		require.NoError(t, os.Unsetenv("DOCCHUNK_SERVER_PORT"))
		cmd := setupCommand(t, "serve", "--config", filepath.Join(dir, "none.yaml"), "--env-file", envPath)
		require.NoError(t, SetupGlobalConfig(cmd))
		assert.Equal(t, 9100, config.FromContext(cmd.Context()).Server.Port)
	})
	t.Run("Should map persistent client flags", func(t *testing.T) {
		cmd := setupCommand(
			t, "stats",
			"--config", filepath.Join(t.TempDir(), "none.yaml"),
			"--env-file", "",
			"--server-url", "http://docs.internal:8080",
			"--timeout", "30s",
			"--format", "json",
		)
		require.NoError(t, SetupGlobalConfig(cmd))
		cfg := config.FromContext(cmd.Context())
		assert.Equal(t, "http://docs.internal:8080", cfg.CLI.ServerURL)
		assert.Equal(t, 30*time.Second, cfg.CLI.Timeout)
		assert.Equal(t, "json", cfg.CLI.Format)
	})
	t.Run("Should fail on invalid flag values", func(t *testing.T) {
		cmd := setupCommand(
			t, "split",
			"--config", filepath.Join(t.TempDir(), "none.yaml"),
			"--env-file", "",
			"--chunk-size", "100",
		)
		err := SetupGlobalConfig(cmd)
		require.ErrorContains(t, err, "failed to load configuration")
	})
}

func TestRootCmd(t *testing.T) {
	t.Run("Should register every command", func(t *testing.T) {
		root := RootCmd()
		for _, name := range []string{"serve", "extract", "split", "formats", "documents", "stats", "health", "version"} {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		}
	})
}
