package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Run("Should provide valid defaults", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, NewService().Validate(cfg))
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
		assert.Equal(t, 200, cfg.Chunking.ChunkOverlap)
		assert.Equal(t, "recursive", cfg.Chunking.SplitterType)
		assert.Equal(t, "character_count", cfg.Chunking.LengthFunction)
		assert.Equal(t, 1000, cfg.Extraction.MaxRows)
		assert.Equal(t, "/metrics", cfg.Monitoring.Path)
	})
}

func TestLoader_Validate(t *testing.T) {
	service := NewService()
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"Should reject overlap not below size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }, "ChunkOverlap"},
		{"Should reject an unknown splitter type", func(c *Config) { c.Chunking.SplitterType = "semantic" }, "SplitterType"},
		{"Should reject an unknown length function", func(c *Config) { c.Chunking.LengthFunction = "words" }, "LengthFunction"},
		{"Should reject an invalid port", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"Should reject an unknown log level", func(c *Config) { c.Runtime.LogLevel = "verbose" }, "LogLevel"},
		{"Should reject a relative metrics path", func(c *Config) { c.Monitoring.Path = "metrics" }, "Path"},
		{"Should reject a short rate period", func(c *Config) { c.RateLimit.Period = time.Millisecond }, "Period"},
		{
			"Should reject a file limit above the upload limit",
			func(c *Config) { c.Extraction.MaxFileSize = c.Server.MaxUploadBytes + 1 },
			"max_file_size",
		},
		{
			"Should reject credentials with a wildcard origin",
			func(c *Config) { c.Server.AllowCredentials = true },
			"allow_credentials",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := service.Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
	t.Run("Should accept length function aliases in any case", func(t *testing.T) {
		cfg := Default()
		cfg.Chunking.LengthFunction = "TikToken"
		assert.NoError(t, service.Validate(cfg))
	})
	t.Run("Should reject nil", func(t *testing.T) {
		assert.Error(t, service.Validate(nil))
	})
}

func TestContext(t *testing.T) {
	t.Run("Should return the attached configuration", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Port = 9100
		ctx := ContextWithConfig(context.Background(), cfg)
		assert.Same(t, cfg, FromContext(ctx))
	})
	t.Run("Should fall back to defaults", func(t *testing.T) {
		assert.Equal(t, Default().Server.Port, FromContext(context.Background()).Server.Port)
	})
}
