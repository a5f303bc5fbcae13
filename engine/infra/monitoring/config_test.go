package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Run("Should return config with default values", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NotNil(t, cfg)
		assert.False(t, cfg.Enabled)
		assert.Equal(t, "/metrics", cfg.Path)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "Should accept default path", path: "/metrics"},
		{name: "Should accept nested path", path: "/ops/metrics"},
		{name: "Should reject empty path", path: "", wantErr: "cannot be empty"},
		{name: "Should reject relative path", path: "metrics", wantErr: "must start with '/'"},
		{name: "Should reject API path", path: "/api/metrics", wantErr: "cannot be under /api/"},
		{name: "Should reject query parameters", path: "/metrics?x=1", wantErr: "query parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Enabled: true, Path: tt.path}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
