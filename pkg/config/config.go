package config

import (
	"context"
	"time"
)

// Config represents the complete configuration of the docchunk service and CLI.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Storage    StorageConfig    `koanf:"storage"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Chunking   ChunkingConfig   `koanf:"chunking"`
	Runtime    RuntimeConfig    `koanf:"runtime"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	CLI        CLIConfig        `koanf:"cli"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host             string        `koanf:"host"               validate:"required"`
	Port             int           `koanf:"port"               validate:"min=1,max=65535"`
	MaxUploadBytes   int64         `koanf:"max_upload_bytes"   validate:"min=1"`
	DetailCacheBytes int64         `koanf:"detail_cache_bytes" validate:"min=0"`
	CORSEnabled      bool          `koanf:"cors_enabled"`
	AllowedOrigins   []string      `koanf:"allowed_origins"`
	AllowCredentials bool          `koanf:"allow_credentials"`
	CORSMaxAge       int           `koanf:"cors_max_age"       validate:"min=0"`
	ReadTimeout      time.Duration `koanf:"read_timeout"       validate:"min=0"`
	WriteTimeout     time.Duration `koanf:"write_timeout"      validate:"min=0"`
	IdleTimeout      time.Duration `koanf:"idle_timeout"       validate:"min=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"   validate:"min=0"`
}

// DatabaseConfig contains SQLite connection configuration.
type DatabaseConfig struct {
	Path         string        `koanf:"path"           validate:"required"`
	BusyTimeout  time.Duration `koanf:"busy_timeout"   validate:"min=0"`
	MaxOpenConns int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns int           `koanf:"max_idle_conns" validate:"min=0"`
}

// StorageConfig contains original-file storage configuration.
type StorageConfig struct {
	UploadDir string `koanf:"upload_dir" validate:"required"`
}

// ExtractionConfig controls text extraction.
type ExtractionConfig struct {
	MaxRows     int   `koanf:"max_rows"      validate:"min=1"`
	MaxFileSize int64 `koanf:"max_file_size" validate:"min=1"`
	StripHTML   bool  `koanf:"strip_html"`
}

// ChunkingConfig holds the splitter defaults applied when a request does not
// override them.
type ChunkingConfig struct {
	ChunkSize         int           `koanf:"chunk_size"         validate:"min=1"`
	ChunkOverlap      int           `koanf:"chunk_overlap"      validate:"min=0,ltfield=ChunkSize"`
	SplitterType      string        `koanf:"splitter_type"      validate:"splitter_type"`
	LengthFunction    string        `koanf:"length_function"    validate:"length_function"`
	Separators        []string      `koanf:"separators"`
	KeepSeparator     bool          `koanf:"keep_separator"`
	StripWhitespace   bool          `koanf:"strip_whitespace"`
	TrackOffsets      bool          `koanf:"track_offsets"`
	TokenizerEncoding string        `koanf:"tokenizer_encoding" validate:"required"`
	SweepSchedule     string        `koanf:"sweep_schedule"     validate:"required"`
	StaleAfter        time.Duration `koanf:"stale_after"        validate:"min=1s"`
}

// RuntimeConfig contains logging behavior.
type RuntimeConfig struct {
	LogLevel  string `koanf:"log_level"  validate:"oneof=debug info warn error disabled"`
	LogJSON   bool   `koanf:"log_json"`
	LogSource bool   `koanf:"log_source"`
}

// MonitoringConfig controls the metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"    validate:"required,startswith=/"`
}

// RateLimitConfig contains per-client request limits. All limits share Period.
type RateLimitConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Period         time.Duration `koanf:"period"          validate:"min=1s"`
	GlobalLimit    int64         `koanf:"global_limit"    validate:"min=1"`
	UploadLimit    int64         `koanf:"upload_limit"    validate:"min=0"`
	PreviewLimit   int64         `koanf:"preview_limit"   validate:"min=0"`
	DisableHeaders bool          `koanf:"disable_headers"`
	ExcludedPaths  []string      `koanf:"excluded_paths"`
}

// CLIConfig contains settings for the commands that talk to a running server.
type CLIConfig struct {
	ServerURL string        `koanf:"server_url" validate:"required,url"`
	Timeout   time.Duration `koanf:"timeout"    validate:"min=1s"`
	// Format is auto, json or text.
	Format string `koanf:"format" validate:"oneof=auto json text"`
}

// Service defines the interface for configuration management.
type Service interface {
	// Load loads configuration from defaults, the given sources and the
	// environment, in increasing precedence. CLI sources win over the
	// environment.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
	// Close releases any resources held by the source.
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads configuration using the default service.
func Load() (*Config, error) {
	service := NewService()
	return service.Load(context.Background())
}

// Default returns a Config with default values for local use.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			MaxUploadBytes:   50 << 20,
			DetailCacheBytes: 64 << 20,
			CORSEnabled:      true,
			AllowedOrigins:   []string{"*"},
			CORSMaxAge:       86400,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      60 * time.Second,
			ShutdownTimeout:  5 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/docchunk.db",
			BusyTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			UploadDir: "./uploads",
		},
		Extraction: ExtractionConfig{
			MaxRows:     1000,
			MaxFileSize: 50 << 20,
		},
		Chunking: ChunkingConfig{
			ChunkSize:         1000,
			ChunkOverlap:      200,
			SplitterType:      "recursive",
			LengthFunction:    "character_count",
			StripWhitespace:   true,
			TokenizerEncoding: "cl100k_base",
			SweepSchedule:     "@every 1m",
			StaleAfter:        15 * time.Minute,
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
		Monitoring: MonitoringConfig{
			Enabled: false,
			Path:    "/metrics",
		},
		RateLimit: RateLimitConfig{
			Enabled:      false,
			Period:       time.Minute,
			GlobalLimit:  120,
			UploadLimit:  20,
			PreviewLimit: 60,
			ExcludedPaths: []string{
				"/health",
				"/metrics",
				"/api/v1/health",
			},
		},
		CLI: CLIConfig{
			ServerURL: "http://localhost:8000",
			Timeout:   2 * time.Minute,
			Format:    "auto",
		},
	}
}
