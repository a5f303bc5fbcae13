package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// cliFlagPaths maps CLI flag names to configuration paths.
var cliFlagPaths = map[string]string{
	"host":             "server.host",
	"port":             "server.port",
	"max-upload-bytes": "server.max_upload_bytes",
	"cors":             "server.cors_enabled",
	"db-path":          "database.path",
	"upload-dir":       "storage.upload_dir",
	"max-rows":         "extraction.max_rows",
	"strip-html":       "extraction.strip_html",
	"chunk-size":       "chunking.chunk_size",
	"chunk-overlap":    "chunking.chunk_overlap",
	"splitter":         "chunking.splitter_type",
	"length-function":  "chunking.length_function",
	"keep-separator":   "chunking.keep_separator",
	"strip-whitespace": "chunking.strip_whitespace",
	"track-offsets":    "chunking.track_offsets",
	"encoding":         "chunking.tokenizer_encoding",
	"log-level":        "runtime.log_level",
	"log-json":         "runtime.log_json",
	"log-source":       "runtime.log_source",
	"metrics":          "monitoring.enabled",
	"rate-limit":       "ratelimit.enabled",
	"server-url":       "cli.server_url",
	"timeout":          "cli.timeout",
	"format":           "cli.format",
}

// CLIFlagPath returns the configuration path a CLI flag overrides.
func CLIFlagPath(flag string) (string, bool) {
	path, ok := cliFlagPaths[flag]
	return path, ok
}

// cliProvider implements Source interface for CLI flags.
type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider creates a new CLI flags configuration source. Unknown flags
// are ignored.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{
		flags: flags,
	}
}

// Load returns the CLI flags as configuration data.
func (c *cliProvider) Load() (map[string]any, error) {
	config := make(map[string]any)
	for key, value := range c.flags {
		if path, ok := cliFlagPaths[key]; ok {
			if err := setNested(config, path, value); err != nil {
				return nil, fmt.Errorf("failed to set CLI flag %s: %w", key, err)
			}
		}
	}
	return config, nil
}

// Type returns the source type identifier.
func (c *cliProvider) Type() SourceType {
	return SourceCLI
}

// Close releases any resources held by the source.
func (c *cliProvider) Close() error {
	return nil
}

// setNested sets a value in a nested map structure using dot notation.
// It returns an error if a path conflict is encountered.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

// yamlProvider implements Source interface for YAML files.
type yamlProvider struct {
	path string
}

// NewYAMLProvider creates a new YAML file configuration source. A missing
// file yields no values.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{
		path: path,
	}
}

// Load reads configuration from a YAML file.
func (y *yamlProvider) Load() (map[string]any, error) {
	if y.path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return filterNilValues(config), nil
}

// filterNilValues recursively removes nil values from a map
// This prevents koanf from overriding existing values with nil
func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		if v == nil {
			continue
		}
		if nestedMap, ok := v.(map[string]any); ok {
			filtered := filterNilValues(nestedMap)
			if len(filtered) > 0 {
				result[k] = filtered
			}
		} else {
			result[k] = v
		}
	}
	return result
}

// Type returns the source type identifier.
func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}

// Close releases any resources held by the source.
func (y *yamlProvider) Close() error {
	return nil
}
