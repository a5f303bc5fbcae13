package splitter

import (
	"fmt"
	"slices"
	"strings"
)

// Type selects the splitting strategy.
type Type string

const (
	TypeRecursive Type = "recursive"
	TypeCharacter Type = "character"
	TypeToken     Type = "token"
)

// LengthFunction selects the unit chunk_size and chunk_overlap are measured in.
type LengthFunction string

const (
	LengthCharacters LengthFunction = "character_count"
	LengthTokens     LengthFunction = "token_count"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	// DefaultCharacterSeparator is used by the character strategy when no
	// separator is configured.
	DefaultCharacterSeparator = "\n"
)

// DefaultSeparators is the recursive separator hierarchy, coarsest first.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", " ", ""}
}

// Config describes how text is cut into chunks.
type Config struct {
	ChunkSize       int            `json:"chunk_size"       yaml:"chunk_size"       mapstructure:"chunk_size"`
	ChunkOverlap    int            `json:"chunk_overlap"    yaml:"chunk_overlap"    mapstructure:"chunk_overlap"`
	SplitterType    Type           `json:"splitter_type"    yaml:"splitter_type"    mapstructure:"splitter_type"`
	Separators      []string       `json:"separators"       yaml:"separators"       mapstructure:"separators"`
	LengthFunction  LengthFunction `json:"length_function"  yaml:"length_function"  mapstructure:"length_function"`
	KeepSeparator   bool           `json:"keep_separator"   yaml:"keep_separator"   mapstructure:"keep_separator"`
	StripWhitespace bool           `json:"strip_whitespace" yaml:"strip_whitespace" mapstructure:"strip_whitespace"`
	TrackOffsets    bool           `json:"track_offsets"    yaml:"track_offsets"    mapstructure:"track_offsets"`
}

// DefaultConfig returns the recursive, character-measured configuration with
// whitespace stripping enabled.
func DefaultConfig() Config {
	return Config{
		ChunkSize:       DefaultChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		SplitterType:    TypeRecursive,
		LengthFunction:  LengthCharacters,
		StripWhitespace: true,
	}
}

// Validate checks the size parameters. Unknown strategy or length function
// names are not errors; Split falls back and reports a warning for them.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return newConfigError("chunk_size", fmt.Sprintf("must be positive (got %d)", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 {
		return newConfigError("chunk_overlap", fmt.Sprintf("cannot be negative (got %d)", c.ChunkOverlap))
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return newConfigError(
			"chunk_overlap",
			fmt.Sprintf("must be smaller than chunk_size (got %d >= %d)", c.ChunkOverlap, c.ChunkSize),
		)
	}
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	c.Separators = slices.Clone(c.Separators)
	return c
}

// ParseType normalizes a strategy name. The boolean is false for names that
// are not a known strategy.
func ParseType(raw string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TypeRecursive:
		return TypeRecursive, true
	case TypeCharacter:
		return TypeCharacter, true
	case TypeToken:
		return TypeToken, true
	default:
		return Type(raw), false
	}
}

// ParseLengthFunction normalizes a length function name, accepting the
// "len" and "tiktoken" aliases.
func ParseLengthFunction(raw string) (LengthFunction, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(LengthCharacters), "len", "characters":
		return LengthCharacters, true
	case string(LengthTokens), "tiktoken", "tokens":
		return LengthTokens, true
	default:
		return LengthFunction(raw), false
	}
}
