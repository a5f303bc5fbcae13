package helpers

import (
	"fmt"

	"github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/engine/tokenizer"
	"github.com/compozy/docchunk/pkg/config"
)

// SplitterDefaults converts the chunking section into a splitter configuration.
// Names are normalized; unknown ones are kept so the splitter can report them.
func SplitterDefaults(cfg *config.Config) splitter.Config {
	c := cfg.Chunking
	st, _ := splitter.ParseType(c.SplitterType)
	lf, _ := splitter.ParseLengthFunction(c.LengthFunction)
	return splitter.Config{
		ChunkSize:       c.ChunkSize,
		ChunkOverlap:    c.ChunkOverlap,
		SplitterType:    st,
		Separators:      append([]string(nil), c.Separators...),
		LengthFunction:  lf,
		KeepSeparator:   c.KeepSeparator,
		StripWhitespace: c.StripWhitespace,
		TrackOffsets:    c.TrackOffsets,
	}
}

// NewExtractor builds an extractor from the extraction section.
func NewExtractor(cfg *config.Config) *extract.Extractor {
	return extract.New(extract.Options{
		MaxRows:   cfg.Extraction.MaxRows,
		StripHTML: cfg.Extraction.StripHTML,
	})
}

// NewSplitter builds a splitter using the configured tokenizer encoding.
func NewSplitter(cfg *config.Config) (*splitter.Splitter, error) {
	enc := cfg.Chunking.TokenizerEncoding
	if enc == "" || enc == tokenizer.DefaultEncoding {
		return splitter.New(), nil
	}
	tok, err := tokenizer.New(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return splitter.New(splitter.WithTokenizer(tok)), nil
}
