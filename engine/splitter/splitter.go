// Package splitter cuts normalized text into ordered, size-bounded chunks
// using recursive-separator, single-separator or token-window strategies.
package splitter

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/compozy/docchunk/engine/tokenizer"
	"github.com/compozy/docchunk/pkg/logger"
)

// Tokenizer is the subset of the reference tokenizer the splitter needs.
type Tokenizer interface {
	tokenizer.Tokenizer
	TokenByteLengths(tokens []int) []int
}

// Splitter turns text into chunks. It holds no per-call state and is safe
// for concurrent use.
type Splitter struct {
	tokenizer func() (Tokenizer, error)
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithTokenizer replaces the default cl100k_base tokenizer.
func WithTokenizer(tok Tokenizer) Option {
	return func(s *Splitter) {
		s.tokenizer = func() (Tokenizer, error) { return tok, nil }
	}
}

func New(opts ...Option) *Splitter {
	s := &Splitter{
		tokenizer: func() (Tokenizer, error) { return tokenizer.Default() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSplitter = New()

// Split runs the default splitter.
func Split(ctx context.Context, text string, cfg Config) (*Result, error) {
	return defaultSplitter.Split(ctx, text, cfg)
}

// run carries the resolved state of a single Split call.
type run struct {
	cfg    Config
	length lengthFunc
	tokens Tokenizer // nil unless lengths or windows are measured in tokens
	index  *runeIndex
}

// Split validates cfg and cuts text into chunks. Unknown strategy or length
// function names fall back to the defaults and are reported as warnings on
// the result; the outcome is otherwise all chunks or an error.
func (s *Splitter) Split(ctx context.Context, text string, cfg Config) (*Result, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	result := &Result{}
	cfg = s.resolve(ctx, cfg, result)
	result.Config = cfg
	if text == "" {
		result.Chunks = []Chunk{}
		return result, nil
	}

	r := &run{cfg: cfg, length: characterLength}
	if cfg.SplitterType == TypeToken || cfg.LengthFunction == LengthTokens {
		tok, err := s.tokenizer()
		if err != nil {
			return nil, fmt.Errorf("splitter: load tokenizer: %w", err)
		}
		r.tokens = tok
		if cfg.LengthFunction == LengthTokens {
			r.length = tokenLength(tok)
		}
	}
	if cfg.TrackOffsets {
		r.index = newRuneIndex(text)
	}

	whole := span{text: text, start: 0}
	switch cfg.SplitterType {
	case TypeToken:
		result.Chunks = r.splitTokens(text)
	case TypeCharacter:
		sep := DefaultCharacterSeparator
		if len(cfg.Separators) > 0 {
			sep = cfg.Separators[0]
		}
		result.Chunks = r.finish(text, r.splitRecursive(whole, []string{sep}))
	default:
		seps := cfg.Separators
		if len(seps) == 0 {
			seps = DefaultSeparators()
		}
		result.Chunks = r.finish(text, r.splitRecursive(whole, seps))
	}
	if result.Chunks == nil {
		result.Chunks = []Chunk{}
	}
	recordSplit(ctx, cfg.SplitterType, len(result.Chunks), time.Since(started))
	logger.FromContext(ctx).Debug(
		"Text split",
		"strategy", cfg.SplitterType,
		"length_function", cfg.LengthFunction,
		"chunks", len(result.Chunks),
	)
	return result, nil
}

// resolve applies the strategy and length function fallbacks.
func (s *Splitter) resolve(ctx context.Context, cfg Config, result *Result) Config {
	log := logger.FromContext(ctx)
	requested := string(cfg.SplitterType)
	typ, ok := ParseType(requested)
	cfg.SplitterType = typ
	if !ok {
		msg := fmt.Sprintf("unknown splitter_type %q, defaulting to recursive with default separators", requested)
		log.Warn("Splitter type fallback", "requested", requested, "fallback", TypeRecursive)
		result.Warnings = append(result.Warnings, Warning{Code: WarnUnknownSplitterType, Message: msg})
		recordFallback(ctx, WarnUnknownSplitterType)
		cfg.SplitterType = TypeRecursive
		cfg.Separators = nil
	}
	requestedLen := string(cfg.LengthFunction)
	lf, ok := ParseLengthFunction(requestedLen)
	cfg.LengthFunction = lf
	if !ok {
		msg := fmt.Sprintf("unknown length_function %q, defaulting to %s", requestedLen, LengthCharacters)
		log.Warn("Length function fallback", "requested", requestedLen, "fallback", LengthCharacters)
		result.Warnings = append(result.Warnings, Warning{Code: WarnUnknownLengthFunction, Message: msg})
		recordFallback(ctx, WarnUnknownLengthFunction)
		cfg.LengthFunction = LengthCharacters
	}
	if cfg.SplitterType == TypeToken {
		cfg.LengthFunction = LengthTokens
	}
	return cfg
}

// finish strips, measures and indexes drafts. Drafts left empty are dropped.
func (r *run) finish(source string, drafts []draft) []Chunk {
	chunks := make([]Chunk, 0, len(drafts))
	for _, d := range drafts {
		content, start, end := d.text, d.start, d.end
		if r.cfg.StripWhitespace {
			content = strings.TrimSpace(content)
			if content != "" {
				raw := source[start:end]
				start += len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
				end -= len(raw) - len(strings.TrimRightFunc(raw, unicode.IsSpace))
			}
		}
		if content == "" {
			continue
		}
		chunk := Chunk{Index: len(chunks), Content: content, Length: r.length(content)}
		if r.index != nil {
			so, eo := r.index.floor(start), r.index.ceil(end)
			chunk.StartOffset, chunk.EndOffset = &so, &eo
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
