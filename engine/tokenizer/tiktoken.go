// Package tokenizer exposes the reference byte-pair tokenizer used to measure
// and window text in token units.
package tokenizer

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	DefaultEncoding = "cl100k_base"
	// counts for strings longer than this are not cached
	maxCachedKeyBytes = 4096
	defaultCacheSize  = 8192
)

var loaderOnce sync.Once

// Tokenizer encodes text into token ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
	Name() string
}

// Tiktoken implements Tokenizer with the tiktoken-go library.
type Tiktoken struct {
	encodingName string
	tke          *tiktoken.Tiktoken
	counts       *lru.Cache[string, int]
	mu           sync.RWMutex
}

// New creates a tokenizer for the given encoding or model name. An empty name
// selects DefaultEncoding. BPE ranks are loaded from the embedded offline
// loader, so construction never reaches the network.
func New(encodingOrModel string) (*Tiktoken, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})
	if encodingOrModel == "" {
		encodingOrModel = DefaultEncoding
	}
	name := encodingOrModel
	tke, err := tiktoken.GetEncoding(encodingOrModel)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(encodingOrModel)
		if err != nil {
			return nil, fmt.Errorf("tokenizer: unknown encoding or model %q: %w", encodingOrModel, err)
		}
	}
	counts, err := lru.New[string, int](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: create count cache: %w", err)
	}
	return &Tiktoken{encodingName: name, tke: tke, counts: counts}, nil
}

var (
	defaultOnce sync.Once
	defaultTok  *Tiktoken
	defaultErr  error
)

// Default returns the shared cl100k_base tokenizer.
func Default() (*Tiktoken, error) {
	defaultOnce.Do(func() {
		defaultTok, defaultErr = New(DefaultEncoding)
	})
	return defaultTok, defaultErr
}

// Encode returns the token ids for text. Special-token text is encoded as
// ordinary text.
func (t *Tiktoken) Encode(text string) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tke.Encode(text, nil, nil)
}

// Decode returns the bytes of the given tokens as a string. The result may
// end inside a multi-byte rune when the window boundary splits one.
func (t *Tiktoken) Decode(tokens []int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tke.Decode(tokens)
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	cacheable := len(text) <= maxCachedKeyBytes
	if cacheable {
		if n, ok := t.counts.Get(text); ok {
			return n
		}
	}
	n := len(t.Encode(text))
	if cacheable {
		t.counts.Add(text, n)
	}
	return n
}

// TokenByteLengths returns the byte length of each token's decoded form.
// Their running sum maps token positions to byte offsets in the source text.
func (t *Tiktoken) TokenByteLengths(tokens []int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]int, len(tokens))
	single := make([]int, 1)
	for i, tok := range tokens {
		single[0] = tok
		out[i] = len(t.tke.Decode(single))
	}
	return out
}

// Name returns the encoding or model name the tokenizer was built with.
func (t *Tiktoken) Name() string {
	return t.encodingName
}
