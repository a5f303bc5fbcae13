package splitter

import (
	"unicode/utf8"

	"github.com/compozy/docchunk/engine/tokenizer"
)

type lengthFunc func(string) int

func characterLength(s string) int {
	return utf8.RuneCountInString(s)
}

func tokenLength(tok tokenizer.Tokenizer) lengthFunc {
	return tok.Count
}
