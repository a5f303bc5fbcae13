package splitter

import (
	"sort"
	"unicode/utf8"
)

// runeIndex converts byte offsets of a source text into rune offsets.
type runeIndex struct {
	starts []int // byte position of every rune start, plus len(text)
}

func newRuneIndex(text string) *runeIndex {
	starts := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		starts = append(starts, i)
	}
	starts = append(starts, len(text))
	return &runeIndex{starts: starts}
}

// floor returns the index of the rune containing byte offset b.
func (x *runeIndex) floor(b int) int {
	i := sort.SearchInts(x.starts, b)
	if i < len(x.starts) && x.starts[i] == b {
		return i
	}
	return i - 1
}

// ceil returns the index of the first rune starting at or after byte offset b.
func (x *runeIndex) ceil(b int) int {
	return sort.SearchInts(x.starts, b)
}
