package splitter

import (
	"strings"
	"unicode/utf8"
)

// span is a piece of the source text together with its byte position.
type span struct {
	text  string
	start int
}

func (s span) end() int { return s.start + len(s.text) }

// draft is a merged chunk before stripping, measuring and indexing.
// [start, end) covers the source bytes the chunk was built from.
type draft struct {
	text       string
	start, end int
}

// splitOn cuts s at every occurrence of sep. An empty separator cuts between
// runes. With keep set, each separator stays attached to the piece before it.
// Empty pieces are dropped.
func splitOn(s span, sep string, keep bool) []span {
	if sep == "" {
		out := make([]span, 0, utf8.RuneCountInString(s.text))
		for i, r := range s.text {
			out = append(out, span{text: s.text[i : i+utf8.RuneLen(r)], start: s.start + i})
		}
		return out
	}
	var out []span
	rest, offset := s.text, s.start
	for {
		idx := strings.Index(rest, sep)
		if idx < 0 {
			break
		}
		cut := idx
		if keep {
			cut = idx + len(sep)
		}
		if cut > 0 {
			out = append(out, span{text: rest[:cut], start: offset})
		}
		advance := idx + len(sep)
		rest, offset = rest[advance:], offset+advance
	}
	if rest != "" {
		out = append(out, span{text: rest, start: offset})
	}
	return out
}
