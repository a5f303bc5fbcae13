package splitter

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// splitRecursive cuts s with the first separator that occurs in it, merges the
// pieces that fit and recurses into the rest with the finer separators.
func (r *run) splitRecursive(s span, separators []string) []draft {
	sep := separators[len(separators)-1]
	var finer []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			break
		}
		if strings.Contains(s.text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}
	joiner := sep
	if r.cfg.KeepSeparator {
		joiner = ""
	}
	var out []draft
	var fitting []span
	for _, piece := range splitOn(s, sep, r.cfg.KeepSeparator) {
		if r.length(piece.text) <= r.cfg.ChunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, r.merge(fitting, joiner)...)
			fitting = nil
		}
		if len(finer) == 0 {
			out = append(out, r.forceSplit(piece)...)
			continue
		}
		out = append(out, r.splitRecursive(piece, finer)...)
	}
	if len(fitting) > 0 {
		out = append(out, r.merge(fitting, joiner)...)
	}
	return out
}

// forceSplit cuts a span that no separator can reduce into consecutive
// windows of at most chunk size length units, without overlap. Every window
// holds at least one rune so the split always terminates.
func (r *run) forceSplit(s span) []draft {
	size := r.cfg.ChunkSize
	var out []draft
	if r.tokens == nil {
		start, count := 0, 0
		for i := range s.text {
			if count == size {
				out = append(out, draft{text: s.text[start:i], start: s.start + start, end: s.start + i})
				start, count = i, 0
			}
			count++
		}
		if start < len(s.text) {
			out = append(out, draft{text: s.text[start:], start: s.start + start, end: s.end()})
		}
		return out
	}
	bounds := make([]int, 0, utf8.RuneCountInString(s.text)+1)
	for i := range s.text {
		bounds = append(bounds, i)
	}
	bounds = append(bounds, len(s.text))
	lo := 0
	for lo < len(bounds)-1 {
		remaining := bounds[lo+1:]
		// largest window end whose text still fits
		k := sort.Search(len(remaining), func(j int) bool {
			return r.length(s.text[bounds[lo]:remaining[j]]) > size
		})
		if k == 0 {
			k = 1
		}
		hi := lo + k
		out = append(out, draft{
			text:  s.text[bounds[lo]:bounds[hi]],
			start: s.start + bounds[lo],
			end:   s.start + bounds[hi],
		})
		lo = hi
	}
	return out
}
