package splitter

import "strings"

// merge packs consecutive splits into drafts no longer than the chunk size,
// joining them with joiner. When a draft closes, whole splits are dropped from
// its head until what remains fits within the overlap, and that remainder
// seeds the next draft.
func (r *run) merge(splits []span, joiner string) []draft {
	size, overlap := r.cfg.ChunkSize, r.cfg.ChunkOverlap
	joinLen := 0
	if joiner != "" {
		joinLen = r.length(joiner)
	}
	lengths := make([]int, len(splits))
	for i := range splits {
		lengths[i] = r.length(splits[i].text)
	}
	sepIf := func(cond bool) int {
		if cond {
			return joinLen
		}
		return 0
	}

	var drafts []draft
	head, tail := 0, 0 // current window is splits[head:tail]
	total := 0
	for i := range splits {
		n := lengths[i]
		if total+n+sepIf(tail > head) > size && tail > head {
			drafts = append(drafts, joinSpans(splits[head:tail], joiner))
			for total > overlap || (total > 0 && total+n+sepIf(tail > head) > size) {
				total -= lengths[head] + sepIf(tail-head > 1)
				head++
			}
		}
		tail = i + 1
		total += n + sepIf(tail-head > 1)
	}
	if tail > head {
		drafts = append(drafts, joinSpans(splits[head:tail], joiner))
	}
	return drafts
}

func joinSpans(spans []span, joiner string) draft {
	var sb strings.Builder
	for i := range spans {
		if i > 0 {
			sb.WriteString(joiner)
		}
		sb.WriteString(spans[i].text)
	}
	return draft{text: sb.String(), start: spans[0].start, end: spans[len(spans)-1].end()}
}
