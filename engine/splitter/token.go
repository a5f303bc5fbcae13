package splitter

import (
	"strings"
	"unicode/utf8"
)

// splitTokens encodes the whole text and emits windows of chunk size tokens
// whose starts advance by chunk size minus overlap. The final window may be
// shorter. Separators and whitespace stripping do not apply.
func (r *run) splitTokens(text string) []Chunk {
	ids := r.tokens.Encode(text)
	if len(ids) == 0 {
		return nil
	}
	var byteEnds []int
	if r.index != nil {
		lengths := r.tokens.TokenByteLengths(ids)
		byteEnds = make([]int, len(lengths)+1)
		for i, n := range lengths {
			byteEnds[i+1] = byteEnds[i] + n
		}
	}
	size := r.cfg.ChunkSize
	stride := size - r.cfg.ChunkOverlap
	var chunks []Chunk
	for start := 0; ; start += stride {
		end := min(start+size, len(ids))
		content := r.tokens.Decode(ids[start:end])
		if !utf8.ValidString(content) {
			content = strings.ToValidUTF8(content, string(utf8.RuneError))
		}
		chunk := Chunk{Index: len(chunks), Content: content, Length: end - start}
		if r.index != nil {
			so, eo := r.index.floor(byteEnds[start]), r.index.ceil(byteEnds[end])
			chunk.StartOffset, chunk.EndOffset = &so, &eo
		}
		chunks = append(chunks, chunk)
		if end == len(ids) {
			break
		}
	}
	return chunks
}
