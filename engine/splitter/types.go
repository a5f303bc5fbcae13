package splitter

import "github.com/mohae/deepcopy"

// Chunk is one emitted piece of a document's text.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
	// Length is measured with the configured length function.
	Length int `json:"length"`
	// StartOffset and EndOffset are rune positions [start, end) in the
	// source text, set only when offset tracking is enabled.
	StartOffset *int           `json:"start_offset,omitempty"`
	EndOffset   *int           `json:"end_offset,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Warning codes reported by Split.
const (
	WarnUnknownSplitterType   = "unknown_splitter_type"
	WarnUnknownLengthFunction = "unknown_length_function"
)

// Warning describes a non-fatal adjustment made while splitting.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the complete outcome of one Split call.
type Result struct {
	Chunks []Chunk `json:"chunks"`
	// Config is the effective configuration after fallbacks were applied.
	Config   Config    `json:"config"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// AttachMetadata gives every chunk its own deep copy of fields.
func (r *Result) AttachMetadata(fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	for i := range r.Chunks {
		if copied, ok := deepcopy.Copy(fields).(map[string]any); ok {
			r.Chunks[i].Metadata = copied
		}
	}
}
