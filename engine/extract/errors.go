package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction matches every ExtractionError.
	ErrExtraction = errors.New("extract: unparsable document")
	// ErrEncoding matches every EncodingError.
	ErrEncoding = errors.New("extract: undecodable text")
)

// ExtractionError reports a structured document that could not be parsed.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: failed to read %s document: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// EncodingError reports text that could not be decoded after detection.
type EncodingError struct {
	Encoding string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Encoding == "" {
		return fmt.Sprintf("extract: failed to decode text: %v", e.Err)
	}
	return fmt.Sprintf("extract: failed to decode text as %s: %v", e.Encoding, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

func extractionError(format Format, msg string, args ...any) *ExtractionError {
	return &ExtractionError{Format: format, Err: fmt.Errorf(msg, args...)}
}
