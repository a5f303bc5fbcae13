package pipeline

import (
	"errors"
	"fmt"
)

var ErrUnsupportedFormat = errors.New("pipeline: unsupported file type")

// ProcessingError reports a document that was recorded as failed.
type ProcessingError struct {
	DocumentID string
	Err        error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("pipeline: document %s failed: %v", e.DocumentID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
