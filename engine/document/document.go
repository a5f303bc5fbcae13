// Package document holds the persisted records of uploaded documents, their
// chunking configuration and their chunks, plus the storage port.
package document

import (
	"errors"
	"fmt"
	"time"

	"github.com/compozy/docchunk/engine/splitter"
)

var ErrNotFound = errors.New("document: not found")

type Document struct {
	ID string `json:"id"`
	// Filename is the stored name; OriginalFilename is what the client uploaded.
	Filename         string         `json:"filename"`
	OriginalFilename string         `json:"original_filename"`
	FilePath         string         `json:"file_path"`
	FileSize         int64          `json:"file_size"`
	ContentType      string         `json:"content_type"`
	Extension        string         `json:"extension"`
	Content          string         `json:"content,omitempty"`
	ContentLength    int            `json:"content_length"`
	TotalChunks      int            `json:"total_chunks"`
	Status           Status         `json:"status"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	ProcessedAt      *time.Time     `json:"processed_at,omitempty"`
}

// Transition moves the document to status to. Failing records errMsg;
// reaching a terminal state stamps ProcessedAt.
func (d *Document) Transition(to Status, errMsg string, now time.Time) error {
	if !d.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
	}
	d.Status = to
	d.UpdatedAt = now
	if to == StatusFailed {
		d.ErrorMessage = errMsg
	}
	if to.IsTerminal() {
		processed := now
		d.ProcessedAt = &processed
	}
	return nil
}

// Chunk is a persisted piece of a document's text.
type Chunk struct {
	ID            string         `json:"id"`
	DocumentID    string         `json:"document_id"`
	Index         int            `json:"chunk_index"`
	Content       string         `json:"content"`
	ContentLength int            `json:"content_length"`
	StartOffset   *int           `json:"start_offset,omitempty"`
	EndOffset     *int           `json:"end_offset,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ChunkingConfig is the effective splitter configuration used for a document.
type ChunkingConfig struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Config     splitter.Config `json:"config"`
	Warnings   []string        `json:"warnings,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Detail is a document together with its configuration and ordered chunks.
type Detail struct {
	*Document
	ChunkingConfig *ChunkingConfig `json:"chunking_config,omitempty"`
	Chunks         []Chunk         `json:"chunks"`
}
