package document

import (
	"context"
	"time"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

type ListFilter struct {
	Page        int
	PerPage     int
	Status      Status
	ContentType string
}

// Normalize clamps paging to the accepted range.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

type ListResult struct {
	Documents  []*Document `json:"documents"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// TotalPagesFor returns how many pages of perPage items hold total items.
func TotalPagesFor(total, perPage int) int {
	if total == 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

type Stats struct {
	TotalDocuments           int            `json:"total_documents"`
	ByStatus                 map[Status]int `json:"by_status"`
	ByContentType            map[string]int `json:"by_content_type"`
	TotalChunks              int            `json:"total_chunks"`
	AverageChunksPerDocument float64        `json:"average_chunks_per_document"`
	TotalBytes               int64          `json:"total_bytes"`
}

// Repository persists documents, their configuration and chunks.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	// Update writes the mutable fields of an existing document. Stored
	// documents in a terminal status are left untouched and yield
	// ErrAlreadyTerminal.
	Update(ctx context.Context, doc *Document) error
	// Complete stores chunks and the updated document in one transaction,
	// replacing any chunks already stored for it. It fails with
	// ErrAlreadyTerminal like Update.
	Complete(ctx context.Context, doc *Document, chunks []Chunk) error
	// MarkFailed moves a pending or processing document to failed, writing
	// only its status fields. A terminal document yields ErrAlreadyTerminal.
	MarkFailed(ctx context.Context, id, message string, at time.Time) error
	SaveConfig(ctx context.Context, cfg *ChunkingConfig) error
	GetConfig(ctx context.Context, documentID string) (*ChunkingConfig, error)
	ListChunks(ctx context.Context, documentID string) ([]Chunk, error)
	GetChunk(ctx context.Context, documentID, chunkID string) (*Chunk, error)
	// Delete removes the document with its configuration and chunks.
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
}
