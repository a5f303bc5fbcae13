// Package pipeline runs uploads through storage, extraction and splitting and
// records each document's progress through its status lifecycle.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/engine/infra/uploads"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const sniffLength = 512

// FileStore keeps the original upload bytes.
type FileStore interface {
	Save(ctx context.Context, original string, r io.Reader, maxBytes int64) (*uploads.Stored, error)
	Remove(ctx context.Context, path string) error
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, contentTypeOrExt string) (*extract.Document, error)
}

type TextSplitter interface {
	Split(ctx context.Context, text string, cfg splitter.Config) (*splitter.Result, error)
}

// Upload is one file submitted for processing.
type Upload struct {
	Filename string
	// ContentType is the client declared MIME type, possibly empty.
	ContentType string
	Data        []byte
	Config      splitter.Config
}

type Processor struct {
	repo      document.Repository
	files     FileStore
	extractor TextExtractor
	splitter  TextSplitter
	maxBytes  int64
	now       func() time.Time
	tracer    trace.Tracer
}

type Option func(*Processor)

func WithExtractor(e TextExtractor) Option {
	return func(p *Processor) { p.extractor = e }
}

func WithSplitter(s TextSplitter) Option {
	return func(p *Processor) { p.splitter = s }
}

// WithMaxFileSize bounds stored uploads; zero disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(p *Processor) { p.maxBytes = n }
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func New(repo document.Repository, files FileStore, opts ...Option) (*Processor, error) {
	if repo == nil {
		return nil, errors.New("pipeline: repository is required")
	}
	if files == nil {
		return nil, errors.New("pipeline: file store is required")
	}
	p := &Processor{
		repo:      repo,
		files:     files,
		extractor: extract.New(extract.DefaultOptions()),
		splitter:  splitter.New(),
		now:       func() time.Time { return time.Now().UTC() },
		tracer:    otel.Tracer("docchunk.pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process stores the upload, creates its document and runs extraction and
// splitting. Rejected uploads leave nothing behind. Once the document exists
// any failure marks it failed and is returned as a *ProcessingError.
func (p *Processor) Process(ctx context.Context, up Upload) (detail *document.Detail, err error) {
	ext := extract.Ext(up.Filename)
	if !extract.IsSupported(ext) {
		recordProcess(ctx, outcomeRejected, "", 0, 0)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := up.Config.Validate(); err != nil {
		recordProcess(ctx, outcomeRejected, "", 0, 0)
		return nil, err
	}
	head := up.Data
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	contentType := extract.Resolve(up.Filename, up.ContentType, head)
	started := time.Now()
	ctx, span := p.tracer.Start(ctx, "docchunk.pipeline.process", trace.WithAttributes(
		attribute.String("filename", up.Filename),
		attribute.String("content_type", contentType),
		attribute.Int("bytes", len(up.Data)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	stored, err := p.files.Save(ctx, up.Filename, bytes.NewReader(up.Data), p.maxBytes)
	if err != nil {
		recordProcess(ctx, outcomeRejected, contentType, 0, time.Since(started))
		return nil, fmt.Errorf("pipeline: store upload: %w", err)
	}
	doc, err := p.begin(ctx, up, stored, contentType, ext)
	if err != nil {
		p.discard(ctx, stored.Path)
		recordProcess(ctx, outcomeRejected, contentType, 0, time.Since(started))
		return nil, err
	}
	span.SetAttributes(attribute.String("document_id", doc.ID))
	log := logger.FromContext(ctx).With("document_id", doc.ID, "content_type", contentType)

	detail, err = p.run(ctx, doc, up)
	if err != nil {
		p.fail(ctx, doc, err)
		recordProcess(ctx, outcomeFailed, contentType, 0, time.Since(started))
		log.Error("Document processing failed", "error", err)
		return nil, &ProcessingError{DocumentID: doc.ID, Err: err}
	}
	recordProcess(ctx, outcomeCompleted, contentType, len(detail.Chunks), time.Since(started))
	log.Info("Document processed", "chunks", len(detail.Chunks), "content_length", doc.ContentLength)
	return detail, nil
}

func (p *Processor) begin(
	ctx context.Context,
	up Upload,
	stored *uploads.Stored,
	contentType, ext string,
) (*document.Document, error) {
	now := p.now()
	doc := &document.Document{
		ID:               uuid.NewString(),
		Filename:         stored.Filename,
		OriginalFilename: up.Filename,
		FilePath:         stored.Path,
		FileSize:         stored.Size,
		ContentType:      contentType,
		Extension:        ext,
		Status:           document.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("pipeline: create document: %w", err)
	}
	if err := doc.Transition(document.StatusProcessing, "", p.now()); err != nil {
		return nil, err
	}
	if err := p.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("pipeline: mark processing: %w", err)
	}
	return doc, nil
}

func (p *Processor) run(ctx context.Context, doc *document.Document, up Upload) (*document.Detail, error) {
	record := &document.ChunkingConfig{DocumentID: doc.ID, Config: up.Config.Clone(), CreatedAt: p.now()}
	if err := p.repo.SaveConfig(ctx, record); err != nil {
		return nil, fmt.Errorf("pipeline: save chunking config: %w", err)
	}
	extracted, err := p.extract(ctx, up.Data, doc.ContentType)
	if err != nil {
		return nil, err
	}
	result, err := p.split(ctx, extracted.Text, up.Config)
	if err != nil {
		return nil, err
	}
	record.Config = result.Config
	record.Warnings = warningCodes(result.Warnings)
	if err := p.repo.SaveConfig(ctx, record); err != nil {
		return nil, fmt.Errorf("pipeline: save effective config: %w", err)
	}

	var fields map[string]any
	if extracted.Metadata != nil {
		fields = extracted.Metadata.Fields()
	}
	result.AttachMetadata(fields)
	chunks := make([]document.Chunk, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = document.Chunk{
			ID:            uuid.NewString(),
			DocumentID:    doc.ID,
			Index:         c.Index,
			Content:       c.Content,
			ContentLength: c.Length,
			StartOffset:   c.StartOffset,
			EndOffset:     c.EndOffset,
			Metadata:      c.Metadata,
			CreatedAt:     p.now(),
		}
	}
	doc.Content = extracted.Text
	doc.ContentLength = utf8.RuneCountInString(extracted.Text)
	doc.TotalChunks = len(chunks)
	doc.Metadata = fields
	if err := doc.Transition(document.StatusCompleted, "", p.now()); err != nil {
		return nil, err
	}
	if err := p.repo.Complete(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("pipeline: store chunks: %w", err)
	}
	return &document.Detail{Document: doc, ChunkingConfig: record, Chunks: chunks}, nil
}

func (p *Processor) extract(ctx context.Context, data []byte, contentType string) (*extract.Document, error) {
	ctx, span := p.tracer.Start(ctx, "docchunk.pipeline.extract")
	defer span.End()
	out, err := p.extractor.Extract(ctx, data, contentType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("text_length", len(out.Text)))
	return out, nil
}

func (p *Processor) split(ctx context.Context, text string, cfg splitter.Config) (*splitter.Result, error) {
	ctx, span := p.tracer.Start(ctx, "docchunk.pipeline.split", trace.WithAttributes(
		attribute.String("splitter_type", string(cfg.SplitterType)),
		attribute.Int("chunk_size", cfg.ChunkSize),
	))
	defer span.End()
	result, err := p.splitter.Split(ctx, text, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("chunks", len(result.Chunks)))
	return result, nil
}

// fail records cause on the stored document unless it already reached a
// terminal status, then refreshes doc from storage.
func (p *Processor) fail(ctx context.Context, doc *document.Document, cause error) {
	log := logger.FromContext(ctx).With("document_id", doc.ID)
	if err := p.repo.MarkFailed(ctx, doc.ID, cause.Error(), p.now()); err != nil {
		log.Warn("Failed to mark document failed", "error", err)
		return
	}
	current, err := p.repo.Get(ctx, doc.ID)
	if err != nil {
		log.Warn("Failed to reload failed document", "error", err)
		return
	}
	*doc = *current
}

func (p *Processor) discard(ctx context.Context, path string) {
	if err := p.files.Remove(ctx, path); err != nil {
		logger.FromContext(ctx).Warn("Failed to remove stored upload", "path", path, "error", err)
	}
}

// Detail loads a document with its configuration and ordered chunks.
func (p *Processor) Detail(ctx context.Context, id string) (*document.Detail, error) {
	doc, err := p.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := p.repo.GetConfig(ctx, id)
	if err != nil && !errors.Is(err, document.ErrNotFound) {
		return nil, err
	}
	chunks, err := p.repo.ListChunks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &document.Detail{Document: doc, ChunkingConfig: cfg, Chunks: chunks}, nil
}

// Delete removes the document record, its chunks and the stored file.
func (p *Processor) Delete(ctx context.Context, id string) error {
	doc, err := p.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := p.repo.Delete(ctx, id); err != nil {
		return err
	}
	p.discard(ctx, doc.FilePath)
	logger.FromContext(ctx).Info("Document deleted", "document_id", id)
	return nil
}

// Preview splits text without persisting anything.
func (p *Processor) Preview(ctx context.Context, text string, cfg splitter.Config) (*splitter.Result, error) {
	return p.split(ctx, text, cfg)
}

func warningCodes(ws []splitter.Warning) []string {
	if len(ws) == 0 {
		return nil
	}
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}
