package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/logger"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var documentColumns = []string{
	"id",
	"filename",
	"original_filename",
	"file_path",
	"file_size",
	"content_type",
	"extension",
	"content",
	"content_length",
	"total_chunks",
	"status",
	"error_message",
	"metadata",
	"created_at",
	"updated_at",
	"processed_at",
}

// listColumns matches documentColumns with the extracted text left out.
var listColumns = []string{
	"id",
	"filename",
	"original_filename",
	"file_path",
	"file_size",
	"content_type",
	"extension",
	"'' AS content",
	"content_length",
	"total_chunks",
	"status",
	"error_message",
	"metadata",
	"created_at",
	"updated_at",
	"processed_at",
}

var chunkColumns = []string{
	"id",
	"document_id",
	"chunk_index",
	"content",
	"content_length",
	"start_offset",
	"end_offset",
	"metadata",
	"created_at",
}

const (
	busyRetries = 5
	busyBackoff = 20 * time.Millisecond
)

// DocumentRepo implements document.Repository on top of a SQLite *sql.DB.
type DocumentRepo struct{ db *sql.DB }

var _ document.Repository = (*DocumentRepo)(nil)

// NewDocumentRepo creates a new SQLite-backed document repository.
func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{db: db} }

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func (r *DocumentRepo) Create(ctx context.Context, doc *document.Document) error {
	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = document.StatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	meta, err := ToJSONText(doc.Metadata)
	if err != nil {
		return err
	}
	q, args, err := builder().
		Insert("documents").
		Columns(documentColumns...).
		Values(
			doc.ID,
			doc.Filename,
			doc.OriginalFilename,
			doc.FilePath,
			doc.FileSize,
			doc.ContentType,
			doc.Extension,
			doc.Content,
			doc.ContentLength,
			doc.TotalChunks,
			string(doc.Status),
			doc.ErrorMessage,
			meta,
			doc.CreatedAt.UTC(),
			doc.UpdatedAt.UTC(),
			nullableTime(doc.ProcessedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build document insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("sqlite: create document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	q, args, err := builder().
		Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build document select: %w", err)
	}
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, filter document.ListFilter) (*document.ListResult, error) {
	filter = filter.Normalize()
	where := squirrel.And{}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.ContentType != "" {
		where = append(where, squirrel.Eq{"content_type": filter.ContentType})
	}
	countQ, countArgs, err := builder().Select("COUNT(*)").From("documents").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build document count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("sqlite: count documents: %w", err)
	}
	q, args, err := builder().
		Select(listColumns...).
		From("documents").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.PerPage)).
		Offset(uint64(filter.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build document list: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list documents: %w", err)
	}
	defer rows.Close()
	docs := make([]*document.Document, 0, filter.PerPage)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iter documents: %w", err)
	}
	return &document.ListResult{
		Documents:  docs,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: document.TotalPagesFor(total, filter.PerPage),
	}, nil
}

func (r *DocumentRepo) Update(ctx context.Context, doc *document.Document) error {
	return updateDocument(ctx, r.db, doc)
}

// Complete replaces the chunks of doc and writes the document in a single
// transaction, retrying when the database is busy.
func (r *DocumentRepo) Complete(ctx context.Context, doc *document.Document, chunks []document.Chunk) error {
	backoff := retry.WithMaxRetries(busyRetries, retry.NewExponential(busyBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.complete(ctx, doc, chunks)
		if isBusy(err) {
			logger.FromContext(ctx).Warn("sqlite: database busy, retrying", "document_id", doc.ID)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *DocumentRepo) complete(ctx context.Context, doc *document.Document, chunks []document.Chunk) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rb := tx.Rollback(); rb != nil {
				logger.FromContext(ctx).Warn("sqlite: rollback failed", "error", rb)
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("sqlite: clear chunks: %w", err)
	}
	if err = insertChunks(ctx, tx, doc.ID, chunks); err != nil {
		return err
	}
	if err = updateDocument(ctx, tx, doc); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit complete: %w", err)
	}
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, documentID string, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	placeholders := make([]any, len(chunkColumns))
	q, _, err := builder().Insert("chunks").Columns(chunkColumns...).Values(placeholders...).ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build chunk insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("sqlite: prepare chunk insert: %w", err)
	}
	defer stmt.Close()
	now := time.Now().UTC()
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.DocumentID = documentID
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		meta, err := ToJSONText(c.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(
			ctx,
			c.ID,
			c.DocumentID,
			c.Index,
			c.Content,
			c.ContentLength,
			nullableInt(c.StartOffset),
			nullableInt(c.EndOffset),
			meta,
			c.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("sqlite: insert chunk %d: %w", c.Index, err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var terminalStatuses = []string{string(document.StatusCompleted), string(document.StatusFailed)}

// updateDocument writes doc unless the stored row already reached a terminal
// status. UpdatedAt is taken from doc.
func updateDocument(ctx context.Context, db execer, doc *document.Document) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	meta, err := ToJSONText(doc.Metadata)
	if err != nil {
		return err
	}
	q, args, err := builder().
		Update("documents").
		SetMap(map[string]any{
			"filename":          doc.Filename,
			"original_filename": doc.OriginalFilename,
			"file_path":         doc.FilePath,
			"file_size":         doc.FileSize,
			"content_type":      doc.ContentType,
			"extension":         doc.Extension,
			"content":           doc.Content,
			"content_length":    doc.ContentLength,
			"total_chunks":      doc.TotalChunks,
			"status":            string(doc.Status),
			"error_message":     doc.ErrorMessage,
			"metadata":          meta,
			"updated_at":        doc.UpdatedAt.UTC(),
			"processed_at":      nullableTime(doc.ProcessedAt),
		}).
		Where(squirrel.Eq{"id": doc.ID}).
		Where(squirrel.NotEq{"status": terminalStatuses}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build document update: %w", err)
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update document: %w", err)
	}
	return requireTransition(ctx, db, res, doc.ID, "update document")
}

func (r *DocumentRepo) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	at = at.UTC()
	q, args, err := builder().
		Update("documents").
		SetMap(map[string]any{
			"status":        string(document.StatusFailed),
			"error_message": message,
			"updated_at":    at,
			"processed_at":  at,
		}).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": terminalStatuses}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build mark failed: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlite: mark failed: %w", err)
	}
	return requireTransition(ctx, r.db, res, id, "mark failed")
}

// requireTransition tells a missing document apart from one whose status
// guard rejected the write.
func requireTransition(ctx context.Context, db execer, res sql.Result, id, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected (%s): %w", op, err)
	}
	if n > 0 {
		return nil
	}
	var status string
	err = db.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = ?`, id).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return document.ErrNotFound
	case err != nil:
		return fmt.Errorf("sqlite: check status (%s): %w", op, err)
	}
	return fmt.Errorf("%w: %s is %s", document.ErrAlreadyTerminal, id, status)
}

func (r *DocumentRepo) SaveConfig(ctx context.Context, cfg *document.ChunkingConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	body, err := ToJSONText(cfg.Config)
	if err != nil {
		return err
	}
	warnings, err := ToJSONText(cfg.Warnings)
	if err != nil {
		return err
	}
	q, args, err := builder().
		Insert("chunking_configs").
		Columns("id", "document_id", "config", "warnings", "created_at").
		Values(cfg.ID, cfg.DocumentID, body, warnings, cfg.CreatedAt.UTC()).
		Suffix("ON CONFLICT (document_id) DO UPDATE SET config = excluded.config, warnings = excluded.warnings").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build config upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("sqlite: save chunking config: %w", err)
	}
	return nil
}

func (r *DocumentRepo) GetConfig(ctx context.Context, documentID string) (*document.ChunkingConfig, error) {
	q, args, err := builder().
		Select("id", "document_id", "config", "warnings", "created_at").
		From("chunking_configs").
		Where(squirrel.Eq{"document_id": documentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build config select: %w", err)
	}
	var (
		out      document.ChunkingConfig
		body     sql.NullString
		warnings sql.NullString
	)
	err = r.db.QueryRowContext(ctx, q, args...).Scan(&out.ID, &out.DocumentID, &body, &warnings, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get chunking config: %w", err)
	}
	var cfg splitter.Config
	if err := FromJSONText(body, &cfg); err != nil {
		return nil, err
	}
	out.Config = cfg
	if err := FromJSONText(warnings, &out.Warnings); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *DocumentRepo) ListChunks(ctx context.Context, documentID string) ([]document.Chunk, error) {
	q, args, err := builder().
		Select(chunkColumns...).
		From("chunks").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("chunk_index ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build chunk list: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list chunks: %w", err)
	}
	defer rows.Close()
	out := make([]document.Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan chunk: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iter chunks: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) GetChunk(ctx context.Context, documentID, chunkID string) (*document.Chunk, error) {
	q, args, err := builder().
		Select(chunkColumns...).
		From("chunks").
		Where(squirrel.Eq{"document_id": documentID, "id": chunkID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build chunk select: %w", err)
	}
	c, err := scanChunk(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get chunk: %w", err)
	}
	return c, nil
}

// Delete removes the document; chunks and configuration cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete document: %w", err)
	}
	return requireAffected(res, "delete document")
}

func (r *DocumentRepo) Stats(ctx context.Context) (*document.Stats, error) {
	stats := &document.Stats{
		ByStatus:      make(map[document.Status]int),
		ByContentType: make(map[string]int),
	}
	const totals = `SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM documents`
	if err := r.db.QueryRowContext(ctx, totals).Scan(&stats.TotalDocuments, &stats.TotalBytes); err != nil {
		return nil, fmt.Errorf("sqlite: count documents: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.TotalChunks); err != nil {
		return nil, fmt.Errorf("sqlite: count chunks: %w", err)
	}
	byStatus, err := r.groupCount(ctx, "status")
	if err != nil {
		return nil, err
	}
	for k, v := range byStatus {
		stats.ByStatus[document.Status(k)] = v
	}
	if stats.ByContentType, err = r.groupCount(ctx, "content_type"); err != nil {
		return nil, err
	}
	if stats.TotalDocuments > 0 {
		stats.AverageChunksPerDocument = float64(stats.TotalChunks) / float64(stats.TotalDocuments)
	}
	return stats, nil
}

func (r *DocumentRepo) groupCount(ctx context.Context, column string) (map[string]int, error) {
	q, args, err := builder().
		Select(column, "COUNT(*)").
		From("documents").
		GroupBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build %s distribution: %w", column, err)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s distribution: %w", column, err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s distribution: %w", column, err)
		}
		out[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iter %s distribution: %w", column, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*document.Document, error) {
	var (
		doc       document.Document
		status    string
		meta      sql.NullString
		processed sql.NullTime
	)
	if err := s.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.OriginalFilename,
		&doc.FilePath,
		&doc.FileSize,
		&doc.ContentType,
		&doc.Extension,
		&doc.Content,
		&doc.ContentLength,
		&doc.TotalChunks,
		&status,
		&doc.ErrorMessage,
		&meta,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&processed,
	); err != nil {
		return nil, err
	}
	doc.Status = document.Status(status)
	if err := FromJSONText(meta, &doc.Metadata); err != nil {
		return nil, err
	}
	if processed.Valid {
		t := processed.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func scanChunk(s scanner) (*document.Chunk, error) {
	var (
		c     document.Chunk
		start sql.NullInt64
		end   sql.NullInt64
		meta  sql.NullString
	)
	if err := s.Scan(
		&c.ID,
		&c.DocumentID,
		&c.Index,
		&c.Content,
		&c.ContentLength,
		&start,
		&end,
		&meta,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.StartOffset = intPtr(start)
	c.EndOffset = intPtr(end)
	if err := FromJSONText(meta, &c.Metadata); err != nil {
		return nil, err
	}
	return &c, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected (%s): %w", op, err)
	}
	if n == 0 {
		return document.ErrNotFound
	}
	return nil
}

func isBusy(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
