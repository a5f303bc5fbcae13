package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/compozy/docchunk/pkg/logger"
	"github.com/google/uuid"
)

// Store owns the database handle shared by the repositories.
type Store struct {
	db  *sql.DB
	cfg Config
}

// NewStore opens the database described by cfg, applies pending migrations
// and verifies the connection.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{Path: MemoryPath}
	}
	dsn, memory, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	if !memory {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	configurePool(db, cfg, memory)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}
	if err := applyBusyTimeout(ctx, db, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.FromContext(ctx).Debug("SQLite store ready", "path", cfg.Path, "memory", memory)
	return &Store{db: db, cfg: *cfg}, nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite: close database: %w", err)
	}
	logger.FromContext(ctx).Debug("SQLite store closed", "path", s.cfg.Path)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping database: %w", err)
	}
	return nil
}

// buildDSN returns the modernc DSN for cfg and whether it is in-memory.
// Each in-memory store gets its own named shared-cache database so pooled
// connections see the same data while separate stores stay isolated.
func buildDSN(cfg *Config) (string, bool, error) {
	pragmas := []string{
		"_pragma=foreign_keys(ON)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.busyTimeout().Milliseconds()),
	}
	if cfg.isMemory() {
		name := "docchunk-" + uuid.NewString()
		params := append([]string{"mode=memory", "cache=shared"}, pragmas...)
		return "file:" + name + "?" + strings.Join(params, "&"), true, nil
	}
	path := strings.TrimPrefix(cfg.Path, "file:")
	if strings.ContainsAny(path, "?#") {
		return "", false, fmt.Errorf("sqlite: database path %q must not contain query parameters", cfg.Path)
	}
	pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	return "file:" + path + "?" + strings.Join(pragmas, "&"), false, nil
}

func configurePool(db *sql.DB, cfg *Config, memory bool) {
	switch {
	case memory:
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func applyBusyTimeout(ctx context.Context, db *sql.DB, cfg *Config) error {
	q := fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout().Milliseconds())
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("sqlite: set busy timeout: %w", err)
	}
	return nil
}
