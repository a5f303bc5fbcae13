// Package uploads keeps the original bytes of uploaded documents on an afero
// filesystem.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/compozy/docchunk/pkg/logger"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/spf13/afero"
)

const maxSlugLength = 48

var ErrTooLarge = errors.New("uploads: file exceeds size limit")

// Stored describes a file written by Save.
type Stored struct {
	Filename string
	Path     string
	Size     int64
}

type Store struct {
	fs   afero.Fs
	root string
}

// New returns a store writing under root on fs.
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// NewOS returns a store on the OS filesystem, creating root when needed.
func NewOS(root string) (*Store, error) {
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create %s: %w", root, err)
	}
	return New(fs, root), nil
}

func (s *Store) Root() string { return s.root }

// StoredName builds a collision free name keeping a readable slug of the
// original base name and its extension.
func StoredName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := slug.Make(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))
	if len(base) > maxSlugLength {
		base = strings.Trim(base[:maxSlugLength], "-")
	}
	name := uuid.NewString()
	if base != "" {
		name += "-" + base
	}
	return name + ext
}

// Save copies r into a new file. A positive maxBytes bounds the size; larger
// inputs fail with ErrTooLarge and leave no file behind.
func (s *Store) Save(ctx context.Context, original string, r io.Reader, maxBytes int64) (*Stored, error) {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create %s: %w", s.root, err)
	}
	name := StoredName(original)
	path := filepath.Join(s.root, name)
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("uploads: create %s: %w", name, err)
	}
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	if err != nil {
		if rmErr := s.fs.Remove(path); rmErr != nil {
			logger.FromContext(ctx).Warn("uploads: cleanup failed", "path", path, "error", rmErr)
		}
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("uploads: write %s: %w", name, err)
	}
	logger.FromContext(ctx).Debug("Stored upload", "path", path, "bytes", n)
	return &Stored{Filename: name, Path: path, Size: n}, nil
}

func (s *Store) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("uploads: read %s: %w", path, err)
	}
	return data, nil
}

// Remove deletes path. Missing files are not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("uploads: remove %s: %w", path, err)
	}
	logger.FromContext(ctx).Debug("Removed upload", "path", path)
	return nil
}
