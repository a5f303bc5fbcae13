package uploads

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredName(t *testing.T) {
	t.Run("Should keep a slug of the base name and the lowercased extension", func(t *testing.T) {
		name := StoredName("Quarterly Report (Final).PDF")
		assert.True(t, strings.HasSuffix(name, "-quarterly-report-final.pdf"), name)
		assert.Len(t, strings.TrimSuffix(name, "-quarterly-report-final.pdf"), 36)
	})
	t.Run("Should produce distinct names for the same original", func(t *testing.T) {
		assert.NotEqual(t, StoredName("a.txt"), StoredName("a.txt"))
	})
	t.Run("Should fall back to the id when nothing sluggable remains", func(t *testing.T) {
		name := StoredName("***.csv")
		assert.Len(t, name, 36+len(".csv"))
	})
}

func TestStore(t *testing.T) {
	t.Run("Should save, read and remove a file", func(t *testing.T) {
		ctx := t.Context()
		fs := afero.NewMemMapFs()
		store := New(fs, "/data/uploads")
		saved, err := store.Save(ctx, "notes.txt", strings.NewReader("hello"), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), saved.Size)
		assert.Equal(t, filepath.Join("/data/uploads", saved.Filename), saved.Path)

		data, err := store.ReadFile(saved.Path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		require.NoError(t, store.Remove(ctx, saved.Path))
		exists, err := afero.Exists(fs, saved.Path)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, store.Remove(ctx, saved.Path))
	})
	t.Run("Should accept files exactly at the limit", func(t *testing.T) {
		store := New(afero.NewMemMapFs(), "/u")
		saved, err := store.Save(t.Context(), "a.txt", bytes.NewReader(make([]byte, 8)), 8)
		require.NoError(t, err)
		assert.Equal(t, int64(8), saved.Size)
	})
	t.Run("Should reject oversized files without leaving them behind", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := New(fs, "/u")
		_, err := store.Save(t.Context(), "a.txt", bytes.NewReader(make([]byte, 9)), 8)
		require.ErrorIs(t, err, ErrTooLarge)
		entries, err := afero.ReadDir(fs, "/u")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
	t.Run("Should create the root directory on the OS filesystem", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "uploads")
		store, err := NewOS(root)
		require.NoError(t, err)
		assert.Equal(t, root, store.Root())
		assert.DirExists(t, root)
	})
}
