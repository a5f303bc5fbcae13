package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	t.Run("Should build DSN for file path with pragmas", func(t *testing.T) {
		d, memory, err := buildDSN(&Config{Path: "/tmp/test.db"})
		require.NoError(t, err)
		assert.False(t, memory)
		assert.Contains(t, d, "file:/tmp/test.db")
		assert.Contains(t, d, "_pragma=journal_mode(WAL)")
		assert.Contains(t, d, "_pragma=foreign_keys(ON)")
		assert.Contains(t, d, "_pragma=busy_timeout(5000)")
	})
	t.Run("Should honor a custom busy timeout", func(t *testing.T) {
		d, _, err := buildDSN(&Config{Path: "/tmp/test.db", BusyTimeout: 250 * time.Millisecond})
		require.NoError(t, err)
		assert.Contains(t, d, "_pragma=busy_timeout(250)")
	})
	t.Run("Should build a unique shared-cache DSN per in-memory store", func(t *testing.T) {
		first, memory, err := buildDSN(&Config{Path: MemoryPath})
		require.NoError(t, err)
		assert.True(t, memory)
		assert.Contains(t, first, "mode=memory")
		assert.Contains(t, first, "cache=shared")
		assert.NotContains(t, first, "journal_mode")
		second, _, err := buildDSN(&Config{})
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
	t.Run("Should reject paths carrying query parameters", func(t *testing.T) {
		_, _, err := buildDSN(&Config{Path: "/tmp/test.db?mode=ro"})
		require.Error(t, err)
	})
}

func TestNewStore(t *testing.T) {
	t.Run("Should open a file database and create its directory", func(t *testing.T) {
		ctx := t.Context()
		path := filepath.Join(t.TempDir(), "nested", "docchunk.db")
		store, err := NewStore(ctx, &Config{Path: path})
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, store.Close(ctx)) })
		require.NoError(t, store.Ping(ctx))
		assert.FileExists(t, path)
	})
	t.Run("Should isolate in-memory stores", func(t *testing.T) {
		ctx := t.Context()
		a, err := NewStore(ctx, &Config{Path: MemoryPath})
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, a.Close(ctx)) })
		b, err := NewStore(ctx, &Config{Path: MemoryPath})
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, b.Close(ctx)) })
		_, err = a.DB().ExecContext(
			ctx,
			`INSERT INTO documents (id, filename, file_path, content_type) VALUES ('d1', 'a.txt', '/a', 'text/plain')`,
		)
		require.NoError(t, err)
		var count int
		require.NoError(t, b.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count))
		assert.Equal(t, 0, count)
	})
	t.Run("Should tolerate closing a nil store", func(t *testing.T) {
		var s *Store
		assert.NoError(t, s.Close(t.Context()))
	})
}

func TestJSONHelpers(t *testing.T) {
	t.Run("Should marshal and unmarshal JSON TEXT", func(t *testing.T) {
		type S struct {
			A int    `json:"a"`
			B string `json:"b"`
		}
		in := &S{A: 42, B: "x"}
		b, err := ToJSONText(in)
		require.NoError(t, err)
		assert.True(t, b.Valid)
		var out *S
		err = FromJSONText(b, &out)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, in.A, out.A)
		assert.Equal(t, in.B, out.B)
	})
	t.Run("Should store nil values as NULL", func(t *testing.T) {
		var m map[string]any
		b, err := ToJSONText(m)
		require.NoError(t, err)
		assert.False(t, b.Valid)
		var out map[string]any
		require.NoError(t, FromJSONText(sql.NullString{}, &out))
		assert.Nil(t, out)
	})
	t.Run("Should report malformed JSON", func(t *testing.T) {
		var out map[string]any
		err := FromJSONText(sql.NullString{String: "{", Valid: true}, &out)
		require.Error(t, err)
	})
}
