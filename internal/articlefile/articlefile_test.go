package articlefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhp-content/internal/model"
	"mhp-content/internal/normalize"
)

func TestAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "articles-data.json")

	t.Run("Should create the file on first append", func(t *testing.T) {
		n, err := Append(path, model.Document{Title: "A", Slug: "a", Category: model.CategoryPsychology})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Should keep existing entries", func(t *testing.T) {
		n, err := Append(path, map[string]any{"title": "B"})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		items, err := Read(path)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0]["slug"])
		assert.Equal(t, "B", items[1]["title"])
	})

	t.Run("Should write two-space indented JSON", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "[\n  {\n    \"title\": \"A\"")
	})

	t.Run("Should clear to an empty array", func(t *testing.T) {
		require.NoError(t, Clear(path))
		items, err := Read(path)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	t.Run("Should reject a non-array file", func(t *testing.T) {
		path := filepath.Join(dir, "object.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"title":"x"}`), 0o644))
		_, err := Read(path)
		assert.ErrorIs(t, err, ErrNotArray)

		_, err = Append(path, map[string]any{})
		assert.ErrorIs(t, err, ErrNotArray)
	})

	t.Run("Should reject non-object elements", func(t *testing.T) {
		path := filepath.Join(dir, "numbers.json")
		require.NoError(t, os.WriteFile(path, []byte(`[1, 2]`), 0o644))
		_, err := Read(path)
		assert.Error(t, err)
	})

	t.Run("Should report a missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(dir, "missing.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Should round trip through Write", func(t *testing.T) {
		path := filepath.Join(dir, "write.json")
		require.NoError(t, Write(path, []normalize.Raw{{"title": "T"}}))
		items, err := Read(path)
		require.NoError(t, err)
		assert.Equal(t, "T", items[0]["title"])
	})
}
