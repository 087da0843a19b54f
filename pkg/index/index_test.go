package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIndexPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	idx, err := NewFileIndex(dir)
	require.NoError(t, err)
	seen := time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC)
	idx.now = func() time.Time { return seen }
	assert.Empty(t, idx.Get("plan.xlsx"))

	idx.Set("plan.xlsx", "id-1")
	idx.Set("other.xlsx", "id-2")
	idx.Remove("other.xlsx")
	require.NoError(t, idx.Save())

	reopened, err := NewFileIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
	e, ok := reopened.Lookup("plan.xlsx")
	require.True(t, ok)
	assert.Equal(t, "id-1", e.ID)
	assert.True(t, seen.Equal(e.Seen))
	assert.Empty(t, reopened.Get("other.xlsx"))
}

func TestSaveSkipsCleanIndex(t *testing.T) {
	dir := t.TempDir()
	idx, err := NewFileIndex(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Save())

	_, err = os.Stat(idx.Path())
	assert.True(t, os.IsNotExist(err), "clean index must not be written")

	idx.Set("a", "1")
	require.NoError(t, idx.Save())
	_, err = os.Stat(idx.Path())
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFile), []byte("{"), 0600))
	_, err := NewFileIndex(dir)
	assert.ErrorContains(t, err, "corrupt Drive file index")
}
