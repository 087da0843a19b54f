package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Drive.FolderID = "folder-123"
	cfg.Writer.PagesPerLot = 10
	require.NoError(t, SaveFile(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sheet:\n  name: Plan\n  header_row: 0\n"), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Plan", cfg.Sheet.Name)
	assert.Equal(t, 3, cfg.Sheet.HeaderRow)
	assert.Equal(t, 700, cfg.Writer.WordsPerPage)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sheet: [unclosed"), 0600))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestDirHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	got, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	cfg := Default()
	cfg.Sheet.Name = "Other"
	require.NoError(t, Save(cfg))
	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Other", loaded.Sheet.Name)
}

func TestSet(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("sheet.header_row", "1"))
	require.NoError(t, cfg.Set("Drive.Folder_ID", "abc"))
	require.NoError(t, cfg.Set("writer.temperature", "0.7"))
	assert.Equal(t, 1, cfg.Sheet.HeaderRow)
	assert.Equal(t, "abc", cfg.Drive.FolderID)
	assert.InDelta(t, 0.7, cfg.Writer.Temperature, 1e-6)

	assert.Error(t, cfg.Set("sheet.header_row", "0"))
	assert.Error(t, cfg.Set("sheet.header_row", "three"))
	assert.Error(t, cfg.Set("nope", "x"))
}

func TestAPIKeyPrefersEnv(t *testing.T) {
	cfg := Default()
	cfg.Writer.APIKey = "from-file"
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	assert.Equal(t, "from-file", cfg.APIKey())

	t.Setenv("GOOGLE_API_KEY", "from-env")
	assert.Equal(t, "from-env", cfg.APIKey())
}
