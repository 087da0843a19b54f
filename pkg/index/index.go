// Package index caches Drive file IDs by workbook name.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const indexFile = "drive_files.json"

// Entry is the last known Drive file for a name.
type Entry struct {
	ID   string    `json:"id"`
	Seen time.Time `json:"seen"`
}

type onDisk struct {
	Files map[string]Entry `json:"files"`
}

// FileIndex remembers which Drive file ID a workbook name resolved to, so
// later imports skip the search query. It is safe for concurrent use.
type FileIndex struct {
	path string
	now  func() time.Time

	mu    sync.RWMutex
	files map[string]Entry
	dirty bool
}

// NewFileIndex opens the index stored in dir, starting empty when the file
// does not exist yet.
func NewFileIndex(dir string) (*FileIndex, error) {
	idx := &FileIndex{
		path:  filepath.Join(dir, indexFile),
		now:   time.Now,
		files: make(map[string]Entry),
	}
	if err := idx.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return idx, nil
}

// Path is the file the index is saved to.
func (idx *FileIndex) Path() string {
	return idx.path
}

// Load replaces the in-memory entries with the saved ones.
func (idx *FileIndex) Load() error {
	b, err := os.ReadFile(idx.path)
	if err != nil {
		return err
	}
	var d onDisk
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("corrupt Drive file index %s: %w", idx.path, err)
	}
	if d.Files == nil {
		d.Files = make(map[string]Entry)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.files = d.Files
	idx.dirty = false
	return nil
}

// Save writes the index if it changed. The file is replaced atomically.
func (idx *FileIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	dir := filepath.Dir(idx.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(onDisk{Files: idx.files}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, indexFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), idx.path); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// Get returns the file ID recorded for name, or "".
func (idx *FileIndex) Get(name string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.files[name].ID
}

// Lookup returns the full entry for name.
func (idx *FileIndex) Lookup(name string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.files[name]
	return e, ok
}

// Set records fileID for name and refreshes its timestamp.
func (idx *FileIndex) Set(name, fileID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.files[name] = Entry{ID: fileID, Seen: idx.now().UTC()}
	idx.dirty = true
}

// Remove forgets name.
func (idx *FileIndex) Remove(name string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.files[name]; ok {
		delete(idx.files, name)
		idx.dirty = true
	}
}

// Len is the number of recorded names.
func (idx *FileIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}
