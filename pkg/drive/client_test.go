package drive

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/planboard/pkg/index"
)

// fakeDrive serves the handful of Drive v3 endpoints the client uses.
type fakeDrive struct {
	mu       sync.Mutex
	files    map[string]fakeFile
	queries  []string
	uploaded []byte
}

type fakeFile struct {
	name    string
	content string
	trashed bool
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/files"):
		body, _ := io.ReadAll(r.Body)
		f.uploaded = body
		f.files["up-1"] = fakeFile{name: "export.xlsx"}
		json.NewEncoder(w).Encode(map[string]any{"id": "up-1", "name": "export.xlsx"})
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/files"):
		q := r.URL.Query().Get("q")
		f.queries = append(f.queries, q)
		var out []map[string]any
		for id, file := range f.files {
			if !file.trashed && strings.Contains(q, "'"+file.name+"'") {
				out = append(out, map[string]any{"id": id, "name": file.name})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"files": out})
	case r.Method == http.MethodGet && strings.Contains(path, "/files/"):
		id := path[strings.LastIndex(path, "/")+1:]
		file, ok := f.files[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 404, "message": "File not found"}})
			return
		}
		if r.URL.Query().Get("alt") == "media" {
			w.Header().Set("Content-Type", "application/octet-stream")
			io.WriteString(w, file.content)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": id, "name": file.name, "trashed": file.trashed})
	default:
		http.Error(w, "unexpected request "+r.Method+" "+path, http.StatusTeapot)
	}
}

func newTestClient(t *testing.T, fake *fakeDrive, idx *index.FileIndex) *Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	srv, err := drive.NewService(t.Context(),
		option.WithoutAuthentication(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return NewClient(srv, idx, nil)
}

func TestFindByNameSearchesAndIndexes(t *testing.T) {
	fake := &fakeDrive{files: map[string]fakeFile{
		"f1": {name: "Plan.xlsx", content: "xlsx-bytes"},
	}}
	idx, err := index.NewFileIndex(t.TempDir())
	require.NoError(t, err)
	c := newTestClient(t, fake, idx)

	f, err := c.FindByName(t.Context(), "Plan.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	assert.Equal(t, "f1", idx.Get("Plan.xlsx"))
	require.Len(t, fake.queries, 1)
	assert.Equal(t, "name = 'Plan.xlsx' and trashed = false", fake.queries[0])

	// Second lookup is served from the index.
	_, err = c.FindByName(t.Context(), "Plan.xlsx")
	require.NoError(t, err)
	assert.Len(t, fake.queries, 1)
}

func TestFindByNameDropsStaleIndexEntry(t *testing.T) {
	fake := &fakeDrive{files: map[string]fakeFile{
		"new": {name: "Plan.xlsx"},
		"old": {name: "Plan.xlsx", trashed: true},
	}}
	idx, err := index.NewFileIndex(t.TempDir())
	require.NoError(t, err)
	idx.Set("Plan.xlsx", "old")
	c := newTestClient(t, fake, idx)

	f, err := c.FindByName(t.Context(), "Plan.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "new", f.ID)
	assert.Equal(t, "new", idx.Get("Plan.xlsx"))
}

func TestFindByNameNotFound(t *testing.T) {
	c := newTestClient(t, &fakeDrive{files: map[string]fakeFile{}}, nil)
	_, err := c.FindByName(t.Context(), "Missing.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMissingFile(t *testing.T) {
	c := newTestClient(t, &fakeDrive{files: map[string]fakeFile{}}, nil)
	_, err := c.Get(t.Context(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload(t *testing.T) {
	fake := &fakeDrive{files: map[string]fakeFile{"f1": {name: "Plan.xlsx", content: "xlsx-bytes"}}}
	c := newTestClient(t, fake, nil)

	var buf bytes.Buffer
	n, err := c.Download(t.Context(), "f1", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "xlsx-bytes", buf.String())
}

func TestUpload(t *testing.T) {
	fake := &fakeDrive{files: map[string]fakeFile{}}
	idx, err := index.NewFileIndex(t.TempDir())
	require.NoError(t, err)
	c := newTestClient(t, fake, idx)

	f, err := c.Upload(t.Context(), "export.xlsx", "folder-9", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "up-1", f.ID)
	assert.Equal(t, "up-1", idx.Get("export.xlsx"))
	assert.Contains(t, string(fake.uploaded), "payload")
	assert.Contains(t, string(fake.uploaded), "folder-9")
	require.NoError(t, c.SaveIndex())
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `Bob\'s plan.xlsx`, escape("Bob's plan.xlsx"))
	assert.Equal(t, `a\\b`, escape(`a\b`))
}
