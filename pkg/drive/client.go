// Package drive moves planning workbooks to and from Google Drive.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/planboard/pkg/auth"
	"github.com/harrisonrobin/planboard/pkg/index"
)

// XLSXMimeType is the content type of uploaded workbooks.
const XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Scopes are the OAuth scopes the client needs. Full drive access is
// required to find workbooks the app did not create.
var Scopes = []string{drive.DriveScope}

var ErrNotFound = errors.New("file not found in Drive")

// File identifies a Drive file.
type File struct {
	ID   string
	Name string
}

// Client is a Google Drive API client.
type Client struct {
	srv    *drive.Service
	index  *index.FileIndex
	logger *zap.Logger
}

// NewClient wraps an existing Drive service. idx may be nil.
func NewClient(srv *drive.Service, idx *index.FileIndex, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{srv: srv, index: idx, logger: logger}
}

// Connect authorizes with a and returns a client for the Drive API.
func Connect(ctx context.Context, a *auth.Authenticator, idx *index.FileIndex, logger *zap.Logger) (*Client, error) {
	hc, err := a.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Drive API: %w", err)
	}
	srv, err := drive.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}
	return NewClient(srv, idx, logger), nil
}

// Get returns the metadata of a file. Trashed files count as missing.
func (c *Client) Get(ctx context.Context, id string) (*File, error) {
	f, err := c.srv.Files.Get(id).Fields("id, name, trashed").Context(ctx).Do()
	if err != nil {
		return nil, wrap(err, id)
	}
	if f.Trashed {
		return nil, fmt.Errorf("%w: %s is in the trash", ErrNotFound, id)
	}
	return &File{ID: f.Id, Name: f.Name}, nil
}

// FindByName resolves a workbook name to a file. The local index is tried
// first; a stale entry falls back to a search query.
func (c *Client) FindByName(ctx context.Context, name string) (*File, error) {
	if c.index != nil {
		if id := c.index.Get(name); id != "" {
			f, err := c.Get(ctx, id)
			if err == nil && f.Name == name {
				return f, nil
			}
			c.logger.Debug("Index entry is stale, searching", zap.String("name", name), zap.String("id", id))
			c.index.Remove(name)
		}
	}

	q := fmt.Sprintf("name = '%s' and trashed = false", escape(name))
	list, err := c.srv.Files.List().Q(q).Fields("files(id, name)").PageSize(10).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error searching Drive for %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if len(list.Files) > 1 {
		c.logger.Warn("Several files share this name, using the first", zap.String("name", name), zap.Int("matches", len(list.Files)))
	}

	f := list.Files[0]
	if c.index != nil {
		c.index.Set(name, f.Id)
	}
	return &File{ID: f.Id, Name: f.Name}, nil
}

// Download copies the content of a file to w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.srv.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return 0, wrap(err, id)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read content of %s: %w", id, err)
	}
	return n, nil
}

// Upload creates a new workbook named name, inside folderID when it is set.
func (c *Client) Upload(ctx context.Context, name, folderID string, r io.Reader) (*File, error) {
	meta := &drive.File{Name: name, MimeType: XLSXMimeType}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	f, err := c.srv.Files.Create(meta).Media(r).Fields("id, name").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	c.logger.Info("Uploaded workbook", zap.String("name", f.Name), zap.String("id", f.Id))
	if c.index != nil {
		c.index.Set(f.Name, f.Id)
	}
	return &File{ID: f.Id, Name: f.Name}, nil
}

// SaveIndex persists the name index if the client has one.
func (c *Client) SaveIndex() error {
	if c.index == nil {
		return nil
	}
	return c.index.Save()
}

func wrap(err error, id string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fmt.Errorf("drive request for %s failed: %w", id, err)
}

// escape quotes a value for a Drive search query.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
