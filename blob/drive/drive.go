// Package drive stores session archives in a Google Drive folder. Object
// keys become file names; Drive has no prefix listing, so List filters the
// folder contents by name.
package drive

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/blob"
	"github.com/sonnes/lekhak/core"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const backend = "drive"

// Store implements blob.Store on a Drive folder.
type Store struct {
	srv      *gdrive.Service
	folderID string
	logger   *log.Logger
}

// New creates a Drive client scoped to files the app creates.
func New(ctx context.Context, folderID string, logger *log.Logger, opts ...option.ClientOption) (*Store, error) {
	opts = append([]option.ClientOption{option.WithScopes(gdrive.DriveFileScope)}, opts...)
	srv, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}
	return NewWithService(srv, folderID, logger), nil
}

// NewWithService wraps an existing Drive service.
func NewWithService(srv *gdrive.Service, folderID string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{srv: srv, folderID: folderID, logger: logger}
}

// Upload implements blob.Store. Drive stores files as given, so Gzip and
// CacheControl are ignored. The returned URL is the file's web view link.
func (s *Store) Upload(ctx context.Context, localPath, key string, opts blob.UploadOptions) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}
	defer f.Close()

	mimeType := opts.ContentType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(key))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file := &gdrive.File{Name: key, MimeType: mimeType}
	if s.folderID != "" {
		file.Parents = []string{s.folderID}
	}

	created, err := s.srv.Files.Create(file).
		Context(ctx).
		Fields("id", "webViewLink").
		Media(f, googleapi.ChunkSize(2*1024*1024)).
		Do()
	if err != nil {
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}

	link := created.WebViewLink
	if link == "" {
		got, err := s.srv.Files.Get(created.Id).Fields("id", "webViewLink").Context(ctx).Do()
		if err == nil {
			link = got.WebViewLink
		}
	}
	if link == "" {
		link = "https://drive.google.com/file/d/" + created.Id + "/view"
	}
	s.logger.Info("uploaded file", "key", key, "id", created.Id)
	return link, nil
}

// List implements blob.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := s.find(ctx, prefix)
	if err != nil {
		return nil, &core.StorageError{Backend: backend, Op: "list", Key: prefix, Err: err}
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.Name)
	}
	return keys, nil
}

// Delete implements blob.Store. Every file carrying one of the keys as its
// name is removed.
func (s *Store) Delete(ctx context.Context, keys []string) error {
	for _, key := range keys {
		files, err := s.find(ctx, key)
		if err != nil {
			return &core.StorageError{Backend: backend, Op: "delete", Key: key, Err: err}
		}
		for _, f := range files {
			if f.Name != key {
				continue
			}
			err := s.srv.Files.Delete(f.Id).Context(ctx).Do()
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
				continue
			}
			if err != nil {
				return &core.StorageError{Backend: backend, Op: "delete", Key: key, Err: err}
			}
		}
	}
	return nil
}

// SetCORS implements blob.Store. Drive has no CORS configuration.
func (s *Store) SetCORS(context.Context, []blob.CORSRule) error {
	s.logger.Debug("drive has no CORS settings, skipping")
	return nil
}

// find returns the files in the folder whose name starts with prefix.
func (s *Store) find(ctx context.Context, prefix string) ([]*gdrive.File, error) {
	q := "trashed = false"
	if s.folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escape(s.folderID))
	}
	if prefix != "" {
		q += fmt.Sprintf(" and name contains '%s'", escape(prefix))
	}

	var out []*gdrive.File
	err := s.srv.Files.List().
		Q(q).
		Fields("nextPageToken", "files(id, name)").
		Context(ctx).
		Pages(ctx, func(page *gdrive.FileList) error {
			for _, f := range page.Files {
				if strings.HasPrefix(f.Name, prefix) {
					out = append(out, f)
				}
			}
			return nil
		})
	return out, err
}

// escape quotes a value for a Drive query string literal.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
