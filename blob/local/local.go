// Package local stores session archives in a directory on disk. It stands
// in for cloud storage during development and in tests.
package local

import (
	"context"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sonnes/lekhak/blob"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/fileutil"
)

const backend = "local"

// Store implements blob.Store under Dir. Keys use forward slashes.
type Store struct {
	Dir string
	// BaseURL prefixes keys in returned URLs. Empty means file:// URLs.
	BaseURL string
}

// New creates a Store rooted at dir.
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir, BaseURL: baseURL}, nil
}

// Upload implements blob.Store. Objects are stored uncompressed.
func (s *Store) Upload(ctx context.Context, localPath, key string, _ blob.UploadOptions) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}
	src, err := os.Open(localPath)
	if err != nil {
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}
	defer src.Close()

	err = fileutil.WriteAtomicFunc(dst, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
	if err != nil {
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}
	return s.url(key, dst), nil
}

// List implements blob.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, &core.StorageError{Backend: backend, Op: "list", Key: prefix, Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements blob.Store.
func (s *Store) Delete(ctx context.Context, keys []string) error {
	for _, key := range keys {
		path, err := s.path(key)
		if err == nil {
			err = fileutil.Remove(path)
		}
		if err != nil {
			return &core.StorageError{Backend: backend, Op: "delete", Key: key, Err: err}
		}
	}
	return nil
}

// SetCORS implements blob.Store. A directory has no CORS rules.
func (s *Store) SetCORS(context.Context, []blob.CORSRule) error {
	return nil
}

// path maps a key to a file under Dir, rejecting keys that escape it.
func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fs.ErrInvalid
	}
	return filepath.Join(s.Dir, clean), nil
}

func (s *Store) url(key, path string) string {
	if s.BaseURL != "" {
		return strings.TrimSuffix(s.BaseURL, "/") + "/" + key
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
