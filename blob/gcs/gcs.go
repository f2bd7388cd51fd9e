// Package gcs stores session archives in a Google Cloud Storage bucket.
package gcs

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/blob"
	"github.com/sonnes/lekhak/core"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const backend = "gcs"

// Store implements blob.Store on a single bucket.
type Store struct {
	client *storage.Client
	bucket string
	logger *log.Logger
}

// New opens a client for bucket. Extra options (credentials, endpoint) are
// passed to the storage client.
func New(ctx context.Context, bucket string, logger *log.Logger, opts ...option.ClientOption) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket name is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{client: client, bucket: bucket, logger: logger}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Upload implements blob.Store.
func (s *Store) Upload(ctx context.Context, localPath, key string, opts blob.UploadOptions) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}
	defer f.Close()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.CacheControl = opts.CacheControl
	if opts.Gzip {
		w.ContentEncoding = "gzip"
	}

	if err := copyContent(w, f, opts.Gzip); err != nil {
		w.Close()
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &core.StorageError{Backend: backend, Op: "upload", Key: key, Err: err}
	}

	u := PublicURL(s.bucket, key)
	s.logger.Info("uploaded object", "bucket", s.bucket, "key", key, "url", u)
	return u, nil
}

// List implements blob.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &core.StorageError{Backend: backend, Op: "list", Key: prefix, Err: err}
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Delete implements blob.Store.
func (s *Store) Delete(ctx context.Context, keys []string) error {
	for _, key := range keys {
		err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return &core.StorageError{Backend: backend, Op: "delete", Key: key, Err: err}
		}
		s.logger.Debug("deleted object", "bucket", s.bucket, "key", key)
	}
	return nil
}

// SetCORS implements blob.Store.
func (s *Store) SetCORS(ctx context.Context, rules []blob.CORSRule) error {
	_, err := s.client.Bucket(s.bucket).Update(ctx, storage.BucketAttrsToUpdate{CORS: toCORS(rules)})
	if err != nil {
		return &core.StorageError{Backend: backend, Op: "cors", Key: s.bucket, Err: err}
	}
	return nil
}

// PublicURL is the storage.googleapis.com address of an object.
func PublicURL(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "https://storage.googleapis.com/" + bucket + "/" + strings.Join(parts, "/")
}

func toCORS(rules []blob.CORSRule) []storage.CORS {
	out := make([]storage.CORS, 0, len(rules))
	for _, r := range rules {
		out = append(out, storage.CORS{
			Origins:         r.Origins,
			Methods:         r.Methods,
			ResponseHeaders: r.ResponseHeaders,
			MaxAge:          r.MaxAge,
		})
	}
	return out
}

// copyContent copies r to w, gzip-compressing it when compress is set.
func copyContent(w io.Writer, r io.Reader, compress bool) error {
	if !compress {
		_, err := io.Copy(w, r)
		return err
	}
	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, r); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
