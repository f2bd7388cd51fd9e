// Package blob defines the archive storage that finished session
// transcripts are uploaded to.
package blob

import (
	"context"
	"net/http"
	"time"
)

// SessionCacheControl is the Cache-Control header set on uploaded
// transcripts. Archived sessions never change.
const SessionCacheControl = "public, max-age=31536000"

// Store uploads, lists and deletes objects by key.
type Store interface {
	// Upload copies the file at localPath to key and returns its public URL.
	Upload(ctx context.Context, localPath, key string, opts UploadOptions) (string, error)
	// List returns the keys that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys []string) error
	// SetCORS replaces the cross-origin rules of the store, where the
	// backend has any.
	SetCORS(ctx context.Context, rules []CORSRule) error
}

// UploadOptions control object metadata.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	// Gzip compresses the object and marks it Content-Encoding: gzip.
	Gzip bool
}

// CORSRule allows browsers on Origins to issue Methods against the store.
type CORSRule struct {
	Origins         []string
	Methods         []string
	ResponseHeaders []string
	MaxAge          time.Duration
}

// DefaultCORS lets any origin read and write session objects.
var DefaultCORS = []CORSRule{{
	Origins: []string{"*"},
	Methods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
}}
