package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentNotFound is returned when a session has no backing document
	// and the caller did not ask for one to be created.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidDocument is returned when the backing bytes do not parse as a
	// transcript document.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrUnsupportedGlyph is returned when text contains characters the
	// active font cannot encode. It is recoverable at the word level.
	ErrUnsupportedGlyph = errors.New("unsupported glyph")
)

// ProviderError wraps a failure of an external generation or speech API.
type ProviderError struct {
	Provider  string // "gemini", "vertex", "googletts"
	Op        string // "generate", "synthesize"
	Retryable bool   // set when the call timed out
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error [%s] %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure of the blob storage backend.
type StorageError struct {
	Backend string // "gcs", "drive", "local"
	Op      string // "upload", "list", "delete", "cors"
	Key     string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage error [%s] %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("storage error [%s] %s %s: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a provider failure worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}
