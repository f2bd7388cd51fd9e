package core

import "time"

// ManifestEntry holds lightweight metadata for a single session, used by the
// manifest file and the index page. It mirrors the fields of Document that
// listings need, without carrying the pages.
type ManifestEntry struct {
	SessionID   string     `json:"session_id"`
	Path        string     `json:"path"`
	PageCount   int        `json:"page_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UploadedURL string     `json:"uploaded_url,omitempty"`
	UploadedAt  *time.Time `json:"uploaded_at,omitempty"`
}

// NewManifestEntry extracts metadata from a Document and pairs it with the
// path of its backing file.
func NewManifestEntry(d *Document, path string) ManifestEntry {
	return ManifestEntry{
		SessionID: d.SessionID,
		Path:      path,
		PageCount: d.PageCount(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
