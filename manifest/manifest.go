// Package manifest manages the session index file (manifest.json) kept next
// to the transcript PDFs. It lets listings show every session without
// opening each document.
package manifest

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/fileutil"
)

// FileName is the name of the manifest inside a session directory.
const FileName = "manifest.json"

// Manifest holds the list of session metadata entries.
type Manifest struct {
	Entries []core.ManifestEntry `json:"entries"`
}

// ReadFile reads a manifest from disk. Returns an empty Manifest if the file
// does not exist.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Get returns the entry for a session.
func (m *Manifest) Get(sessionID string) (core.ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.SessionID == sessionID {
			return e, true
		}
	}
	return core.ManifestEntry{}, false
}

// Upsert adds or replaces an entry matched by SessionID. Upload details of
// an existing entry survive when the new entry carries none. After
// upserting, the entries are sorted newest-first by CreatedAt.
func (m *Manifest) Upsert(entry core.ManifestEntry) {
	for i, e := range m.Entries {
		if e.SessionID == entry.SessionID {
			if entry.UploadedAt == nil {
				entry.UploadedURL = e.UploadedURL
				entry.UploadedAt = e.UploadedAt
			}
			m.Entries[i] = entry
			m.sort()
			return
		}
	}
	m.Entries = append(m.Entries, entry)
	m.sort()
}

// Remove drops the entry for a session. It reports whether one existed.
func (m *Manifest) Remove(sessionID string) bool {
	for i, e := range m.Entries {
		if e.SessionID == sessionID {
			m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manifest) sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		return m.Entries[i].CreatedAt.After(m.Entries[j].CreatedAt)
	})
}

// WriteFile writes the manifest to disk atomically.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return fileutil.WriteAtomic(path, data, 0o644)
}
