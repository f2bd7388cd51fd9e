package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sonnes/lekhak/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, created time.Time) core.ManifestEntry {
	return core.ManifestEntry{
		SessionID: id,
		Path:      "/sessions/" + id + ".pdf",
		PageCount: 1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestReadFileNotExist(t *testing.T) {
	m, err := ReadFile(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Empty(t, m.Entries)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	e := entry("abc", now)
	e.PageCount = 7
	e.UploadedURL = "https://storage.googleapis.com/b/session/abc.pdf"
	e.UploadedAt = &now

	m := &Manifest{Entries: []core.ManifestEntry{e}}
	require.NoError(t, m.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "abc", got.Entries[0].SessionID)
	assert.Equal(t, 7, got.Entries[0].PageCount)
	assert.Equal(t, e.UploadedURL, got.Entries[0].UploadedURL)
	require.NotNil(t, got.Entries[0].UploadedAt)
	assert.True(t, now.Equal(*got.Entries[0].UploadedAt))
}

func TestReadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestUpsertAppend(t *testing.T) {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	m := &Manifest{}

	m.Upsert(entry("a", now))
	m.Upsert(entry("b", now.Add(time.Hour)))

	require.Len(t, m.Entries, 2)
	assert.Equal(t, "b", m.Entries[0].SessionID, "newest first")
	assert.Equal(t, "a", m.Entries[1].SessionID)
}

func TestUpsertReplaceKeepsUpload(t *testing.T) {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	m := &Manifest{}

	uploaded := entry("a", now)
	uploaded.UploadedURL = "https://example.test/a.pdf"
	uploaded.UploadedAt = &now
	m.Upsert(uploaded)

	grown := entry("a", now)
	grown.PageCount = 3
	m.Upsert(grown)

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, "https://example.test/a.pdf", got.UploadedURL)
	assert.Len(t, m.Entries, 1)
}

func TestUpsertSortsNewestFirst(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m := &Manifest{}
	m.Upsert(entry("old", t0))
	m.Upsert(entry("new", t0.Add(2*time.Hour)))
	m.Upsert(entry("mid", t0.Add(time.Hour)))

	require.Len(t, m.Entries, 3)
	assert.Equal(t, "new", m.Entries[0].SessionID)
	assert.Equal(t, "mid", m.Entries[1].SessionID)
	assert.Equal(t, "old", m.Entries[2].SessionID)
}

func TestRemove(t *testing.T) {
	now := time.Now()
	m := &Manifest{}
	m.Upsert(entry("a", now))
	m.Upsert(entry("b", now))

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Len(t, m.Entries, 1)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	m := &Manifest{Entries: []core.ManifestEntry{entry("x", time.Now())}}
	require.NoError(t, m.WriteFile(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestWriteFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	m := &Manifest{}
	require.NoError(t, m.WriteFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
