package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/layout"
	"github.com/sonnes/lekhak/render/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *layout.Composer) {
	t.Helper()
	c, err := layout.NewComposer(layout.Default(), nil, log.New(io.Discard))
	require.NoError(t, err)

	s, err := New(t.TempDir(), c.Layout.Size(), pdf.NewEncoder("Helvetica"), log.New(io.Discard))
	require.NoError(t, err)
	return s, c
}

func appendTurn(t *testing.T, s *Store, c *layout.Composer, id string, q, a string) *core.Document {
	t.Helper()
	d, err := s.Update(context.Background(), id, true, func(d *core.Document) error {
		d.AddPage(c.Chat(d, core.ChatTurn{Question: q, Answer: a}))
		c.Stamp(d)
		return nil
	})
	require.NoError(t, err)
	return d
}

func TestValidateSessionID(t *testing.T) {
	valid := []string{"userSession", "a", "abc-123_X", "0", strings.Repeat("a", 64)}
	for _, id := range valid {
		assert.NoError(t, ValidateSessionID(id), id)
	}

	invalid := []string{"", "../etc/passwd", "a/b", "-lead", "_lead", "has space", "dot.pdf", strings.Repeat("a", 65)}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateSessionID(id), ErrInvalidSessionID, "%q", id)
	}
}

func TestPath(t *testing.T) {
	s, _ := newTestStore(t)

	p, err := s.Path("userSession")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir, "userSession.pdf"), p)

	_, err = s.Path("../x")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

func TestUpdateMissingWithoutCreate(t *testing.T) {
	s, _ := newTestStore(t)

	called := false
	_, err := s.Update(context.Background(), "nope", false, func(*core.Document) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
	assert.False(t, called)
	assert.False(t, s.Exists("nope"))
}

func TestUpdateCreatesDocument(t *testing.T) {
	s, c := newTestStore(t)

	d := appendTurn(t, s, c, "s1", "What is 2+2?", "4")
	require.Equal(t, 1, d.PageCount())
	assert.Equal(t, []string{"Question:", "What is 2+2?", "Answer:", "4", "Page 1 of 1"}, d.Pages[0].Texts())
	assert.True(t, s.Exists("s1"))

	data, err := s.ReadPDF("s1")
	require.NoError(t, err)
	assert.Contains(t, string(data), "(Page 1 of 1) Tj")

	entries, err := s.Sessions()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].SessionID)
	assert.Equal(t, 1, entries[0].PageCount)
}

func TestRoundTrip(t *testing.T) {
	s, c := newTestStore(t)

	saved := appendTurn(t, s, c, "s1", "héllo wörld", "naïve café")
	loaded, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestMonotonicGrowth(t *testing.T) {
	s, c := newTestStore(t)

	appendTurn(t, s, c, "s1", "first", "one")
	before := appendTurn(t, s, c, "s1", "second", "two")
	require.Equal(t, 2, before.PageCount())

	after := appendTurn(t, s, c, "s1", "third", "three")
	require.Equal(t, 3, after.PageCount())

	for i := 0; i < 2; i++ {
		assert.Equal(t, before.Pages[i].Ops, after.Pages[i].Ops, "page %d content", i+1)
	}
	for i, p := range after.Pages {
		require.NotNil(t, p.Footer)
		assert.Equal(t, fmt.Sprintf("Page %d of 3", i+1), p.Footer.Text)
	}

	data, err := s.ReadPDF("s1")
	require.NoError(t, err)
	n, err := pdf.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NotContains(t, string(data), "of 2) Tj")
}

func TestUpdateFuncErrorWritesNothing(t *testing.T) {
	s, c := newTestStore(t)
	appendTurn(t, s, c, "s1", "q", "a")
	before, err := s.ReadPDF("s1")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(context.Background(), "s1", false, func(d *core.Document) error {
		d.AddPage(c.Chat(d, core.ChatTurn{Question: "x", Answer: "y"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := s.ReadPDF("s1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateInvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not a pdf", data: "hello"},
		{name: "corrupt pdf", data: "%PDF-1.7\nnot really"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			path, err := s.Path("bad")
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err = s.Update(context.Background(), "bad", true, func(*core.Document) error { return nil })
			assert.ErrorIs(t, err, core.ErrInvalidDocument)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(got), "file untouched")
		})
	}
}

func TestClearFivePages(t *testing.T) {
	s, c := newTestStore(t)
	for i := 0; i < 5; i++ {
		appendTurn(t, s, c, "s1", fmt.Sprintf("q%d", i), "a")
	}

	cleared, err := s.Clear(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, cleared)

	assert.False(t, s.Exists("s1"))
	_, err = s.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound, "zero pages remain")

	entries, err := s.Sessions()
	require.NoError(t, err)
	assert.Empty(t, entries)

	d := appendTurn(t, s, c, "s1", "again", "fresh")
	assert.Equal(t, 1, d.PageCount(), "a cleared session starts over")
}

func TestClearNoop(t *testing.T) {
	tests := []struct {
		name string
		data *string
	}{
		{name: "missing file"},
		{name: "empty file", data: ptr("")},
		{name: "not a pdf", data: ptr("plain text")},
		{name: "short header", data: ptr("%P")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			path, err := s.Path("s1")
			require.NoError(t, err)
			if tt.data != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.data), 0o644))
			}

			cleared, err := s.Clear(context.Background(), "s1")
			require.NoError(t, err)
			assert.False(t, cleared)

			if tt.data != nil {
				got, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, *tt.data, string(got))
			}
		})
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	s, c := newTestStore(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(context.Background(), "s1", true, func(d *core.Document) error {
				d.AddPage(c.Chat(d, core.ChatTurn{Question: fmt.Sprintf("q%d", i), Answer: "a"}))
				c.Stamp(d)
				return nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	d, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, n, d.PageCount(), "no append lost")
}

func TestLockHonorsContext(t *testing.T) {
	s, _ := newTestStore(t)

	unlock, err := s.lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Update(ctx, "s1", true, func(*core.Document) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockReleasedOnError(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Update(context.Background(), "s1", false, func(*core.Document) error { return nil })
	require.ErrorIs(t, err, core.ErrDocumentNotFound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := s.lock(ctx, "s1")
	require.NoError(t, err)
	unlock()
}

func lockCount(s *Store) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func TestLocksDroppedAfterUse(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("ws-%d", i)
		appendTurn(t, s, c, id, "q", "a")
		_, err := s.Clear(ctx, id)
		require.NoError(t, err)
	}
	assert.Zero(t, lockCount(s))

	_, err := s.Update(ctx, "missing", false, func(*core.Document) error { return nil })
	require.ErrorIs(t, err, core.ErrDocumentNotFound)
	assert.Zero(t, lockCount(s), "failed update releases its entry")
}

func TestLockEntrySharedByWaiters(t *testing.T) {
	s, _ := newTestStore(t)

	unlock, err := s.lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.lock(ctx, "s1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, lockCount(s), "holder keeps the entry after a waiter gives up")

	acquired := make(chan func())
	go func() {
		next, err := s.lock(context.Background(), "s1")
		if err == nil {
			acquired <- next
		}
	}()

	unlock()
	select {
	case next := <-acquired:
		assert.Equal(t, 1, lockCount(s))
		next()
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Zero(t, lockCount(s))
}

func TestMarkUploaded(t *testing.T) {
	s, c := newTestStore(t)
	appendTurn(t, s, c, "s1", "q", "a")

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkUploaded("s1", "https://storage.googleapis.com/b/session/s1.pdf", at))

	entries, err := s.Sessions()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://storage.googleapis.com/b/session/s1.pdf", entries[0].UploadedURL)
	require.NotNil(t, entries[0].UploadedAt)
	assert.True(t, at.Equal(*entries[0].UploadedAt))

	appendTurn(t, s, c, "s1", "q2", "a2")
	entries, err = s.Sessions()
	require.NoError(t, err)
	assert.Equal(t, 2, entries[0].PageCount)
	assert.NotEmpty(t, entries[0].UploadedURL, "upload survives later saves")
}

func ptr(s string) *string { return &s }
