// Package store persists transcript documents, one PDF per session, in a
// single directory. A session id maps to exactly one file, <dir>/<id>.pdf,
// and every read-modify-write of that file is serialized per path.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/fileutil"
	"github.com/sonnes/lekhak/manifest"
	"github.com/sonnes/lekhak/render/pdf"
)

// ErrInvalidSessionID is returned for ids that cannot name a session file.
var ErrInvalidSessionID = errors.New("invalid session id")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateSessionID reports whether id can be used as a session id.
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

// Store reads and writes session documents under Dir.
type Store struct {
	Dir     string
	Size    core.Size
	Encoder *pdf.Encoder
	Logger  *log.Logger
	// Now stamps UpdatedAt on save. Nil means time.Now.
	Now func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock

	manifestMu sync.Mutex
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, size core.Size, enc *pdf.Encoder, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		Dir:     dir,
		Size:    size,
		Encoder: enc,
		Logger:  logger,
		locks:   make(map[string]*sessionLock),
	}, nil
}

// Path returns the backing file of a session.
func (s *Store) Path(id string) (string, error) {
	if err := ValidateSessionID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, id+".pdf"), nil
}

// ManifestPath returns the location of the session index.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.Dir, manifest.FileName)
}

// Exists reports whether a session has a backing file.
func (s *Store) Exists(id string) bool {
	path, err := s.Path(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// ReadPDF returns the raw bytes of a session file.
func (s *Store) ReadPDF(id string) ([]byte, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: session %s", core.ErrDocumentNotFound, id)
	}
	return data, err
}

// Load reads and decodes a session document.
func (s *Store) Load(ctx context.Context, id string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.ReadPDF(id)
	if err != nil {
		return nil, err
	}
	d, err := pdf.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return d, nil
}

// Save encodes d and atomically replaces its session file.
func (s *Store) Save(ctx context.Context, d *core.Document) error {
	unlock, err := s.lock(ctx, d.SessionID)
	if err != nil {
		return err
	}
	defer unlock()
	return s.save(d)
}

// Update runs fn against the current document of a session and saves the
// result. The session is locked for the whole read-modify-write. When no
// document exists, a new empty one is passed to fn if create is set;
// otherwise Update fails with core.ErrDocumentNotFound. If fn returns an
// error nothing is written.
func (s *Store) Update(ctx context.Context, id string, create bool, fn func(d *core.Document) error) (*core.Document, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	d, err := s.Load(ctx, id)
	switch {
	case errors.Is(err, core.ErrDocumentNotFound) && create:
		d = core.NewDocument(id, s.Size, s.now())
		s.Logger.Info("creating session document", "session", id)
	case err != nil:
		return nil, err
	}

	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.save(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Clear removes every page of a session by deleting its file. A missing or
// empty file, or one that does not start with the PDF header, is left alone
// and Clear reports false.
func (s *Store) Clear(ctx context.Context, id string) (bool, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	path, err := s.Path(id)
	if err != nil {
		return false, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		s.Logger.Info("no session file to clear", "session", id)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	head := make([]byte, len(pdf.Header))
	n, err := io.ReadFull(f, head)
	f.Close()
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	if n == 0 {
		s.Logger.Info("session file is empty, nothing to clear", "session", id)
		return false, nil
	}
	if !bytes.Equal(head[:n], pdf.Header) {
		s.Logger.Warn("session file is not a PDF, leaving it in place", "session", id, "path", path)
		return false, nil
	}

	if err := fileutil.Remove(path); err != nil {
		return false, fmt.Errorf("clear session %s: %w", id, err)
	}
	s.forget(id)
	s.Logger.Info("cleared session", "session", id)
	return true, nil
}

// Sessions returns the manifest entries, newest first.
func (s *Store) Sessions() ([]core.ManifestEntry, error) {
	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()
	m, err := manifest.ReadFile(s.ManifestPath())
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return m.Entries, nil
}

// MarkUploaded records where a session was archived.
func (s *Store) MarkUploaded(id, url string, at time.Time) error {
	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()

	m, err := manifest.ReadFile(s.ManifestPath())
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	e, ok := m.Get(id)
	if !ok {
		path, _ := s.Path(id)
		e = core.ManifestEntry{SessionID: id, Path: path, CreatedAt: at, UpdatedAt: at}
	}
	e.UploadedURL = url
	e.UploadedAt = &at
	m.Upsert(e)
	return m.WriteFile(s.ManifestPath())
}

func (s *Store) save(d *core.Document) error {
	path, err := s.Path(d.SessionID)
	if err != nil {
		return err
	}
	d.UpdatedAt = s.now()

	err = fileutil.WriteAtomicFunc(path, 0o644, func(w io.Writer) error {
		return s.Encoder.Render(w, d)
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", d.SessionID, err)
	}
	s.record(core.NewManifestEntry(d, path))
	return nil
}

// record upserts a manifest entry. The document is already durable, so a
// manifest failure is logged rather than returned.
func (s *Store) record(e core.ManifestEntry) {
	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()

	m, err := manifest.ReadFile(s.ManifestPath())
	if err == nil {
		m.Upsert(e)
		err = m.WriteFile(s.ManifestPath())
	}
	if err != nil {
		s.Logger.Warn("failed to update manifest", "session", e.SessionID, "err", err)
	}
}

func (s *Store) forget(id string) {
	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()

	m, err := manifest.ReadFile(s.ManifestPath())
	if err == nil && m.Remove(id) {
		err = m.WriteFile(s.ManifestPath())
	}
	if err != nil {
		s.Logger.Warn("failed to update manifest", "session", id, "err", err)
	}
}

// sessionLock serializes access to one session. refs counts holders and
// waiters; the entry leaves Store.locks when it drops to zero.
type sessionLock struct {
	ch   chan struct{}
	refs int
}

// lock acquires the per-session lock, giving up when ctx is done.
func (s *Store) lock(ctx context.Context, id string) (func(), error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{ch: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			s.release(id, l)
		}, nil
	case <-ctx.Done():
		s.release(id, l)
		return nil, ctx.Err()
	}
}

func (s *Store) release(id string, l *sessionLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC().Round(0)
}
