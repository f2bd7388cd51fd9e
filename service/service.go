// Package service implements the chat backend operations on top of the
// providers, the transcript store and the archive.
package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/blob"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/events"
	"github.com/sonnes/lekhak/history"
	"github.com/sonnes/lekhak/provider"
	"github.com/sonnes/lekhak/redact"
	"github.com/sonnes/lekhak/store"
	"github.com/sonnes/lekhak/transcript"
)

// DefaultPrompt is prepended to every user message when no prompt is set.
const DefaultPrompt = "You are an expert in giving optimal and best answer for questions asked by the user. " +
	"Now your task is to provide the best answer for the given question by the user. " +
	"The question might be related to anything. " +
	"The question you must answer is: "

// DefaultSession is used when a request names no session.
const DefaultSession = "userSession"

// UploadPrefix is the key prefix of archived sessions.
const UploadPrefix = "session/"

var (
	// ErrInvalidRequest marks input the caller must fix.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUploadDisabled is returned when no archive backend is configured.
	ErrUploadDisabled = errors.New("session upload is not configured")
)

// Config holds the tunables of a Service.
type Config struct {
	Prompt           string
	DefaultSession   string
	ClearAfterUpload bool
	CORS             []blob.CORSRule
}

// Service wires the chat operations together. Speech, Blob, HistoryStore,
// Redactor and Events are optional.
type Service struct {
	Config

	Generator    provider.Generator
	Speech       provider.Synthesizer
	Transcripts  *transcript.Appender
	Store        *store.Store
	Blob         blob.Store
	HistoryStore history.Store
	Events       events.Publisher
	Redactor     *redact.Redactor
	Logger       *log.Logger
	Now          func() time.Time
}

// Reply is the outcome of Respond.
type Reply struct {
	Session string
	Answer  string
	Audio   *provider.Audio
	Pages   int
}

// Upload is the outcome of UploadSession.
type Upload struct {
	Session string
	Key     string
	URL     string
	Cleared bool
}

// Respond asks the generator to answer message, optionally synthesizes the
// answer, and appends the exchange to the session transcript. Speech,
// history and event failures are logged; generation and transcript failures
// fail the request.
func (s *Service) Respond(ctx context.Context, session, message string, audio bool) (*Reply, error) {
	session, err := s.session(session)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: userMessage is required", ErrInvalidRequest)
	}

	answer, err := s.Generator.Generate(ctx, s.prompt()+message)
	if err != nil {
		return nil, err
	}

	reply := &Reply{Session: session, Answer: answer}
	if audio && s.Speech != nil {
		a, err := s.Speech.Synthesize(ctx, answer)
		if err != nil {
			s.logger().Warn("speech synthesis failed, replying without audio", "session", session, "err", err)
		} else {
			reply.Audio = a
		}
	}

	turn := core.ChatTurn{Question: message, Answer: answer, At: s.now()}
	if s.Redactor != nil {
		turn = s.Redactor.Turn(turn)
	}

	d, err := s.Transcripts.AppendChat(ctx, session, turn, transcript.Options{Create: true})
	if err != nil {
		return nil, err
	}
	reply.Pages = d.PageCount()

	if s.HistoryStore != nil {
		if err := s.HistoryStore.Append(ctx, session, turn); err != nil {
			s.logger().Warn("failed to record history", "session", session, "err", err)
		}
	}
	s.publish(ctx, events.Event{
		Type:      events.ChatAppended,
		SessionID: session,
		Pages:     reply.Pages,
		Question:  turn.Question,
		Answer:    turn.Answer,
	})
	return reply, nil
}

// AppendDealerInfo adds a dealer page to the session transcript.
func (s *Service) AppendDealerInfo(ctx context.Context, session string, info core.DealerInfo) (*core.Document, error) {
	session, err := s.session(session)
	if err != nil {
		return nil, err
	}
	if s.Redactor != nil {
		info = s.Redactor.Dealer(info)
	}
	d, err := s.Transcripts.AppendDealer(ctx, session, info, transcript.Options{Create: true})
	if err != nil {
		if errors.Is(err, transcript.ErrInvalidDealer) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.DealerAppended, SessionID: session, Pages: d.PageCount()})
	return d, nil
}

// UploadSession archives the session PDF to blob storage under
// session/<id>.pdf and records the URL in the manifest. With
// ClearAfterUpload the local transcript and history are reset afterwards.
func (s *Service) UploadSession(ctx context.Context, session string) (*Upload, error) {
	session, err := s.session(session)
	if err != nil {
		return nil, err
	}
	if s.Blob == nil {
		return nil, ErrUploadDisabled
	}
	localPath, err := s.Store.Path(session)
	if err != nil {
		return nil, err
	}
	if !s.Store.Exists(session) {
		return nil, fmt.Errorf("%w: session %s", core.ErrDocumentNotFound, session)
	}

	if err := s.Blob.SetCORS(ctx, s.cors()); err != nil {
		s.logger().Warn("failed to set bucket CORS", "err", err)
	}

	key := path.Join(UploadPrefix, session+".pdf")
	url, err := s.Blob.Upload(ctx, localPath, key, blob.UploadOptions{
		ContentType:  "application/pdf",
		CacheControl: blob.SessionCacheControl,
		Gzip:         true,
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info("uploaded session", "session", session, "url", url)

	up := &Upload{Session: session, Key: key, URL: url}
	if s.ClearAfterUpload {
		if up.Cleared, err = s.clear(ctx, session); err != nil {
			return nil, err
		}
	}
	if err := s.Store.MarkUploaded(session, url, s.now()); err != nil {
		s.logger().Warn("failed to record upload", "session", session, "err", err)
	}
	s.publish(ctx, events.Event{Type: events.SessionUpload, SessionID: session, URL: url})
	return up, nil
}

// ClearSession resets the session transcript to zero pages and drops its
// history. It reports whether a transcript was removed.
func (s *Service) ClearSession(ctx context.Context, session string) (bool, error) {
	session, err := s.session(session)
	if err != nil {
		return false, err
	}
	cleared, err := s.clear(ctx, session)
	if err != nil {
		return false, err
	}
	s.publish(ctx, events.Event{Type: events.SessionCleared, SessionID: session})
	return cleared, nil
}

// DeleteUploads removes archived objects whose key starts with prefix.
// An empty prefix means every archived session.
func (s *Service) DeleteUploads(ctx context.Context, prefix string) (int, error) {
	if s.Blob == nil {
		return 0, ErrUploadDisabled
	}
	if prefix == "" {
		prefix = UploadPrefix
	}
	keys, err := s.Blob.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.Blob.Delete(ctx, keys); err != nil {
		return 0, err
	}
	s.logger().Info("deleted uploads", "prefix", prefix, "count", len(keys))
	return len(keys), nil
}

// History returns the recorded turns of a session, oldest first.
func (s *Service) History(ctx context.Context, session string) ([]core.ChatTurn, error) {
	session, err := s.session(session)
	if err != nil {
		return nil, err
	}
	if s.HistoryStore == nil {
		return []core.ChatTurn{}, nil
	}
	return s.HistoryStore.List(ctx, session)
}

// Sessions lists the known sessions, newest first.
func (s *Service) Sessions() ([]core.ManifestEntry, error) {
	return s.Store.Sessions()
}

// Document loads the stored transcript of a session.
func (s *Service) Document(ctx context.Context, session string) (*core.Document, error) {
	session, err := s.session(session)
	if err != nil {
		return nil, err
	}
	return s.Store.Load(ctx, session)
}

// PDF returns the raw transcript file of a session.
func (s *Service) PDF(session string) ([]byte, error) {
	session, err := s.session(session)
	if err != nil {
		return nil, err
	}
	return s.Store.ReadPDF(session)
}

func (s *Service) clear(ctx context.Context, session string) (bool, error) {
	cleared, err := s.Store.Clear(ctx, session)
	if err != nil {
		return false, err
	}
	if s.HistoryStore != nil {
		if err := s.HistoryStore.Clear(ctx, session); err != nil {
			s.logger().Warn("failed to clear history", "session", session, "err", err)
		}
	}
	return cleared, nil
}

// session applies the default session and validates the id.
func (s *Service) session(id string) (string, error) {
	if id == "" {
		id = s.DefaultSession
	}
	if id == "" {
		id = DefaultSession
	}
	if err := store.ValidateSessionID(id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return id, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.Events == nil {
		return
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	if err := s.Events.Publish(ctx, e); err != nil {
		s.logger().Warn("failed to publish event", "type", e.Type, "session", e.SessionID, "err", err)
	}
}

func (s *Service) prompt() string {
	if s.Prompt == "" {
		return DefaultPrompt
	}
	return s.Prompt
}

func (s *Service) cors() []blob.CORSRule {
	if len(s.CORS) == 0 {
		return blob.DefaultCORS
	}
	return s.CORS
}

func (s *Service) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC().Round(0)
}
