// Package events publishes transcript changes to interested consumers.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Type names what happened to a session.
type Type string

const (
	ChatAppended   Type = "chat.appended"
	DealerAppended Type = "dealer.appended"
	SessionUpload  Type = "session.uploaded"
	SessionCleared Type = "session.cleared"
)

// Event describes one change to a session transcript.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"sessionId"`
	Pages     int       `json:"pages"`
	Question  string    `json:"question,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	URL       string    `json:"url,omitempty"`
	At        time.Time `json:"at"`
}

// Encode returns the wire form of e.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                          { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }
