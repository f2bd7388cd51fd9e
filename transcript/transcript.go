// Package transcript appends chat turns and dealer records to session
// documents, one page per record, and keeps the page numbers current.
package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/layout"
	"github.com/sonnes/lekhak/store"
)

// Options control a single append.
type Options struct {
	// Create starts a new document when the session has none. Without it
	// appending to a missing session fails with core.ErrDocumentNotFound.
	Create bool
}

// Appender composes pages and saves them through the store.
type Appender struct {
	Store    *store.Store
	Composer *layout.Composer
	// Cover adds a cover page before the first record of a new document.
	Cover  bool
	Logger *log.Logger
	// Now timestamps dealer and cover pages. Nil means time.Now.
	Now func() time.Time
}

// New creates an Appender.
func New(st *store.Store, c *layout.Composer, logger *log.Logger) *Appender {
	if logger == nil {
		logger = log.Default()
	}
	return &Appender{Store: st, Composer: c, Logger: logger}
}

// AppendChat adds one page holding turn to the session document and returns
// the saved document.
func (a *Appender) AppendChat(ctx context.Context, session string, turn core.ChatTurn, opts Options) (*core.Document, error) {
	d, err := a.Store.Update(ctx, session, opts.Create, func(d *core.Document) error {
		a.begin(d)
		d.AddPage(a.Composer.Chat(d, turn))
		a.Composer.Stamp(d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append chat: %w", err)
	}
	a.Logger.Debug("appended chat page", "session", session, "pages", d.PageCount())
	return d, nil
}

// AppendDealer adds one dealer page to the session document. All three
// dealer fields are required.
func (a *Appender) AppendDealer(ctx context.Context, session string, info core.DealerInfo, opts Options) (*core.Document, error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDealer, err)
	}
	at := a.now()
	d, err := a.Store.Update(ctx, session, opts.Create, func(d *core.Document) error {
		a.begin(d)
		d.AddPage(a.Composer.Dealer(d, info, at))
		a.Composer.Stamp(d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append dealer info: %w", err)
	}
	a.Logger.Debug("appended dealer page", "session", session, "pages", d.PageCount())
	return d, nil
}

// begin adds the cover page to an empty document when enabled.
func (a *Appender) begin(d *core.Document) {
	if a.Cover && d.PageCount() == 0 {
		d.AddPage(a.Composer.Cover(d, a.now()))
	}
}

func (a *Appender) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
