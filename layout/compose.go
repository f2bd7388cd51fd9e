package layout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/core"
)

// LogoImage is the key the logo is registered under in Document.Images.
const LogoImage = "logo"

// Composer builds pages for a document using a fixed layout.
type Composer struct {
	Layout Layout
	Fonts  Fonts
	// Logo, when non-nil, is drawn in the bottom-left corner of every page.
	Logo   *core.Image
	Logger *log.Logger
}

// NewComposer creates a Composer with the standard fonts named by l.Font.
func NewComposer(l Layout, logo *core.Image, logger *log.Logger) (*Composer, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	fonts, err := NewCoreFonts(l.Font)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Composer{Layout: l, Fonts: fonts, Logo: logo, Logger: logger}, nil
}

// Chat renders a question/answer pair as a page. Both texts are sanitized and
// word-wrapped; words the font cannot encode are skipped and logged.
func (c *Composer) Chat(doc *core.Document, turn core.ChatTurn) core.Page {
	l := c.Layout
	page := core.Page{Kind: core.PageChat}
	c.frame(doc, &page)

	y := doc.PageSize.Height - l.Text.Top
	page.Ops = append(page.Ops, c.text(l.Text.X, y, "Question:", core.FontBold, l.Text.Size))

	y -= l.Text.LabelGap
	y = c.paragraph(&page, core.Sanitize(turn.Question), y)

	y -= l.Text.SectionGap - l.Text.LineHeight
	page.Ops = append(page.Ops, c.text(l.Text.X, y, "Answer:", core.FontBold, l.Text.Size))

	y -= l.Text.LabelGap
	last := c.paragraph(&page, core.Sanitize(turn.Answer), y) + l.Text.LineHeight
	if last < l.Border.Inset+l.Text.LineHeight {
		c.Logger.Warn("answer runs past the bottom of the page", "session", doc.SessionID, "y", last)
	}
	return page
}

// paragraph wraps text at the body size starting at baseline y and returns
// the baseline of the line after the last one drawn.
func (c *Composer) paragraph(page *core.Page, text string, y float64) float64 {
	l := c.Layout
	measure := func(s string) (float64, error) {
		return c.Fonts.Regular.Width(s, l.Text.Size)
	}
	lines, skipped := Wrap(Words(text), measure, l.MaxLineWidth())
	for _, word := range skipped {
		c.Logger.Warn("skipping word with unsupported characters", "word", word)
	}
	if len(lines) == 0 {
		return y - l.Text.LineHeight
	}
	for _, line := range lines {
		page.Ops = append(page.Ops, c.text(l.Text.X, y, line, core.FontRegular, l.Text.Size))
		y -= l.Text.LineHeight
	}
	return y
}

// Dealer renders a dealer record with a centered heading and timestamp.
func (c *Composer) Dealer(doc *core.Document, info core.DealerInfo, at time.Time) core.Page {
	page := core.Page{Kind: core.PageDealer}
	c.frame(doc, &page)
	c.heading(doc, &page, at)
	c.fields(doc, &page, [][2]string{
		{"Dealer Name:", info.Name},
		{"Dealer Info:", info.Info},
		{"Dealer Number:", info.Number},
	})
	return page
}

// Cover renders the first page of a new session transcript.
func (c *Composer) Cover(doc *core.Document, at time.Time) core.Page {
	page := core.Page{Kind: core.PageCover}
	c.frame(doc, &page)
	c.heading(doc, &page, at)
	c.fields(doc, &page, [][2]string{
		{"Session:", doc.SessionID},
	})
	return page
}

// Stamp overwrites the footer of every page with "Page i of N", centered,
// where N is the current page count. Stamping is idempotent.
func (c *Composer) Stamp(doc *core.Document) {
	l := c.Layout
	n := doc.PageCount()
	for i := range doc.Pages {
		label := fmt.Sprintf(l.Footer.Format, i+1, n)
		op := c.centered(doc, l.Footer.Y, label, core.FontRegular, l.Footer.Size)
		doc.Pages[i].Footer = &op
	}
}

// frame draws the border and, when configured, the logo.
func (c *Composer) frame(doc *core.Document, page *core.Page) {
	l := c.Layout
	size := doc.PageSize
	page.Ops = append(page.Ops, core.Op{
		Type:        core.OpRect,
		X:           l.Border.Inset,
		Y:           l.Border.Inset,
		Width:       size.Width - 2*l.Border.Inset,
		Height:      size.Height - 2*l.Border.Inset,
		BorderWidth: l.Border.Width,
	})

	if c.Logo == nil {
		return
	}
	doc.AddImage(LogoImage, *c.Logo)
	w, h := c.Logo.Scale(l.Logo.Scale)
	page.Ops = append(page.Ops, core.Op{
		Type:   core.OpImage,
		X:      l.Logo.X,
		Y:      l.Logo.Y,
		Width:  w,
		Height: h,
		Image:  LogoImage,
	})
}

func (c *Composer) heading(doc *core.Document, page *core.Page, at time.Time) {
	h := c.Layout.Heading
	top := doc.PageSize.Height
	page.Ops = append(page.Ops,
		c.centered(doc, top-h.Offset, h.Text, core.FontBold, h.Size),
		c.centered(doc, top-h.TimestampOffset, at.Format(h.TimestampFormat), core.FontRegular, h.TimestampSize),
	)
}

// fields draws bold labels with their values on successive lines. Values are
// short and are not wrapped.
func (c *Composer) fields(doc *core.Document, page *core.Page, rows [][2]string) {
	l := c.Layout
	y := doc.PageSize.Height - l.Fields.Offset
	for _, row := range rows {
		page.Ops = append(page.Ops,
			c.text(l.Text.X, y, row[0], core.FontBold, l.Text.Size),
			c.text(l.Fields.ValueX, y, c.printable(core.Sanitize(row[1])), core.FontRegular, l.Text.Size),
		)
		y -= l.Text.LineHeight
	}
}

// printable drops the words of s that the regular face cannot encode.
func (c *Composer) printable(s string) string {
	words := Words(s)
	kept := words[:0]
	for _, w := range words {
		if _, err := c.Fonts.Regular.Encode(w); err != nil {
			c.Logger.Warn("skipping word with unsupported characters", "word", w)
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func (c *Composer) text(x, y float64, s string, weight core.FontWeight, size float64) core.Op {
	return core.Op{Type: core.OpText, X: x, Y: y, Text: s, Font: weight, Size: size}
}

// centered returns a text op horizontally centered on the page. Text the
// font cannot measure falls back to the left text margin.
func (c *Composer) centered(doc *core.Document, y float64, s string, weight core.FontWeight, size float64) core.Op {
	w, err := c.Fonts.Face(weight).Width(s, size)
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedGlyph) {
			s = c.printable(s)
			w, err = c.Fonts.Face(weight).Width(s, size)
		}
		if err != nil {
			return c.text(c.Layout.Text.X, y, s, weight, size)
		}
	}
	return c.text((doc.PageSize.Width-w)/2, y, s, weight, size)
}
