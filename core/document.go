// Package core defines the transcript document model — a paginated record of
// a chat session built from fixed-size pages of draw operations — together
// with the chat and dealer records rendered into it.
package core

import "time"

// DocumentVersion is the current version of the serialized document model.
const DocumentVersion = 1

// Document is a paginated transcript of a single session. Pages are kept in
// insertion order, which is the chronological order of appends.
type Document struct {
	Version   int              `json:"version"`
	SessionID string           `json:"session_id"`
	PageSize  Size             `json:"page_size"`
	Pages     []Page           `json:"pages"`
	Images    map[string]Image `json:"images,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Size is a page size in points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageKind records which record a page was rendered from.
type PageKind string

const (
	PageChat   PageKind = "chat"
	PageDealer PageKind = "dealer"
	PageCover  PageKind = "cover"
)

// Page is one fixed-size canvas. Ops are drawn in order; Footer is a
// dedicated overlay slot for the page-number label that is replaced every
// time the document is stamped.
type Page struct {
	Kind   PageKind `json:"kind"`
	Ops    []Op     `json:"ops"`
	Footer *Op      `json:"footer,omitempty"`
}

// Op is a single draw operation. The Type field determines which other
// fields are populated. Coordinates are in points with the origin at the
// bottom-left corner of the page; for text, Y is the baseline.
type Op struct {
	Type        OpType     `json:"type"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Width       float64    `json:"width,omitempty"`        // set for "image" and "rect"
	Height      float64    `json:"height,omitempty"`       // set for "image" and "rect"
	Text        string     `json:"text,omitempty"`         // set for "text"
	Font        FontWeight `json:"font,omitempty"`         // set for "text"
	Size        float64    `json:"size,omitempty"`         // font size, set for "text"
	Image       string     `json:"image,omitempty"`        // key into Document.Images, set for "image"
	BorderWidth float64    `json:"border_width,omitempty"` // set for "rect"
}

// OpType enumerates draw operation kinds.
type OpType string

const (
	OpText  OpType = "text"
	OpImage OpType = "image"
	OpRect  OpType = "rect"
)

// FontWeight selects the regular or bold face of the document font.
type FontWeight string

const (
	FontRegular FontWeight = "regular"
	FontBold    FontWeight = "bold"
)

// Image is an embedded raster image. Width and Height are in pixels.
type Image struct {
	Format string `json:"format"` // "png" or "jpeg"
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"data"`
}

// Scale returns the image dimensions multiplied by factor.
func (img Image) Scale(factor float64) (w, h float64) {
	return float64(img.Width) * factor, float64(img.Height) * factor
}

// NewDocument returns an empty document for the given session.
func NewDocument(sessionID string, size Size, now time.Time) *Document {
	return &Document{
		Version:   DocumentVersion,
		SessionID: sessionID,
		PageSize:  size,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// AddPage appends p as the last page.
func (d *Document) AddPage(p Page) {
	d.Pages = append(d.Pages, p)
}

// AddImage registers img under name. An image already registered under the
// same name is kept so existing pages keep referencing the same bytes.
func (d *Document) AddImage(name string, img Image) {
	if d.Images == nil {
		d.Images = make(map[string]Image)
	}
	if _, ok := d.Images[name]; ok {
		return
	}
	d.Images[name] = img
}

// Texts returns the text of every text op on the page, footer last.
func (p Page) Texts() []string {
	var out []string
	for _, op := range p.Ops {
		if op.Type == OpText {
			out = append(out, op.Text)
		}
	}
	if p.Footer != nil && p.Footer.Type == OpText {
		out = append(out, p.Footer.Text)
	}
	return out
}
