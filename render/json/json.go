// Package json renders documents as JSON (serializes the document model as-is).
package json

import (
	"encoding/json"
	"io"

	"github.com/sonnes/lekhak/core"
)

// Renderer renders a document to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
}

// Render writes d to w as a single JSON document followed by a newline.
func (r *Renderer) Render(w io.Writer, d *core.Document) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(d)
}
