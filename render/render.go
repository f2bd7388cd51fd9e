// Package render defines the interface for rendering transcript documents
// into various output formats.
package render

import (
	"io"

	"github.com/sonnes/lekhak/core"
)

// Renderer writes a document to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, d *core.Document) error
}
