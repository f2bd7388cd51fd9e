// Package pdf encodes documents as PDF files and decodes them back.
//
// Every page is drawn from the document model, and the model itself travels
// inside the file as an embedded attachment. Decoding reads the attachment,
// so a saved document loads back exactly as it was written.
package pdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/layout"
)

// ModelAttachment is the file name the document model is embedded under.
const ModelAttachment = "transcript.json"

// Header is the signature every PDF file starts with.
var Header = []byte("%PDF")

func init() {
	api.DisableConfigDir()
}

// Encoder renders documents to PDF.
type Encoder struct {
	// Font is the core font family used for all text.
	Font string
	// Compress enables deflate compression of page content streams.
	Compress bool
}

// NewEncoder returns an Encoder drawing text in the given core font family.
func NewEncoder(font string) *Encoder {
	return &Encoder{Font: font}
}

// Render implements render.Renderer.
func (e *Encoder) Render(w io.Writer, d *core.Document) error {
	if d.PageCount() == 0 {
		return errors.New("pdf: document has no pages")
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("pdf: marshal model: %w", err)
	}

	size := d.PageSize
	f := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	f.SetCompression(e.Compress)
	f.SetAutoPageBreak(false, 0)
	f.SetMargins(0, 0, 0)
	f.SetCreationDate(d.CreatedAt)
	f.SetModificationDate(d.UpdatedAt)
	f.SetCatalogSort(true)
	f.SetTitle("Transcript "+d.SessionID, true)
	f.SetProducer("lekhak", true)
	f.SetAttachments([]fpdf.Attachment{{
		Content:     data,
		Filename:    ModelAttachment,
		Description: "transcript model",
	}})

	for name, img := range d.Images {
		f.RegisterImageOptionsReader(name, imageOptions(img), bytes.NewReader(img.Data))
	}

	for _, p := range d.Pages {
		f.AddPage()
		for _, op := range p.Ops {
			if err := e.draw(f, size, op); err != nil {
				return err
			}
		}
		if p.Footer != nil {
			if err := e.draw(f, size, *p.Footer); err != nil {
				return err
			}
		}
	}

	if err := f.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return f.Output(w)
}

// draw converts a bottom-left origin op to fpdf's top-left coordinates.
func (e *Encoder) draw(f *fpdf.Fpdf, size core.Size, op core.Op) error {
	switch op.Type {
	case core.OpText:
		enc, err := layout.EncodeWinAnsi(op.Text)
		if err != nil {
			return err
		}
		style := ""
		if op.Font == core.FontBold {
			style = "B"
		}
		f.SetFont(e.Font, style, op.Size)
		f.Text(op.X, size.Height-op.Y, enc)
	case core.OpRect:
		f.SetLineWidth(op.BorderWidth)
		f.Rect(op.X, size.Height-op.Y-op.Height, op.Width, op.Height, "D")
	case core.OpImage:
		f.ImageOptions(op.Image, op.X, size.Height-op.Y-op.Height, op.Width, op.Height, false, fpdf.ImageOptions{}, 0, "")
	default:
		return fmt.Errorf("pdf: unknown op type %q", op.Type)
	}
	return nil
}

func imageOptions(img core.Image) fpdf.ImageOptions {
	t := "PNG"
	if img.Format == "jpeg" {
		t = "JPG"
	}
	return fpdf.ImageOptions{ImageType: t}
}

// Encode renders d to a byte slice.
func (e *Encoder) Encode(d *core.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HasHeader reports whether data starts with the PDF signature.
func HasHeader(data []byte) bool {
	return bytes.HasPrefix(data, Header)
}

// Decode parses a PDF written by Encoder. Anything that is not such a file
// fails with core.ErrInvalidDocument.
func Decode(data []byte) (*core.Document, error) {
	if !HasHeader(data) {
		return nil, fmt.Errorf("%w: missing %s header", core.ErrInvalidDocument, Header)
	}

	atts, err := api.ExtractAttachmentsRaw(bytes.NewReader(data), "", nil, config())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidDocument, err)
	}

	for _, a := range atts {
		if !strings.EqualFold(a.FileName, ModelAttachment) && a.ID != ModelAttachment {
			continue
		}
		var d core.Document
		if err := json.NewDecoder(a).Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: model: %v", core.ErrInvalidDocument, err)
		}
		if d.Version != core.DocumentVersion {
			return nil, fmt.Errorf("%w: unsupported model version %d", core.ErrInvalidDocument, d.Version)
		}
		return &d, nil
	}
	return nil, fmt.Errorf("%w: no %s attachment", core.ErrInvalidDocument, ModelAttachment)
}

// PageCount returns the number of pages in the PDF as seen by a PDF reader,
// independent of the embedded model.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), config())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrInvalidDocument, err)
	}
	return n, nil
}

func config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
