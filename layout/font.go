package layout

import (
	"fmt"
	"sync"

	"github.com/go-pdf/fpdf"
	"github.com/sonnes/lekhak/core"
	"golang.org/x/text/encoding/charmap"
)

// Font measures text set in one face of the document font.
type Font interface {
	// Encode converts UTF-8 text to the font's byte encoding. It fails with
	// core.ErrUnsupportedGlyph when a character has no glyph in the font.
	Encode(s string) (string, error)

	// Width returns the rendered width of s at the given point size.
	Width(s string, size float64) (float64, error)
}

// Fonts pairs the regular and bold faces of the document font.
type Fonts struct {
	Regular Font
	Bold    Font
}

// Face returns the font for the given weight.
func (f Fonts) Face(w core.FontWeight) Font {
	if w == core.FontBold {
		return f.Bold
	}
	return f.Regular
}

// CoreFont is one of the 14 standard PDF fonts, measured with the metrics
// bundled in fpdf. Core fonts only cover the WinAnsi (cp1252) repertoire.
type CoreFont struct {
	mu     sync.Mutex
	pdf    *fpdf.Fpdf
	family string
	style  string
}

// NewCoreFont loads the metrics of a standard font family in the given weight.
func NewCoreFont(family string, weight core.FontWeight) (*CoreFont, error) {
	style := ""
	if weight == core.FontBold {
		style = "B"
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont(family, style, 12)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load font %s %s: %w", family, weight, err)
	}
	return &CoreFont{pdf: pdf, family: family, style: style}, nil
}

// NewCoreFonts loads the regular and bold faces of family.
func NewCoreFonts(family string) (Fonts, error) {
	regular, err := NewCoreFont(family, core.FontRegular)
	if err != nil {
		return Fonts{}, err
	}
	bold, err := NewCoreFont(family, core.FontBold)
	if err != nil {
		return Fonts{}, err
	}
	return Fonts{Regular: regular, Bold: bold}, nil
}

// Encode implements Font.
func (f *CoreFont) Encode(s string) (string, error) {
	return EncodeWinAnsi(s)
}

// Width implements Font.
func (f *CoreFont) Width(s string, size float64) (float64, error) {
	enc, err := f.Encode(s)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdf.SetFontSize(size)
	return f.pdf.GetStringWidth(enc), nil
}

// EncodeWinAnsi converts s to cp1252, the encoding of the standard PDF fonts.
func EncodeWinAnsi(s string) (string, error) {
	out, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("%w in %q: %v", core.ErrUnsupportedGlyph, s, err)
	}
	return out, nil
}
