// Package layout turns chat turns and dealer records into transcript pages:
// page geometry, font metrics, greedy word-wrap and page-number stamping.
package layout

import (
	"fmt"
	"os"

	"github.com/sonnes/lekhak/core"
	"gopkg.in/yaml.v3"
)

// Layout holds the page geometry. All lengths are in points, with the origin
// at the bottom-left corner of the page.
type Layout struct {
	PageWidth  float64 `yaml:"page_width"`
	PageHeight float64 `yaml:"page_height"`
	Font       string  `yaml:"font"` // core PDF font family

	Border  Border  `yaml:"border"`
	Text    Text    `yaml:"text"`
	Logo    Logo    `yaml:"logo"`
	Footer  Footer  `yaml:"footer"`
	Heading Heading `yaml:"heading"`
	Fields  Fields  `yaml:"fields"`
}

// Border is the rectangle drawn around every page.
type Border struct {
	Inset float64 `yaml:"inset"`
	Width float64 `yaml:"width"`
}

// Text controls the question/answer body.
type Text struct {
	X          float64 `yaml:"x"`           // left edge; the wrap budget is PageWidth - 2*X
	Size       float64 `yaml:"size"`        // body font size
	LineHeight float64 `yaml:"line_height"` // baseline-to-baseline distance
	Top        float64 `yaml:"top"`         // distance from the top edge to the first label
	LabelGap   float64 `yaml:"label_gap"`   // label baseline to first text line
	SectionGap float64 `yaml:"section_gap"` // last question line to the answer label
}

// Logo places the optional logo image.
type Logo struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Scale float64 `yaml:"scale"` // applied to the pixel dimensions
}

// Footer places the "Page i of N" label.
type Footer struct {
	Y      float64 `yaml:"y"`
	Size   float64 `yaml:"size"`
	Format string  `yaml:"format"` // fmt verbs: page number, page count
}

// Heading is the centered title and timestamp of dealer and cover pages.
type Heading struct {
	Text            string  `yaml:"text"`
	Size            float64 `yaml:"size"`
	Offset          float64 `yaml:"offset"` // from the top edge
	TimestampSize   float64 `yaml:"timestamp_size"`
	TimestampOffset float64 `yaml:"timestamp_offset"` // from the top edge
	TimestampFormat string  `yaml:"timestamp_format"` // Go time layout
}

// Fields places label/value rows on dealer and cover pages.
type Fields struct {
	Offset float64 `yaml:"offset"`  // first row, from the top edge
	ValueX float64 `yaml:"value_x"` // left edge of the values
}

// Default returns the A4 layout used by the chat service.
func Default() Layout {
	return Layout{
		PageWidth:  595.28,
		PageHeight: 841.89,
		Font:       "Helvetica",
		Border:     Border{Inset: 20, Width: 2},
		Text: Text{
			X:          40,
			Size:       14,
			LineHeight: 20,
			Top:        60,
			LabelGap:   20,
			SectionGap: 40,
		},
		Logo:   Logo{X: 30, Y: 30, Scale: 0.15},
		Footer: Footer{Y: 30, Size: 12, Format: "Page %d of %d"},
		Heading: Heading{
			Text:            "Chat Report",
			Size:            18,
			Offset:          50,
			TimestampSize:   14,
			TimestampOffset: 75,
			TimestampFormat: "1/2/2006, 3:04:05 PM",
		},
		Fields: Fields{Offset: 120, ValueX: 160},
	}
}

// LoadFile reads a YAML layout from path. Fields missing from the file keep
// their default values.
func LoadFile(path string) (Layout, error) {
	l := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("parse layout %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// Validate reports geometry that cannot produce a readable page.
func (l Layout) Validate() error {
	switch {
	case l.PageWidth <= 0 || l.PageHeight <= 0:
		return fmt.Errorf("page size must be positive, got %gx%g", l.PageWidth, l.PageHeight)
	case l.MaxLineWidth() <= 0:
		return fmt.Errorf("text x %g leaves no room on a %g wide page", l.Text.X, l.PageWidth)
	case l.Text.Size <= 0 || l.Text.LineHeight <= 0:
		return fmt.Errorf("text size and line height must be positive")
	case l.Footer.Size <= 0:
		return fmt.Errorf("footer size must be positive")
	case l.Font == "":
		return fmt.Errorf("font is required")
	}
	return nil
}

// Size returns the page size.
func (l Layout) Size() core.Size {
	return core.Size{Width: l.PageWidth, Height: l.PageHeight}
}

// MaxLineWidth is the width budget for wrapped text.
func (l Layout) MaxLineWidth() float64 {
	return l.PageWidth - 2*l.Text.X
}
