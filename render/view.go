package render

import (
	"sort"
	"strings"

	"github.com/sonnes/lekhak/core"
)

// Section is a labeled block of text recovered from a page: a bold op
// followed by the regular ops drawn after it.
type Section struct {
	Label string
	Lines []string
}

// Body joins the section lines with single spaces, undoing the word wrap.
func (s Section) Body() string {
	return strings.Join(s.Lines, " ")
}

// PageView is a page reduced to readable text for non-PDF renderers.
type PageView struct {
	Number   int
	Kind     core.PageKind
	Footer   string
	Sections []Section
}

// Pages reads the text structure back out of every page of d. Text ops are
// visited top to bottom, left to right.
func Pages(d *core.Document) []PageView {
	views := make([]PageView, 0, len(d.Pages))
	for i, p := range d.Pages {
		v := PageView{Number: i + 1, Kind: p.Kind}
		if p.Footer != nil {
			v.Footer = p.Footer.Text
		}

		var texts []core.Op
		for _, op := range p.Ops {
			if op.Type == core.OpText {
				texts = append(texts, op)
			}
		}
		sort.SliceStable(texts, func(a, b int) bool {
			if texts[a].Y != texts[b].Y {
				return texts[a].Y > texts[b].Y
			}
			return texts[a].X < texts[b].X
		})

		for _, op := range texts {
			if op.Font == core.FontBold || len(v.Sections) == 0 {
				s := Section{}
				if op.Font == core.FontBold {
					s.Label = op.Text
				} else {
					s.Lines = append(s.Lines, op.Text)
				}
				v.Sections = append(v.Sections, s)
				continue
			}
			last := &v.Sections[len(v.Sections)-1]
			last.Lines = append(last.Lines, op.Text)
		}
		views = append(views, v)
	}
	return views
}
