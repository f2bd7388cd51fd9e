// Package html renders transcript documents as standalone HTML pages styled
// with Tailwind CSS v4 (CDN). Section bodies go through goldmark, so
// markdown in model answers (emphasis, inline code, fenced code with chroma
// highlighting) survives into the page.
package html

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/render"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

//go:embed templates/*.html
var content embed.FS

// Renderer renders a document to a standalone HTML page.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template

	// SessionHref, when non-nil, overrides the default {id}.html link
	// pattern on the index page. The serve command uses it to generate
	// server-routed URLs.
	SessionHref func(sessionID string) string
	// PDFHref, when non-nil, adds a download link to the session page.
	PDFHref func(sessionID string) string
}

// New creates an HTML Renderer with goldmark configured for GFM and syntax highlighting.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
	)

	tmpl := template.Must(
		template.New("page.html").
			Funcs(funcMap()).
			ParseFS(content, "templates/*.html"),
	)

	return &Renderer{md: md, tmpl: tmpl}
}

// pageData is the top-level template data passed to page.html.
type pageData struct {
	Document *core.Document
	Pages    []pageView
	Chats    int
	Dealers  int
	PDFHref  string
}

// pageView is the per-page template data.
type pageView struct {
	ID          string // anchor ID for the page list (e.g. "page-1")
	Number      int
	Kind        core.PageKind
	KindLabel   string
	BorderClass string
	BadgeClass  string
	Footer      string
	Summary     string // short text for the sidebar
	Sections    []template.HTML
}

// indexEntry is a manifest entry with its resolved link.
type indexEntry struct {
	core.ManifestEntry
	Href string
}

// indexData is the template data passed to index.html.
type indexData struct {
	Entries []indexEntry
}

// RenderIndex writes an HTML index page listing the given sessions to w.
// Sessions are sorted newest-first by CreatedAt.
func (r *Renderer) RenderIndex(w io.Writer, entries []core.ManifestEntry) error {
	sorted := make([]core.ManifestEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	data := indexData{Entries: make([]indexEntry, 0, len(sorted))}
	for _, e := range sorted {
		href := e.SessionID + ".html"
		if r.SessionHref != nil {
			href = r.SessionHref(e.SessionID)
		}
		data.Entries = append(data.Entries, indexEntry{ManifestEntry: e, Href: href})
	}
	return r.tmpl.ExecuteTemplate(w, "index.html", data)
}

// Render writes the document as a complete HTML page to w.
func (r *Renderer) Render(w io.Writer, d *core.Document) error {
	data := pageData{Document: d}
	if r.PDFHref != nil {
		data.PDFHref = r.PDFHref(d.SessionID)
	}

	for _, p := range render.Pages(d) {
		switch p.Kind {
		case core.PageChat:
			data.Chats++
		case core.PageDealer:
			data.Dealers++
		}

		v := pageView{
			ID:          fmt.Sprintf("page-%d", p.Number),
			Number:      p.Number,
			Kind:        p.Kind,
			KindLabel:   kindLabel(p.Kind),
			BorderClass: borderClass(p.Kind),
			BadgeClass:  badgeClass(p.Kind),
			Footer:      p.Footer,
			Summary:     pageSummary(p),
		}
		for _, s := range p.Sections {
			rendered, err := renderSection(r.md, s)
			if err != nil {
				return fmt.Errorf("render page %d: %w", p.Number, err)
			}
			v.Sections = append(v.Sections, rendered)
		}
		data.Pages = append(data.Pages, v)
	}

	return r.tmpl.ExecuteTemplate(w, "page.html", data)
}

func kindLabel(k core.PageKind) string {
	switch k {
	case core.PageChat:
		return "Chat"
	case core.PageDealer:
		return "Dealer"
	case core.PageCover:
		return "Cover"
	default:
		return string(k)
	}
}

func borderClass(k core.PageKind) string {
	switch k {
	case core.PageChat:
		return "border-l-4 border-l-blue-500"
	case core.PageDealer:
		return "border-l-4 border-l-violet-500"
	default:
		return "border-l-4 border-l-slate-400"
	}
}

func badgeClass(k core.PageKind) string {
	switch k {
	case core.PageChat:
		return "text-blue-700 dark:text-blue-400 bg-blue-50 dark:bg-blue-950"
	case core.PageDealer:
		return "text-violet-700 dark:text-violet-400 bg-violet-50 dark:bg-violet-950"
	default:
		return "text-slate-600 dark:text-slate-400 bg-slate-100 dark:bg-slate-800"
	}
}

// pageSummary returns the first section body, shortened for the sidebar.
func pageSummary(p render.PageView) string {
	for _, s := range p.Sections {
		text := s.Body()
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) > 50 {
			text = string(runes[:47]) + "..."
		}
		return text
	}
	return ""
}
