package html

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sonnes/lekhak/render"
	"github.com/yuin/goldmark"
)

// renderSection renders a section label and its body. The body is treated
// as markdown; raw HTML in it is escaped by goldmark's safe default.
func renderSection(md goldmark.Markdown, s render.Section) (template.HTML, error) {
	var buf bytes.Buffer
	buf.WriteString(`<section class="space-y-1">`)
	if s.Label != "" {
		buf.WriteString(`<h3 class="text-xs font-semibold uppercase tracking-wide ` + labelClass(s.Label) + `">`)
		buf.WriteString(template.HTMLEscapeString(s.Label))
		buf.WriteString(`</h3>`)
	}
	if body := s.Body(); body != "" {
		buf.WriteString(`<div class="prose dark:prose-invert max-w-none text-sm">`)
		if err := md.Convert([]byte(body), &buf); err != nil {
			return "", fmt.Errorf("goldmark convert: %w", err)
		}
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</section>`)
	return template.HTML(buf.String()), nil
}

func labelClass(label string) string {
	switch label {
	case "Question:":
		return "text-blue-600 dark:text-blue-400"
	case "Answer:":
		return "text-emerald-600 dark:text-emerald-400"
	default:
		return "text-slate-500 dark:text-slate-400"
	}
}
