// Package terminal renders transcript documents as ANSI-colored page cards.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/render"
)

const defaultWidth = 100

// Renderer pretty-prints a document as page cards to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
	// Now is used for relative times. Nil means time.Now.
	Now func() time.Time
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the document as ANSI-colored page cards to w.
func (r *Renderer) Render(w io.Writer, d *core.Document) error {
	width := r.termWidth()

	r.writeHeader(w, d)

	for _, p := range render.Pages(d) {
		writePage(w, p, d.PageCount(), width)
	}

	fmt.Fprintln(w)
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// writeHeader renders the session metadata block.
func (r *Renderer) writeHeader(w io.Writer, d *core.Document) {
	fmt.Fprintln(w, styleTitle.Render("Session "+d.SessionID))

	var parts []string
	if !d.CreatedAt.IsZero() {
		parts = append(parts, "started "+relativeTime(r.now(), d.CreatedAt))
	}
	if !d.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+relativeTime(r.now(), d.UpdatedAt))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, styleMeta.Render(strings.Join(parts, "  ")))
	}

	var chats, dealers int
	for _, p := range d.Pages {
		switch p.Kind {
		case core.PageChat:
			chats++
		case core.PageDealer:
			dealers++
		}
	}
	fmt.Fprintln(w)
	writeStats(w, []stat{
		{d.PageCount(), "PAGES"},
		{chats, "CHATS"},
		{dealers, "DEALERS"},
	})
}

type stat struct {
	value int
	label string
}

// writeStats renders counters in two rows: values then labels.
func writeStats(w io.Writer, stats []stat) {
	var values, labels []string
	for _, s := range stats {
		formatted := formatNumber(s.value)
		colWidth := max(len(formatted), len(s.label))
		values = append(values, fmt.Sprintf("%*s", colWidth, formatted))
		labels = append(labels, fmt.Sprintf("%-*s", colWidth, s.label))
	}

	fmt.Fprintln(w, "  "+styleStat.Render(strings.Join(values, "    ")))
	fmt.Fprintln(w, "  "+styleStatLabel.Render(strings.Join(labels, "    ")))
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
}

// writePage renders a single page card: page badge, then each section with
// its label and the unwrapped body re-flowed to the terminal width.
func writePage(w io.Writer, p render.PageView, total, width int) {
	contentWidth := width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	writeSeparator(w, width)

	header := styleBadge.Render(fmt.Sprintf("PAGE %d/%d", p.Number, total))
	header += "    " + styleMeta.Render(strings.ToUpper(string(p.Kind)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, " "+header)

	body := lipgloss.NewStyle().Width(contentWidth)
	for _, s := range p.Sections {
		if s.Label != "" {
			fmt.Fprintln(w, "  "+labelStyle(s.Label).Render(s.Label))
		}
		if text := s.Body(); text != "" {
			for _, line := range strings.Split(body.Render(text), "\n") {
				fmt.Fprintln(w, "  "+strings.TrimRight(line, " "))
			}
		}
	}
}

func labelStyle(label string) lipgloss.Style {
	switch label {
	case "Question:":
		return styleQuestionLabel
	case "Answer:":
		return styleAnswerLabel
	default:
		return styleFieldLabel
	}
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return formatTime(t)
	}
}

func formatTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
