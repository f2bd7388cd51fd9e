package html

import (
	"fmt"
	"html/template"
	"time"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatTime":   formatTime,
		"formatNumber": formatNumber,
		"isoTime":      func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
		"hasTime":      func(t *time.Time) bool { return t != nil && !t.IsZero() },
		"deref":        func(t *time.Time) time.Time { return *t },
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
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
