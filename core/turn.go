package core

import (
	"errors"
	"strings"
	"time"
)

// ChatTurn is one question/answer exchange. It is rendered into a page and
// kept in the session history; it is not a durable record of its own.
type ChatTurn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	At       time.Time `json:"at,omitempty"`
}

// DealerInfo is the dealer record stored into a session transcript.
type DealerInfo struct {
	Name   string `json:"dealerName"`
	Info   string `json:"dealerInfo"`
	Number string `json:"dealerNumber"`
}

// Validate reports whether all dealer fields are present.
func (d DealerInfo) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "dealerName")
	}
	if strings.TrimSpace(d.Info) == "" {
		missing = append(missing, "dealerInfo")
	}
	if strings.TrimSpace(d.Number) == "" {
		missing = append(missing, "dealerNumber")
	}
	if len(missing) > 0 {
		return errors.New("missing " + strings.Join(missing, ", "))
	}
	return nil
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Sanitize collapses newlines to spaces and trims surrounding whitespace.
// Every other character is preserved.
func Sanitize(s string) string {
	return strings.TrimSpace(newlines.Replace(s))
}
