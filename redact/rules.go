// Package redact masks credentials and personal details that customers paste
// into a chat, before the turn reaches a transcript page or history.
package redact

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule detects sensitive data in a string and provides a replacement.
type Rule interface {
	Name() string
	Kind() string
	Detect(s string) []Match
	Replacement(m Match) string
}

// Match is one detected span of a string.
type Match struct {
	Start int
	End   int
	Value string
}

const (
	kindSecret = "secret"
	kindPII    = "pii"
)

// pattern is a regexp rule. check, when set, rejects candidates the
// expression alone cannot rule out.
type pattern struct {
	name  string
	kind  string
	re    *regexp.Regexp
	check func(string) bool
}

func (p *pattern) Name() string { return p.name }
func (p *pattern) Kind() string { return p.kind }

func (p *pattern) Detect(s string) []Match {
	var out []Match
	for _, loc := range p.re.FindAllStringIndex(s, -1) {
		v := s[loc[0]:loc[1]]
		if p.check != nil && !p.check(v) {
			continue
		}
		out = append(out, Match{Start: loc[0], End: loc[1], Value: v})
	}
	return out
}

// Replacement reads naturally inside a transcript sentence,
// e.g. "[redacted phone]".
func (p *pattern) Replacement(_ Match) string {
	return "[redacted " + strings.ReplaceAll(p.name, "_", " ") + "]"
}

// SecretRules returns rules for credentials users paste while asking for
// help: provider API keys, OAuth tokens, keys and URLs with passwords.
func SecretRules() []Rule {
	return []Rule{
		&pattern{
			name: "google_api_key",
			kind: kindSecret,
			re:   regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		},
		&pattern{
			name: "oauth_token",
			kind: kindSecret,
			re:   regexp.MustCompile(`ya29\.[0-9A-Za-z_\-]{10,}`),
		},
		&pattern{
			name: "api_key",
			kind: kindSecret,
			re:   regexp.MustCompile(`\b(?:sk-[A-Za-z0-9_\-]{32,}|ghp_[A-Za-z0-9]{36,}|xox[abp]-[A-Za-z0-9\-]{10,})`),
		},
		&pattern{
			name: "private_key",
			kind: kindSecret,
			re:   regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),
		},
		&pattern{
			// Only URLs that carry a password in their userinfo.
			name: "credential_url",
			kind: kindSecret,
			re:   regexp.MustCompile(`\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqps?)://[^\s:@/]+:[^\s@/]+@[^\s"'<>]+`),
		},
		&pattern{
			name: "jwt",
			kind: kindSecret,
			re:   regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_.+/=]+`),
		},
	}
}

// PIIRules returns rules for the personal details that come up in a
// dealership chat: contact details, payment cards and vehicle numbers.
func PIIRules() []Rule {
	return []Rule{
		&pattern{
			name: "email",
			kind: kindPII,
			re:   regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		},
		&pattern{
			name: "phone",
			kind: kindPII,
			re:   regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{3}\)|\b\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}\b`),
		},
		&pattern{
			name:  "card",
			kind:  kindPII,
			re:    regexp.MustCompile(`\b(?:\d[ \-]?){12,18}\d\b`),
			check: luhn,
		},
		&pattern{
			// ISO 3779 alphabet: no I, O or Q.
			name:  "vin",
			kind:  kindPII,
			re:    regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`),
			check: lettersAndDigits,
		},
	}
}

// luhn reports whether the digits of s form a 13-19 digit number with a
// valid Luhn checksum. Separators are ignored.
func luhn(s string) bool {
	sum, n := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if n%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		n++
	}
	return n >= 13 && n <= 19 && sum%10 == 0
}

func lettersAndDigits(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0 && strings.IndexFunc(s, unicode.IsLetter) >= 0
}
