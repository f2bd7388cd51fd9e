package redact

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sonnes/lekhak/core"
)

// Config controls which rules the Redactor applies.
type Config struct {
	Secrets    bool
	PII        bool
	ExtraRules []Rule
	Allowlist  []string // regex patterns to skip
}

// ParseConfig builds a Config from a comma-separated rule list such as
// "secrets,pii". An empty list enables every rule; "none" disables
// redaction and returns ok=false.
func ParseConfig(list string) (cfg Config, ok bool, err error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return Config{Secrets: true, PII: true}, true, nil
	}
	for _, name := range strings.Split(list, ",") {
		switch strings.TrimSpace(name) {
		case "none":
			return Config{}, false, nil
		case "secrets":
			cfg.Secrets = true
		case "pii":
			cfg.PII = true
		case "":
		default:
			return Config{}, false, fmt.Errorf("unknown redaction rule %q", name)
		}
	}
	return cfg, true, nil
}

// Redactor masks every rule match in chat text.
type Redactor struct {
	rules     []Rule
	allowlist []*regexp.Regexp
}

// New creates a Redactor from the given config.
func New(cfg Config) *Redactor {
	var rules []Rule
	if cfg.Secrets {
		rules = append(rules, SecretRules()...)
	}
	if cfg.PII {
		rules = append(rules, PIIRules()...)
	}
	rules = append(rules, cfg.ExtraRules...)

	allowlist := make([]*regexp.Regexp, 0, len(cfg.Allowlist))
	for _, pattern := range cfg.Allowlist {
		if re, err := regexp.Compile(pattern); err == nil {
			allowlist = append(allowlist, re)
		}
	}

	return &Redactor{rules: rules, allowlist: allowlist}
}

// Turn returns a copy of t with both question and answer redacted.
func (r *Redactor) Turn(t core.ChatTurn) core.ChatTurn {
	t.Question = r.String(t.Question)
	t.Answer = r.String(t.Answer)
	return t
}

// Dealer redacts the free-text description of a dealer record. The name
// and contact number are what the record is for and are kept.
func (r *Redactor) Dealer(info core.DealerInfo) core.DealerInfo {
	info.Info = r.String(info.Info)
	return info
}

// String applies all rules to s. Overlapping matches resolve to earliest
// start, then longest. Allowlisted values are skipped.
func (r *Redactor) String(s string) string {
	if len(s) == 0 {
		return s
	}

	type replacement struct {
		start int
		end   int
		text  string
	}

	var reps []replacement
	for _, rule := range r.rules {
		for _, m := range rule.Detect(s) {
			if r.isAllowed(m.Value) {
				continue
			}
			reps = append(reps, replacement{
				start: m.Start,
				end:   m.End,
				text:  rule.Replacement(m),
			})
		}
	}

	if len(reps) == 0 {
		return s
	}

	sort.Slice(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].end > reps[j].end
	})

	var b strings.Builder
	pos := 0
	for _, rep := range reps {
		if rep.start < pos {
			continue // overlaps with a previous replacement
		}
		b.WriteString(s[pos:rep.start])
		b.WriteString(rep.text)
		pos = rep.end
	}
	b.WriteString(s[pos:])
	return b.String()
}

func (r *Redactor) isAllowed(value string) bool {
	for _, re := range r.allowlist {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
