package layout

import "strings"

// Measure returns the rendered width of s, or an error when s cannot be set
// in the active font.
type Measure func(s string) (float64, error)

// Words splits sanitized text into the words fed to Wrap.
func Words(s string) []string {
	return strings.Fields(s)
}

// Wrap greedily packs words into lines no wider than max. A word is never
// broken: a single word wider than max gets a line of its own. Words that
// cannot be measured are left out of the lines and returned in skipped.
func Wrap(words []string, measure Measure, max float64) (lines []string, skipped []string) {
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}

		width, err := measure(candidate)
		if err != nil {
			skipped = append(skipped, word)
			continue
		}

		if width <= max || current == "" {
			current = candidate
			continue
		}

		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines, skipped
}
