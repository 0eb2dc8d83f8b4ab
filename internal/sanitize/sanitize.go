// Package sanitize cleans free-form labels that arrive from agents and
// topology files before they are stored on a graph, written to the audit log
// or rendered into DOT output.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLabelLength is the maximum allowed length, in bytes, of an edge or node label.
const MaxLabelLength = 100

// Pre-compiled regular expressions for performance.
var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reWhitespace matches runs of whitespace.
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Label sanitizes a display label:
//  1. Strip every ASCII control character, newlines and tabs included
//  2. Strip XML/HTML tags
//  3. Collapse whitespace runs to one space and trim
//  4. Truncate to MaxLabelLength without splitting a UTF-8 sequence
func Label(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if len(s) > MaxLabelLength {
		s = s[:MaxLabelLength]
		for len(s) > 0 && !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
	}
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F and 0x7F).
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
