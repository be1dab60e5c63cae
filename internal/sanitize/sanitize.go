// Package sanitize cleans free text (citizen worldviews, electorate and
// faction descriptions, names) that arrives from files or MCP clients. The
// same text is later handed to an external faction labeler, so markup that
// could restructure a prompt is stripped while the wording is preserved.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLength bounds descriptions and worldviews, in bytes.
	MaxTextLength = 2000

	// MaxLabelLength bounds names and titles, in bytes.
	MaxLabelLength = 120
)

var (
	// XML/HTML tags, with attributes or self-closing, and <?...?> instructions.
	reTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reHeading     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reRule        = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	reFence       = regexp.MustCompile("```+")
	reBlankLines  = regexp.MustCompile(`\n{3,}`)
	reSpaceAround = regexp.MustCompile(`\s+`)
)

// Text cleans multi-line free text: control characters (other than newline
// and tab) and tags are removed, headings become list items, rules are
// dropped, code fences shrink to a single backtick, and runs of blank lines
// collapse. The result is trimmed and cut to MaxTextLength.
func Text(input string) string {
	if input == "" {
		return ""
	}

	s := stripControl(input, true)
	s = reTag.ReplaceAllString(s, "")
	s = reHeading.ReplaceAllString(s, "- ")
	s = reRule.ReplaceAllString(s, "")
	s = reFence.ReplaceAllString(s, "`")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	return truncate(s, MaxTextLength)
}

// Label cleans a single-line name or title: tags and control characters are
// removed, whitespace collapses to single spaces, and the result is cut to
// MaxLabelLength.
func Label(input string) string {
	if input == "" {
		return ""
	}

	s := stripControl(input, false)
	s = reTag.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "`", "")
	s = reSpaceAround.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	return truncate(s, MaxLabelLength)
}

// stripControl removes ASCII control characters. With keepLines, newline and
// tab survive; otherwise they become spaces.
func stripControl(s string, keepLines bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			if keepLines {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		case r < 0x20 || r == 0x7f:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}
