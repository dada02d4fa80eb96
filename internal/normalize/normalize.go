// Package normalize provides text normalization for catalog data: slugs,
// sort keys, typographic quotes, whitespace cleanup, content checksums,
// and derived storage paths.
package normalize

import (
	"regexp"
	"strings"
)

var (
	reAnySpace  = regexp.MustCompile(`\s+`)
	reRunSpaces = regexp.MustCompile(` +`)
	reFormFeeds = regexp.MustCompile(`[\f\v]`)
	reLineEnds  = regexp.MustCompile("\r\n|\n\r|\r")

	// Matches a straight quote with one character of context on either side.
	// The leading alternation decides opening vs closing: a quote at line
	// start or after whitespace opens, anything else closes.
	reStraightQuote = regexp.MustCompile(`(?m)(?:(^|\s)|(.))(["'])(.|$)`)

	reCurlySingle = regexp.MustCompile(`[‘’]`)
	reCurlyDouble = regexp.MustCompile(`[“”]`)
)

// FixLineEndings converts CRLF, LFCR, and bare CR line endings to LF.
func FixLineEndings(text string) string {
	return reLineEnds.ReplaceAllString(text, "\n")
}

// CleanWhitespace trims the text and collapses runs of whitespace.
// In multiline mode line endings are normalized first and vertical
// whitespace becomes newlines; otherwise everything collapses to a
// single space.
func CleanWhitespace(text string, multiline bool) string {
	text = strings.TrimSpace(text)
	if multiline {
		text = FixLineEndings(text)
		text = reFormFeeds.ReplaceAllString(text, "\n")
		text = reRunSpaces.ReplaceAllString(text, " ")
	} else {
		text = reAnySpace.ReplaceAllString(text, " ")
	}
	return text
}

// FancyQuote converts straight quotes to direction-aware typographic quotes.
// A quote preceded by whitespace (or at the start of a line) opens; any
// other quote closes. Matches consume one character of trailing context,
// so immediately adjacent quotes keep their original form.
func FancyQuote(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range reStraightQuote.FindAllStringSubmatchIndex(text, -1) {
		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return text[m[2*i]:m[2*i+1]]
		}

		b.WriteString(text[last:m[0]])

		opening := m[2] >= 0 // the start-or-whitespace alternative matched
		var repl string
		if group(3) == "'" {
			repl = "’"
			if opening {
				repl = "‘"
			}
		} else {
			repl = "”"
			if opening {
				repl = "“"
			}
		}

		b.WriteString(group(1))
		b.WriteString(group(2))
		b.WriteString(repl)
		b.WriteString(group(4))
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// PlainQuote converts typographic quotes back to straight quotes.
func PlainQuote(text string) string {
	text = reCurlySingle.ReplaceAllString(text, "'")
	return reCurlyDouble.ReplaceAllString(text, `"`)
}

// CleanParagraph normalizes whitespace and applies typographic quotes.
// This is the standard cleanup applied to pasted body text.
func CleanParagraph(text string, multiline bool) string {
	return FancyQuote(CleanWhitespace(text, multiline))
}
