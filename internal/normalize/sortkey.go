package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reSortQuotes = regexp.MustCompile(`['‘’"“”]`)
	// A single parenthetical fragment embedded in a word: "(s)he" -> "she".
	// Only the first, non-nested group is unwrapped.
	reSortParen    = regexp.MustCompile(`\(([^()]*)\)`)
	reSortBrackets = regexp.MustCompile(`[(){}\[\]]`)
	reLeadOrdinal  = regexp.MustCompile(`^(\d+)(?:st|nd|rd|th)\b`)
	reLeadYear     = regexp.MustCompile(`^\d{4}`)
	reLeadNumber   = regexp.MustCompile(`^\d+`)
	reLeadNonAlpha = regexp.MustCompile(`^[^a-z]+`)
)

// SortKey derives the lexical ordering key for a title: lowercased, quotes
// and brackets stripped, a single leading English article removed, and a
// leading number token spelled out in words. It never fails; degenerate
// input comes back as the lowercased, trimmed original.
func SortKey(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.TrimLeft(s, ".")
	s = reAnySpace.ReplaceAllString(s, " ")
	s = reSortQuotes.ReplaceAllString(s, "")
	s = unwrapParen(s)
	s = reSortBrackets.ReplaceAllString(s, "")
	s = stripArticle(s)

	s = replaceLeading(s, reLeadOrdinal, func(m string) string {
		digits := strings.TrimRight(m, "stndrdth")
		n, _ := strconv.Atoi(digits)
		return ordinalWords(n)
	})
	s = replaceLeading(s, reLeadYear, func(m string) string {
		n, _ := strconv.Atoi(m)
		return yearWords(n)
	})
	s = replaceLeading(s, reLeadNumber, func(m string) string {
		n, _ := strconv.Atoi(m)
		return cardinalWords(n)
	})

	if stripped := reLeadNonAlpha.ReplaceAllString(s, ""); stripped != "" {
		return stripped
	}
	return s
}

// unwrapParen removes the parens around the first parenthetical group,
// keeping its content: "the (s)hift" -> "the shift". Nested or additional
// groups are left for the bracket strip that follows.
func unwrapParen(s string) string {
	done := false
	return reSortParen.ReplaceAllStringFunc(s, func(m string) string {
		if done {
			return m
		}
		done = true
		return m[1 : len(m)-1]
	})
}

// stripArticle removes one leading English article. "a " survives when the
// next word is "to" or "is", so titles like "A to Z" keep their shape.
func stripArticle(s string) string {
	switch {
	case strings.HasPrefix(s, "the "):
		return s[len("the "):]
	case strings.HasPrefix(s, "an "):
		return s[len("an "):]
	case strings.HasPrefix(s, "a "):
		rest := s[len("a "):]
		if strings.HasPrefix(rest, "to ") || strings.HasPrefix(rest, "is ") {
			return s
		}
		return rest
	}
	return s
}

func replaceLeading(s string, re *regexp.Regexp, f func(string) string) string {
	m := re.FindString(s)
	if m == "" {
		return s
	}
	return f(m) + s[len(m):]
}
