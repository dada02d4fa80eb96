package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Punctuation dropped outright from slugs.
	reSlugDrop = regexp.MustCompile(`[,.?!&#‘"“”(){}\[\]]`)
	// Apostrophes read as word breaks.
	reSlugApostrophe = regexp.MustCompile(`['’]`)
	reSlugStar       = regexp.MustCompile(`\*`)
	// Anything left that is not slug-safe.
	reSlugIllegal = regexp.MustCompile(`[^A-Za-z0-9-_]`)
	reSlugHyphens = regexp.MustCompile(`-+`)
)

// Slug derives a URL-safe slug from a display name.
// "O'Brien & Co." -> "O-Brien-Co". Deterministic and idempotent;
// never produces leading or trailing hyphens.
func Slug(name string) string {
	// Decompose accented characters, then drop anything non-ASCII.
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, name)

	name = reSlugDrop.ReplaceAllString(name, "")
	name = reSlugApostrophe.ReplaceAllString(name, "-")
	name = reSlugStar.ReplaceAllString(name, "_")
	name = reSlugIllegal.ReplaceAllString(name, "-")
	name = reSlugHyphens.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
