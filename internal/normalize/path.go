package normalize

import (
	"fmt"
	"time"
)

// storiesDir is the root of the installment body tree within the
// content store.
const storiesDir = "stories"

// InstallmentPath builds the storage path for an installment body.
// Bodies shard by the uppercased first letter of the story slug, with a
// "_" bucket for slugs that do not start with a letter:
//
//	stories/B/bar/bar.003.2021-02-01.html
//
// The path embeds the publish date, so every dated revision of an ordinal
// keeps its own body.
func InstallmentPath(slug string, ordinal int, published time.Time) string {
	bucket := "_"
	if len(slug) > 0 {
		c := slug[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			bucket = string(c)
		}
	}
	return fmt.Sprintf("%s/%s/%s/%s.%03d.%s.html",
		storiesDir, bucket, slug, slug, ordinal, published.Format("2006-01-02"))
}
