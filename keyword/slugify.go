package keyword

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^\pL\pN]+`)

// Slugify takes an arbitrary string (eg, a message body or nickname) and
// returns a version with all non-letter, non-digit characters removed, and
// all lower-case. Used to compare message bodies for repetition and to
// defeat punctuation-based censoring of flagged terms.
func Slugify(orig string) string {
	return strings.ToLower(nonSlugChars.ReplaceAllString(orig, ""))
}
