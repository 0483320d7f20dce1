package keyword

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// TokenizeText splits free-form message text in to tokens, including
// lower-casing, unicode normalization, and accent folding.
//
// The intent is fast matching of message content against fixed vocabulary
// lists, tolerant of the decorated text chat users actually type.
func TokenizeText(text string) []string {
	// the transform chain is stateful and must not be shared across calls
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	split := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, split)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		folded = split
	}
	return strings.Fields(folded)
}

// NormalizeBody folds a message body down to a canonical comparison form:
// tokenized, accent-folded, and re-joined with single spaces. Two messages
// that differ only in case, punctuation, or spacing normalize equal.
func NormalizeBody(text string) string {
	return strings.Join(TokenizeText(text), " ")
}
