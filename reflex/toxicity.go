package reflex

import (
	"regexp"
	"strings"

	"github.com/BecasLan/BecasScore-sub002/keyword"
)

// Small set of precompiled threat/hate patterns, deliberately stricter
// than anything the slow-path toxicity model would flag: only unambiguous
// direct threats and harassment belong here.
var toxicityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bk\s*y\s*s\b`),
	regexp.MustCompile(`(?i)\bgo\s+(?:kill|hang)\s+yourself\b`),
	regexp.MustCompile(`(?i)\bi(?:\s+will|'?ll)\s+(?:kill|hurt|find)\s+you\b`),
	regexp.MustCompile(`(?i)\bgo\s+die\b`),
	regexp.MustCompile(`(?i)\byou\s+(?:deserve|should)\s+(?:to\s+)?die\b`),
	regexp.MustCompile(`(?i)\bnobody\s+(?:likes|wants)\s+you,?\s+(?:kill|hang)\b`),
}

// Slugged forms of the same vocabulary, matched against a punctuation-
// stripped rendering of the text to defeat "k.y.s"-style censor dodges.
var toxicitySlugTerms = []string{
	"gokillyourself",
	"gohangyourself",
	"iwillkillyou",
	"youdeservetodie",
}

// toxicityScore counts how many distinct patterns the text matches.
func toxicityScore(text string) int {
	score := 0
	for _, p := range toxicityPatterns {
		if p.MatchString(text) {
			score++
		}
	}
	slug := keyword.Slugify(text)
	if slug != "" {
		for _, term := range toxicitySlugTerms {
			if strings.Contains(slug, term) {
				score++
				break
			}
		}
	}
	return score
}
