package reflex

import "regexp"

// Fixed list of scam/phishing patterns: fake free-gift lures, suspicious
// shortened-URL shapes, and mass-mention plus giveaway language. Any match
// is treated as a confirmed scam.
var scamPatterns = []*regexp.Regexp{
	// fake gift/nitro lures
	regexp.MustCompile(`(?i)\bfree\s+(?:discord\s+)?nitro\b`),
	regexp.MustCompile(`(?i)\b(?:free|claim)\s+(?:your\s+)?gift\b`),
	regexp.MustCompile(`(?i)\bnitro\s+(?:gift|giveaway|generator)\b`),
	// lookalike and shortened gift URLs
	regexp.MustCompile(`(?i)\bdis?c[o0]rd(?:\.gift|s?\.com/gifts?|-nitro)\S*`),
	regexp.MustCompile(`(?i)https?://(?:\S*\.)?(?:bit\.ly|tinyurl\.com|cutt\.ly|grabify\.link|t\.co)/\S+`),
	// mass-mention plus giveaway language
	regexp.MustCompile(`(?i)@everyone.*\b(?:giveaway|nitro|free|airdrop)\b`),
	regexp.MustCompile(`(?i)\b(?:giveaway|nitro|free|airdrop)\b.*@everyone`),
	// steam/crypto variants of the same lure
	regexp.MustCompile(`(?i)\bfree\s+steam\s+(?:gift|wallet|code)s?\b`),
	regexp.MustCompile(`(?i)\b(?:crypto|eth|btc)\s+giveaway\b`),
}

func matchesScamPattern(text string) (string, bool) {
	for _, p := range scamPatterns {
		if m := p.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}
