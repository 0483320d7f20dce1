package reflex

import "regexp"

// Precompiled word-boundary pattern over a fixed vocabulary of
// self-harm/suicide indicators. Case-insensitive, tolerant of internal
// whitespace variation.
var crisisPattern = regexp.MustCompile(`(?i)\b(?:` +
	`kill\s+myself|` +
	`k\s*m\s*s|` +
	`suicide|suicidal|` +
	`end\s+my\s+life|` +
	`end\s+it\s+all|` +
	`want\s+to\s+die|` +
	`wanna\s+die|` +
	`self\s*-?\s*harm|` +
	`hurt\s+myself|` +
	`no\s+reason\s+to\s+live|` +
	`better\s+off\s+without\s+me` +
	`)\b`)

const crisisResourceText = "Hey, it sounds like you're going through a really hard time right now. " +
	"You're not alone, and people want to help. Please consider reaching out to a crisis line " +
	"(dial or text 988 in the US, or find international lines at findahelpline.com). " +
	"The moderators here have also been notified so someone can check in with you."

func matchesCrisisLanguage(text string) bool {
	return crisisPattern.MatchString(text)
}
