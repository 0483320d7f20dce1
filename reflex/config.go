package reflex

import "time"

// Config is the static detector configuration, loaded once at startup and
// read-only for the life of the process.
type Config struct {
	EnableBadActor   bool
	EnableCrisis     bool
	EnableRaid       bool
	EnableScam       bool
	EnableRepetition bool
	EnableToxicity   bool

	// RaidPerSecond is the events-per-second cutoff, per tenant, above which
	// the raid detector fires.
	RaidPerSecond int
	// RepetitionThreshold is the number of matching recent bodies at which
	// the repetition detector fires.
	RepetitionThreshold int
	// RepetitionDepth is how many normalized bodies are remembered per author.
	RepetitionDepth int
	// ToxicityThreshold is the number of matched toxicity patterns at which
	// the detector fires.
	ToxicityThreshold int

	// TrackerMaxAge bounds how long idle raid/repetition state survives
	// between Cleanup calls.
	TrackerMaxAge time.Duration
}

func DefaultConfig() Config {
	return Config{
		EnableBadActor:      true,
		EnableCrisis:        true,
		EnableRaid:          true,
		EnableScam:          true,
		EnableRepetition:    true,
		EnableToxicity:      true,
		RaidPerSecond:       5,
		RepetitionThreshold: 3,
		RepetitionDepth:     10,
		ToxicityThreshold:   1,
		TrackerMaxAge:       10 * time.Minute,
	}
}
