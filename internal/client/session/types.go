package session

import (
	"time"

	"github.com/phrasebox/phrasebox/internal/models"
)

// PlaySession is the immutable state of one round. It is derived once
// when the round starts and never changes while the round is active,
// regardless of cache churn behind it.
type PlaySession struct {
	// Phrase is a copy of the cache entry the round was started from
	Phrase models.Phrase

	// Solution is the normalized answer the player must assemble
	Solution string

	// Tiles is the solution's letters in a shuffled order. The shuffle
	// is a pure function of the phrase, so every device shows the same
	// board for the same phrase.
	Tiles []string

	StartedAt time.Time
}

// Preview is a glimpse of an incoming phrase announced over push. It
// never affects the active round.
type Preview struct {
	PhraseID string
	Summary  string
	SeenAt   time.Time
}

// CompleteInput holds the result of a finished round
type CompleteInput struct {
	Score     int
	HintsUsed int
}
