package models

import (
	"time"
)

// CacheEntry wraps a phrase held in the client-side cache
type CacheEntry struct {
	// Phrase is the cached phrase
	Phrase Phrase

	// PlayedAt is when the player completed this phrase locally, nil if unplayed
	PlayedAt *time.Time
}

// IsPlayed reports whether the entry has been completed locally
func (e *CacheEntry) IsPlayed() bool {
	return e.PlayedAt != nil
}
