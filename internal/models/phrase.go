package models

import (
	"time"
)

// PhraseType distinguishes recipient-bound phrases from pool phrases
type PhraseType string

const (
	// PhraseTypeTargeted indicates a phrase created for one specific recipient
	PhraseTypeTargeted PhraseType = "targeted"

	// PhraseTypeGlobal indicates a phrase available to any player
	PhraseTypeGlobal PhraseType = "global"
)

// Phrase represents a puzzle phrase exchanged between players
type Phrase struct {
	// ID is the unique identifier for the phrase
	ID string

	// Content is the puzzle text the recipient has to solve
	Content string

	// Clue is the hint shown alongside the puzzle
	Clue string

	// Language is the language code the phrase was authored in
	Language string

	// DifficultyScore is the computed difficulty in [1,100], set once at creation
	DifficultyScore int

	// SenderID is the player who created the phrase, empty for system phrases
	SenderID string

	// RecipientID is the sole intended recipient; empty means global
	RecipientID string

	// CreatedAt is when the phrase was created
	CreatedAt time.Time

	// ConsumedAt is when the targeted phrase was delivered to its recipient
	ConsumedAt *time.Time
}

// Type returns whether the phrase is targeted or global
func (p *Phrase) Type() PhraseType {
	if p.RecipientID != "" {
		return PhraseTypeTargeted
	}
	return PhraseTypeGlobal
}

// IsConsumed reports whether a targeted phrase has been delivered
func (p *Phrase) IsConsumed() bool {
	return p.ConsumedAt != nil
}
