package push

import (
	"time"
)

// Event types sent over the per-player channel
const (
	EventTypeNewPhrase  = "new-phrase"
	EventTypePlayerList = "player-list"
)

// NewPhraseEvent notifies a recipient that a phrase is waiting for them
type NewPhraseEvent struct {
	Type     string `json:"type"`
	PhraseID string `json:"phraseId"`
	Summary  string `json:"summary"`
}

// PlayerSummary is the roster entry sent in player-list events
type PlayerSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// PlayerListEvent notifies connected players that the roster changed
type PlayerListEvent struct {
	Type      string          `json:"type"`
	Players   []PlayerSummary `json:"players"`
	Timestamp time.Time       `json:"timestamp"`
}
