package models

import (
	"time"
)

// SyncState tracks where a progress record is in its sync lifecycle
type SyncState string

const (
	// SyncStatePending indicates the record has not been acknowledged yet
	SyncStatePending SyncState = "pending"

	// SyncStateSynced indicates the server acknowledged the record
	SyncStateSynced SyncState = "synced"

	// SyncStateFailed indicates the last sync attempt failed
	SyncStateFailed SyncState = "failed"
)

// ProgressRecord represents a completed-game result awaiting server acknowledgment
type ProgressRecord struct {
	// PhraseID is the phrase the player completed
	PhraseID string

	// PlayerID is the player who completed the phrase
	PlayerID string

	// CompletedAt is when the player finished the puzzle
	CompletedAt time.Time

	// Score is the score the player earned
	Score int

	// HintsUsed is how many hints the player consumed
	HintsUsed int

	// SyncState is the record's position in the sync lifecycle
	SyncState SyncState
}
