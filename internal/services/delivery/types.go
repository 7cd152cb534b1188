package delivery

import (
	"time"

	"github.com/phrasebox/phrasebox/internal/models"
)

// CreatePhraseInput contains parameters for creating a phrase
type CreatePhraseInput struct {
	Content  string
	Clue     string
	Language string

	// SenderID is the creating player, empty for system phrases
	SenderID string

	// RecipientID targets the phrase at one player; empty creates a
	// global phrase
	RecipientID string
}

// CreatePhraseOutput contains the created phrase
type CreatePhraseOutput struct {
	Phrase *models.Phrase
}

// FetchCandidatesInput contains parameters for selecting candidate phrases
type FetchCandidatesInput struct {
	PlayerID string

	// MinDifficulty and MaxDifficulty bound the difficulty range;
	// a zero MaxDifficulty means no upper bound
	MinDifficulty int
	MaxDifficulty int

	// Limit caps the number of phrases returned; 0 uses the service default
	Limit int
}

// FetchCandidatesOutput contains the selected phrases, targeted first
type FetchCandidatesOutput struct {
	Phrases []*models.Phrase
}

// ConsumeInput contains parameters for consuming a targeted phrase
type ConsumeInput struct {
	PhraseID string
	PlayerID string
}

// ConsumeOutput contains the consumed phrase
type ConsumeOutput struct {
	Phrase *models.Phrase
}

// AnalyzeDifficultyInput contains parameters for scoring content
type AnalyzeDifficultyInput struct {
	Content  string
	Language string
}

// AnalyzeDifficultyOutput contains the computed score
type AnalyzeDifficultyOutput struct {
	Score int
}

// RecordProgressInput contains parameters for storing a completed-game result
type RecordProgressInput struct {
	PhraseID    string
	PlayerID    string
	Score       int
	HintsUsed   int
	CompletedAt time.Time
}

// RecordProgressOutput contains the outcome of storing a result
type RecordProgressOutput struct {
	// AlreadyRecorded is true when the result was previously acknowledged
	// and this submission was a retry
	AlreadyRecorded bool
}

// ListPlayersInput contains parameters for listing active players
type ListPlayersInput struct{}

// ListPlayersOutput contains the active player roster
type ListPlayersOutput struct {
	Players []*models.Player
}
