package phrase

import (
	"time"

	"github.com/phrasebox/phrasebox/internal/models"
)

// SavePhraseInput contains parameters for saving a phrase
type SavePhraseInput struct {
	Phrase *models.Phrase
}

// GetPhraseInput contains parameters for retrieving a phrase
type GetPhraseInput struct {
	PhraseID string
}

// ConsumePhraseInput contains parameters for consuming a targeted phrase
type ConsumePhraseInput struct {
	PhraseID   string
	ConsumedBy string
	ConsumedAt time.Time
}

// GetInboxInput contains parameters for retrieving a recipient's inbox
type GetInboxInput struct {
	RecipientID string

	// Limit caps the number of phrases returned; 0 means no limit
	Limit int
}

// GetInboxOutput contains the result of retrieving a recipient's inbox
type GetInboxOutput struct {
	Phrases []*models.Phrase
}

// GetGlobalPhrasesInput contains parameters for retrieving pool phrases
type GetGlobalPhrasesInput struct {
	// Limit caps the number of phrases returned; 0 means no limit
	Limit int
}

// GetGlobalPhrasesOutput contains the result of retrieving pool phrases
type GetGlobalPhrasesOutput struct {
	Phrases []*models.Phrase
}

// MarkPlayedInput contains parameters for recording a played phrase
type MarkPlayedInput struct {
	PlayerID string
	PhraseID string
}

// GetPlayedPhrasesInput contains parameters for retrieving a player's played set
type GetPlayedPhrasesInput struct {
	PlayerID string
}

// GetPlayedPhrasesOutput contains the result of retrieving a player's played set
type GetPlayedPhrasesOutput struct {
	PhraseIDs map[string]struct{}
}
