package phrase

import (
	"context"

	"github.com/phrasebox/phrasebox/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/phrasebox/phrasebox/internal/repositories/phrase Repository

// Repository defines the interface for phrase data persistence
type Repository interface {
	// SavePhrase persists a phrase and its delivery indexes
	SavePhrase(ctx context.Context, input *SavePhraseInput) error

	// GetPhrase retrieves a phrase by ID
	GetPhrase(ctx context.Context, input *GetPhraseInput) (*models.Phrase, error)

	// ConsumePhrase atomically marks a targeted phrase as delivered.
	// Exactly one call for a given phrase ID ever succeeds; later calls
	// return ErrAlreadyConsumed.
	ConsumePhrase(ctx context.Context, input *ConsumePhraseInput) error

	// GetInbox retrieves the unconsumed phrases targeted at a recipient,
	// most recent first
	GetInbox(ctx context.Context, input *GetInboxInput) (*GetInboxOutput, error)

	// GetGlobalPhrases retrieves phrases from the shared pool, most recent first
	GetGlobalPhrases(ctx context.Context, input *GetGlobalPhrasesInput) (*GetGlobalPhrasesOutput, error)

	// MarkPlayed records that a player has played a global phrase
	MarkPlayed(ctx context.Context, input *MarkPlayedInput) error

	// GetPlayedPhrases retrieves the set of phrase IDs a player has played
	GetPlayedPhrases(ctx context.Context, input *GetPlayedPhrasesInput) (*GetPlayedPhrasesOutput, error)
}
