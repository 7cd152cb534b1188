package delivery

import "context"

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/phrasebox/phrasebox/internal/services/delivery Service

// Service defines the interface for phrase distribution operations
type Service interface {
	// CreatePhrase scores, persists and announces a new phrase
	CreatePhrase(ctx context.Context, input *CreatePhraseInput) (*CreatePhraseOutput, error)

	// FetchCandidates selects phrases for a requesting player: unconsumed
	// targeted phrases first, then unplayed global phrases. Fetching never
	// consumes anything.
	FetchCandidates(ctx context.Context, input *FetchCandidatesInput) (*FetchCandidatesOutput, error)

	// Consume marks a targeted phrase as delivered to its recipient.
	// Exactly one call ever succeeds; later calls return ErrConflict.
	Consume(ctx context.Context, input *ConsumeInput) (*ConsumeOutput, error)

	// AnalyzeDifficulty scores content without persisting anything
	AnalyzeDifficulty(ctx context.Context, input *AnalyzeDifficultyInput) (*AnalyzeDifficultyOutput, error)

	// RecordProgress stores a completed-game result, idempotently
	RecordProgress(ctx context.Context, input *RecordProgressInput) (*RecordProgressOutput, error)

	// ListPlayers returns the currently active player roster
	ListPlayers(ctx context.Context, input *ListPlayersInput) (*ListPlayersOutput, error)
}
