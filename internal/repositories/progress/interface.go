package progress

import (
	"context"

	"github.com/phrasebox/phrasebox/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/phrasebox/phrasebox/internal/repositories/progress Repository

// Repository defines the interface for completed-game result persistence
type Repository interface {
	// SaveResult records a completed-game result. Saving the same
	// (player, phrase) pair again is a no-op flagged in the output, so
	// client retries are safe.
	SaveResult(ctx context.Context, input *SaveResultInput) (*SaveResultOutput, error)

	// GetResult retrieves a recorded result
	GetResult(ctx context.Context, input *GetResultInput) (*models.ProgressRecord, error)

	// ListPlayerResults retrieves a player's recorded results, most recent first
	ListPlayerResults(ctx context.Context, input *ListPlayerResultsInput) (*ListPlayerResultsOutput, error)
}
