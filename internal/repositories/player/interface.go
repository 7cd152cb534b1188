package player

import (
	"context"

	"github.com/phrasebox/phrasebox/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/phrasebox/phrasebox/internal/repositories/player Repository

// Repository defines the interface for player data persistence
type Repository interface {
	// SavePlayer persists a player
	SavePlayer(ctx context.Context, input *SavePlayerInput) error

	// GetPlayer retrieves a player by ID
	GetPlayer(ctx context.Context, input *GetPlayerInput) (*models.Player, error)

	// TouchPlayer refreshes a player's last-seen timestamp
	TouchPlayer(ctx context.Context, input *TouchPlayerInput) error

	// ListActivePlayers retrieves players seen since the given cutoff
	ListActivePlayers(ctx context.Context, input *ListActivePlayersInput) (*ListActivePlayersOutput, error)
}
