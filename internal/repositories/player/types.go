package player

import (
	"time"

	"github.com/phrasebox/phrasebox/internal/models"
)

// SavePlayerInput contains parameters for saving a player
type SavePlayerInput struct {
	Player *models.Player
}

// GetPlayerInput contains parameters for retrieving a player
type GetPlayerInput struct {
	PlayerID string
}

// TouchPlayerInput contains parameters for refreshing a player's last-seen time
type TouchPlayerInput struct {
	PlayerID string
	SeenAt   time.Time
}

// ListActivePlayersInput contains parameters for listing active players
type ListActivePlayersInput struct {
	// Since is the cutoff; players seen at or after it are returned
	Since time.Time
}

// ListActivePlayersOutput contains the result of listing active players
type ListActivePlayersOutput struct {
	Players []*models.Player
}
