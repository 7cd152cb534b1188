package push

import (
	"github.com/phrasebox/phrasebox/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_publisher.go github.com/phrasebox/phrasebox/internal/services/push Publisher

// Publisher is the best-effort fan-out surface the delivery service
// publishes through. Every method is fire-and-forget: events to
// disconnected or slow players are dropped, never queued.
type Publisher interface {
	// PublishNewPhrase notifies a recipient that a phrase is waiting for
	// them, if they are currently connected
	PublishNewPhrase(recipientID, phraseID, summary string)

	// BroadcastPlayerList notifies all connected players that the player
	// roster changed. Bursts are coalesced to a minimum inter-broadcast
	// interval.
	BroadcastPlayerList(players []*models.Player)
}
