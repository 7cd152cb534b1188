package delivery

// DeliveryError is a custom error type for delivery-related errors
type DeliveryError string

// Error implements the error interface
func (e DeliveryError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrInvalidInput     DeliveryError = "invalid input"
	ErrForbidden        DeliveryError = "phrase belongs to another recipient"
	ErrConflict         DeliveryError = "phrase already consumed"
	ErrPhraseNotFound   DeliveryError = "phrase not found"
	ErrPlayerNotFound   DeliveryError = "player not found"
	ErrNilConfig        DeliveryError = "config cannot be nil"
	ErrNilPhraseRepo    DeliveryError = "phrase repository cannot be nil"
	ErrNilPlayerRepo    DeliveryError = "player repository cannot be nil"
	ErrNilProgressRepo  DeliveryError = "progress repository cannot be nil"
	ErrNilScorer        DeliveryError = "scorer cannot be nil"
	ErrNilPublisher     DeliveryError = "publisher cannot be nil"
	ErrNilClock         DeliveryError = "clock cannot be nil"
	ErrNilUUIDGenerator DeliveryError = "UUID generator cannot be nil"
)
