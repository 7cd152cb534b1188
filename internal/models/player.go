package models

import (
	"time"
)

// Player represents a registered participant
type Player struct {
	// ID is the unique identifier for the player
	ID string

	// Name is the display name of the player
	Name string

	// DeviceID identifies the device the player last connected from
	DeviceID string

	// LastSeen is when the player last made an API call
	LastSeen time.Time

	// IsActive indicates whether the player counts toward the active roster
	IsActive bool
}
