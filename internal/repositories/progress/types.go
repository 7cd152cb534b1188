package progress

import (
	"github.com/phrasebox/phrasebox/internal/models"
)

// SaveResultInput contains parameters for recording a result
type SaveResultInput struct {
	Record *models.ProgressRecord
}

// SaveResultOutput contains the outcome of recording a result
type SaveResultOutput struct {
	// AlreadyRecorded is true when an identical (player, phrase) result
	// existed and the save was skipped
	AlreadyRecorded bool
}

// GetResultInput contains parameters for retrieving a result
type GetResultInput struct {
	PlayerID string
	PhraseID string
}

// ListPlayerResultsInput contains parameters for listing a player's results
type ListPlayerResultsInput struct {
	PlayerID string
}

// ListPlayerResultsOutput contains the result of listing a player's results
type ListPlayerResultsOutput struct {
	Records []*models.ProgressRecord
}
