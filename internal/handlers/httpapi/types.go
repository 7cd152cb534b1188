package httpapi

import (
	"time"

	"github.com/phrasebox/phrasebox/internal/models"
)

// phraseItem is the wire representation of a phrase
type phraseItem struct {
	ID              string `json:"id"`
	Content         string `json:"content"`
	Clue            string `json:"clue"`
	Language        string `json:"language"`
	DifficultyScore int    `json:"difficultyScore"`
	PhraseType      string `json:"phraseType"`
}

func toPhraseItem(p *models.Phrase) phraseItem {
	return phraseItem{
		ID:              p.ID,
		Content:         p.Content,
		Clue:            p.Clue,
		Language:        p.Language,
		DifficultyScore: p.DifficultyScore,
		PhraseType:      string(p.Type()),
	}
}

// listPhrasesResponse is the body of GET /phrases
type listPhrasesResponse struct {
	Phrases []phraseItem `json:"phrases"`
	Count   int          `json:"count"`
}

// createPhraseRequest is the body of POST /phrases
type createPhraseRequest struct {
	Content     string `json:"content"`
	Clue        string `json:"clue"`
	Language    string `json:"language"`
	SenderID    string `json:"senderId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
}

// analyzeDifficultyRequest is the body of POST /phrases/analyze-difficulty
type analyzeDifficultyRequest struct {
	Phrase   string `json:"phrase"`
	Language string `json:"language"`
}

// analyzeDifficultyResponse is the body returned by analyze-difficulty
type analyzeDifficultyResponse struct {
	Score int `json:"score"`
}

// consumePhraseRequest is the body of POST /phrases/{id}/consume
type consumePhraseRequest struct {
	PlayerID string `json:"playerId"`
}

// recordProgressRequest is the body of POST /progress
type recordProgressRequest struct {
	PhraseID    string    `json:"phraseId"`
	PlayerID    string    `json:"playerId"`
	Score       int       `json:"score"`
	HintsUsed   int       `json:"hintsUsed"`
	CompletedAt time.Time `json:"completedAt"`
}

// recordProgressResponse is the body returned by POST /progress
type recordProgressResponse struct {
	Acknowledged    bool `json:"acknowledged"`
	AlreadyRecorded bool `json:"alreadyRecorded"`
}

// errorResponse is the JSON body of every non-2xx response
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
