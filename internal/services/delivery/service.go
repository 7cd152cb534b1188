package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/phrasebox/phrasebox/internal/common/clock"
	"github.com/phrasebox/phrasebox/internal/common/uuid"
	"github.com/phrasebox/phrasebox/internal/models"
	phraseRepo "github.com/phrasebox/phrasebox/internal/repositories/phrase"
	playerRepo "github.com/phrasebox/phrasebox/internal/repositories/player"
	progressRepo "github.com/phrasebox/phrasebox/internal/repositories/progress"
	"github.com/phrasebox/phrasebox/internal/scoring"
	"github.com/phrasebox/phrasebox/internal/services/push"
	"github.com/rs/zerolog/log"
)

const (
	defaultCandidateLimit = 30
	defaultActiveWindow   = 15 * time.Minute
)

// Config holds the dependencies and tunables for the delivery service
type Config struct {
	PhraseRepo   phraseRepo.Repository
	PlayerRepo   playerRepo.Repository
	ProgressRepo progressRepo.Repository
	Scorer       scoring.Scorer
	Publisher    push.Publisher
	Clock        clock.Clock
	UUID         uuid.UUID

	// CandidateLimit is the default fetch size when a request has none
	CandidateLimit int

	// ActiveWindow is how recently a player must have been seen to count
	// as active
	ActiveWindow time.Duration
}

// service implements the Service interface
type service struct {
	phraseRepo     phraseRepo.Repository
	playerRepo     playerRepo.Repository
	progressRepo   progressRepo.Repository
	scorer         scoring.Scorer
	publisher      push.Publisher
	clock          clock.Clock
	uuid           uuid.UUID
	candidateLimit int
	activeWindow   time.Duration
}

// New creates a new delivery service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.PhraseRepo == nil {
		return nil, ErrNilPhraseRepo
	}
	if cfg.PlayerRepo == nil {
		return nil, ErrNilPlayerRepo
	}
	if cfg.ProgressRepo == nil {
		return nil, ErrNilProgressRepo
	}
	if cfg.Scorer == nil {
		return nil, ErrNilScorer
	}
	if cfg.Publisher == nil {
		return nil, ErrNilPublisher
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}
	if cfg.UUID == nil {
		return nil, ErrNilUUIDGenerator
	}

	candidateLimit := cfg.CandidateLimit
	if candidateLimit <= 0 {
		candidateLimit = defaultCandidateLimit
	}

	activeWindow := cfg.ActiveWindow
	if activeWindow <= 0 {
		activeWindow = defaultActiveWindow
	}

	return &service{
		phraseRepo:     cfg.PhraseRepo,
		playerRepo:     cfg.PlayerRepo,
		progressRepo:   cfg.ProgressRepo,
		scorer:         cfg.Scorer,
		publisher:      cfg.Publisher,
		clock:          cfg.Clock,
		uuid:           cfg.UUID,
		candidateLimit: candidateLimit,
		activeWindow:   activeWindow,
	}, nil
}

// CreatePhrase scores, persists and announces a new phrase. A phrase is
// never persisted without a score: scorer failure aborts the whole
// operation.
func (s *service) CreatePhrase(ctx context.Context, input *CreatePhraseInput) (*CreatePhraseOutput, error) {
	if input == nil || input.Content == "" || input.Language == "" {
		return nil, ErrInvalidInput
	}

	score, err := s.scorer.Score(input.Content, input.Language)
	if err != nil {
		return nil, err
	}

	phrase := &models.Phrase{
		ID:              s.uuid.NewUUID(),
		Content:         input.Content,
		Clue:            input.Clue,
		Language:        input.Language,
		DifficultyScore: score,
		SenderID:        input.SenderID,
		RecipientID:     input.RecipientID,
		CreatedAt:       s.clock.Now(),
	}

	err = s.phraseRepo.SavePhrase(ctx, &phraseRepo.SavePhraseInput{
		Phrase: phrase,
	})
	if err != nil {
		return nil, err
	}

	// Best-effort notification; the recipient reconciles by pulling either way
	if phrase.RecipientID != "" {
		s.publisher.PublishNewPhrase(phrase.RecipientID, phrase.ID, phrase.Clue)
	}

	return &CreatePhraseOutput{
		Phrase: phrase,
	}, nil
}

// FetchCandidates selects phrases for a player: unconsumed targeted
// phrases newest first, then unplayed global phrases, filtered to the
// requested difficulty range. Nothing is consumed here.
func (s *service) FetchCandidates(ctx context.Context, input *FetchCandidatesInput) (*FetchCandidatesOutput, error) {
	if input == nil || input.PlayerID == "" {
		return nil, ErrInvalidInput
	}
	if input.MinDifficulty < 0 || (input.MaxDifficulty != 0 && input.MaxDifficulty < input.MinDifficulty) {
		return nil, ErrInvalidInput
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.candidateLimit
	}

	if err := s.ensurePlayer(ctx, input.PlayerID); err != nil {
		return nil, err
	}

	inRange := func(p *models.Phrase) bool {
		if p.DifficultyScore < input.MinDifficulty {
			return false
		}
		if input.MaxDifficulty != 0 && p.DifficultyScore > input.MaxDifficulty {
			return false
		}
		return true
	}

	phrases := make([]*models.Phrase, 0, limit)

	inbox, err := s.phraseRepo.GetInbox(ctx, &phraseRepo.GetInboxInput{
		RecipientID: input.PlayerID,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range inbox.Phrases {
		if len(phrases) == limit {
			break
		}
		if inRange(p) {
			phrases = append(phrases, p)
		}
	}

	if len(phrases) < limit {
		global, err := s.phraseRepo.GetGlobalPhrases(ctx, &phraseRepo.GetGlobalPhrasesInput{})
		if err != nil {
			return nil, err
		}

		played, err := s.phraseRepo.GetPlayedPhrases(ctx, &phraseRepo.GetPlayedPhrasesInput{
			PlayerID: input.PlayerID,
		})
		if err != nil {
			return nil, err
		}

		for _, p := range global.Phrases {
			if len(phrases) == limit {
				break
			}
			if _, ok := played.PhraseIDs[p.ID]; ok {
				continue
			}
			if inRange(p) {
				phrases = append(phrases, p)
			}
		}
	}

	return &FetchCandidatesOutput{
		Phrases: phrases,
	}, nil
}

// Consume marks a targeted phrase as delivered to its recipient
func (s *service) Consume(ctx context.Context, input *ConsumeInput) (*ConsumeOutput, error) {
	if input == nil || input.PhraseID == "" || input.PlayerID == "" {
		return nil, ErrInvalidInput
	}

	phrase, err := s.phraseRepo.GetPhrase(ctx, &phraseRepo.GetPhraseInput{
		PhraseID: input.PhraseID,
	})
	if err != nil {
		if errors.Is(err, phraseRepo.ErrPhraseNotFound) {
			return nil, ErrPhraseNotFound
		}
		return nil, err
	}

	// Global phrases have per-player played state instead of consumption
	if phrase.RecipientID == "" {
		return nil, ErrInvalidInput
	}

	if phrase.RecipientID != input.PlayerID {
		return nil, ErrForbidden
	}

	err = s.phraseRepo.ConsumePhrase(ctx, &phraseRepo.ConsumePhraseInput{
		PhraseID:   input.PhraseID,
		ConsumedBy: input.PlayerID,
		ConsumedAt: s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, phraseRepo.ErrAlreadyConsumed) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return &ConsumeOutput{
		Phrase: phrase,
	}, nil
}

// AnalyzeDifficulty scores content without persisting anything
func (s *service) AnalyzeDifficulty(ctx context.Context, input *AnalyzeDifficultyInput) (*AnalyzeDifficultyOutput, error) {
	if input == nil || input.Language == "" {
		return nil, ErrInvalidInput
	}

	score, err := s.scorer.Score(input.Content, input.Language)
	if err != nil {
		return nil, err
	}

	return &AnalyzeDifficultyOutput{
		Score: score,
	}, nil
}

// RecordProgress stores a completed-game result. Retried submissions are
// acknowledged without being stored twice.
func (s *service) RecordProgress(ctx context.Context, input *RecordProgressInput) (*RecordProgressOutput, error) {
	if input == nil || input.PhraseID == "" || input.PlayerID == "" || input.CompletedAt.IsZero() {
		return nil, ErrInvalidInput
	}
	if input.Score < 0 || input.HintsUsed < 0 {
		return nil, ErrInvalidInput
	}

	phrase, err := s.phraseRepo.GetPhrase(ctx, &phraseRepo.GetPhraseInput{
		PhraseID: input.PhraseID,
	})
	if err != nil {
		if errors.Is(err, phraseRepo.ErrPhraseNotFound) {
			return nil, ErrPhraseNotFound
		}
		return nil, err
	}

	if err := s.ensurePlayer(ctx, input.PlayerID); err != nil {
		return nil, err
	}

	out, err := s.progressRepo.SaveResult(ctx, &progressRepo.SaveResultInput{
		Record: &models.ProgressRecord{
			PhraseID:    input.PhraseID,
			PlayerID:    input.PlayerID,
			CompletedAt: input.CompletedAt,
			Score:       input.Score,
			HintsUsed:   input.HintsUsed,
			SyncState:   models.SyncStateSynced,
		},
	})
	if err != nil {
		return nil, err
	}

	// Completing a global phrase marks it played for this player so the
	// pool never re-serves it
	if phrase.RecipientID == "" {
		err = s.phraseRepo.MarkPlayed(ctx, &phraseRepo.MarkPlayedInput{
			PlayerID: input.PlayerID,
			PhraseID: input.PhraseID,
		})
		if err != nil {
			return nil, err
		}
	}

	return &RecordProgressOutput{
		AlreadyRecorded: out.AlreadyRecorded,
	}, nil
}

// ListPlayers returns the currently active player roster
func (s *service) ListPlayers(ctx context.Context, input *ListPlayersInput) (*ListPlayersOutput, error) {
	out, err := s.playerRepo.ListActivePlayers(ctx, &playerRepo.ListActivePlayersInput{
		Since: s.clock.Now().Add(-s.activeWindow),
	})
	if err != nil {
		return nil, err
	}

	return &ListPlayersOutput{
		Players: out.Players,
	}, nil
}

// ensurePlayer refreshes the player's last-seen time, creating the record
// on first contact. A first contact changes the roster, so it triggers a
// player-list broadcast.
func (s *service) ensurePlayer(ctx context.Context, playerID string) error {
	now := s.clock.Now()

	err := s.playerRepo.TouchPlayer(ctx, &playerRepo.TouchPlayerInput{
		PlayerID: playerID,
		SeenAt:   now,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, playerRepo.ErrPlayerNotFound) {
		return err
	}

	err = s.playerRepo.SavePlayer(ctx, &playerRepo.SavePlayerInput{
		Player: &models.Player{
			ID:       playerID,
			LastSeen: now,
			IsActive: true,
		},
	})
	if err != nil {
		return err
	}

	roster, err := s.playerRepo.ListActivePlayers(ctx, &playerRepo.ListActivePlayersInput{
		Since: now.Add(-s.activeWindow),
	})
	if err != nil {
		// The roster broadcast is best-effort
		log.Warn().Err(err).Msg("failed to list players for roster broadcast")
		return nil
	}

	s.publisher.BroadcastPlayerList(roster.Players)

	return nil
}
