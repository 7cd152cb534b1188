package phrase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phrasebox/phrasebox/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	phraseKeyPrefix   = "phrase:"
	inboxKeyPrefix    = "inbox:"
	playedKeyPrefix   = "played:"
	consumedKeyPrefix = "phrase_consumed:"
	globalPhrasesKey  = "global_phrases"
)

// ErrPhraseNotFound is returned when a phrase is not found
var ErrPhraseNotFound = errors.New("phrase not found")

// ErrAlreadyConsumed is returned when a phrase has already been consumed
var ErrAlreadyConsumed = errors.New("phrase already consumed")

// Config holds configuration for the Redis phrase repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed phrase repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// SavePhrase persists a phrase and its delivery indexes to Redis
func (r *redisRepository) SavePhrase(ctx context.Context, input *SavePhraseInput) error {
	if input == nil || input.Phrase == nil {
		return errors.New("input and phrase cannot be nil")
	}

	phrase := input.Phrase

	if phrase.ID == "" {
		return errors.New("phrase ID cannot be empty")
	}

	// Marshal the phrase to JSON
	phraseJSON, err := json.Marshal(phrase)
	if err != nil {
		return fmt.Errorf("failed to marshal phrase: %w", err)
	}

	// Create a Redis transaction
	pipe := r.client.Pipeline()

	// Save the phrase
	phraseKey := fmt.Sprintf("%s%s", phraseKeyPrefix, phrase.ID)
	pipe.Set(ctx, phraseKey, phraseJSON, 0) // No expiration for now

	// Index the phrase for delivery. Consumed phrases stay out of the
	// inbox index so fetches never re-serve them.
	if phrase.RecipientID != "" {
		inboxKey := fmt.Sprintf("%s%s", inboxKeyPrefix, phrase.RecipientID)
		if phrase.IsConsumed() {
			pipe.ZRem(ctx, inboxKey, phrase.ID)
		} else {
			pipe.ZAdd(ctx, inboxKey, redis.Z{
				Score:  float64(phrase.CreatedAt.UnixNano()),
				Member: phrase.ID,
			})
		}
	} else {
		pipe.ZAdd(ctx, globalPhrasesKey, redis.Z{
			Score:  float64(phrase.CreatedAt.UnixNano()),
			Member: phrase.ID,
		})
	}

	// Execute the transaction
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save phrase: %w", err)
	}

	return nil
}

// GetPhrase retrieves a phrase by ID from Redis
func (r *redisRepository) GetPhrase(ctx context.Context, input *GetPhraseInput) (*models.Phrase, error) {
	if input == nil || input.PhraseID == "" {
		return nil, errors.New("input and phrase ID cannot be empty")
	}

	phraseKey := fmt.Sprintf("%s%s", phraseKeyPrefix, input.PhraseID)
	phraseJSON, err := r.client.Get(ctx, phraseKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrPhraseNotFound
		}
		return nil, fmt.Errorf("failed to get phrase: %w", err)
	}

	var phrase models.Phrase
	if err := json.Unmarshal([]byte(phraseJSON), &phrase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phrase: %w", err)
	}

	return &phrase, nil
}

// ConsumePhrase atomically marks a targeted phrase as delivered.
// The consumption marker is claimed with SETNX, so two concurrent calls
// for the same phrase ID can never both succeed.
func (r *redisRepository) ConsumePhrase(ctx context.Context, input *ConsumePhraseInput) error {
	if input == nil || input.PhraseID == "" {
		return errors.New("input and phrase ID cannot be empty")
	}

	phrase, err := r.GetPhrase(ctx, &GetPhraseInput{
		PhraseID: input.PhraseID,
	})
	if err != nil {
		return err
	}

	// Claim the consumption marker. This is the single atomic transition;
	// everything after it is bookkeeping.
	consumedKey := fmt.Sprintf("%s%s", consumedKeyPrefix, input.PhraseID)
	claimed, err := r.client.SetNX(ctx, consumedKey, input.ConsumedBy, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim consumption marker: %w", err)
	}

	if !claimed {
		return ErrAlreadyConsumed
	}

	// Record the consumption time on the phrase and drop it from the inbox
	consumedAt := input.ConsumedAt
	phrase.ConsumedAt = &consumedAt

	return r.SavePhrase(ctx, &SavePhraseInput{
		Phrase: phrase,
	})
}

// GetInbox retrieves the unconsumed phrases targeted at a recipient,
// most recent first
func (r *redisRepository) GetInbox(ctx context.Context, input *GetInboxInput) (*GetInboxOutput, error) {
	if input == nil || input.RecipientID == "" {
		return nil, errors.New("input and recipient ID cannot be empty")
	}

	inboxKey := fmt.Sprintf("%s%s", inboxKeyPrefix, input.RecipientID)

	phrases, err := r.getIndexedPhrases(ctx, inboxKey, input.Limit)
	if err != nil {
		return nil, err
	}

	return &GetInboxOutput{
		Phrases: phrases,
	}, nil
}

// GetGlobalPhrases retrieves phrases from the shared pool, most recent first
func (r *redisRepository) GetGlobalPhrases(ctx context.Context, input *GetGlobalPhrasesInput) (*GetGlobalPhrasesOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	phrases, err := r.getIndexedPhrases(ctx, globalPhrasesKey, input.Limit)
	if err != nil {
		return nil, err
	}

	return &GetGlobalPhrasesOutput{
		Phrases: phrases,
	}, nil
}

// MarkPlayed records that a player has played a phrase
func (r *redisRepository) MarkPlayed(ctx context.Context, input *MarkPlayedInput) error {
	if input == nil || input.PlayerID == "" || input.PhraseID == "" {
		return errors.New("input, player ID and phrase ID cannot be empty")
	}

	playedKey := fmt.Sprintf("%s%s", playedKeyPrefix, input.PlayerID)
	if err := r.client.SAdd(ctx, playedKey, input.PhraseID).Err(); err != nil {
		return fmt.Errorf("failed to mark phrase played: %w", err)
	}

	return nil
}

// GetPlayedPhrases retrieves the set of phrase IDs a player has played
func (r *redisRepository) GetPlayedPhrases(ctx context.Context, input *GetPlayedPhrasesInput) (*GetPlayedPhrasesOutput, error) {
	if input == nil || input.PlayerID == "" {
		return nil, errors.New("input and player ID cannot be empty")
	}

	playedKey := fmt.Sprintf("%s%s", playedKeyPrefix, input.PlayerID)
	members, err := r.client.SMembers(ctx, playedKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get played phrases: %w", err)
	}

	phraseIDs := make(map[string]struct{}, len(members))
	for _, member := range members {
		phraseIDs[member] = struct{}{}
	}

	return &GetPlayedPhrasesOutput{
		PhraseIDs: phraseIDs,
	}, nil
}

// getIndexedPhrases loads the phrases referenced by a ZSET index in
// descending creation order
func (r *redisRepository) getIndexedPhrases(ctx context.Context, indexKey string, limit int) ([]*models.Phrase, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	phraseIDs, err := r.client.ZRevRange(ctx, indexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read phrase index: %w", err)
	}

	if len(phraseIDs) == 0 {
		return []*models.Phrase{}, nil
	}

	// Get all phrase records and their consumption markers using a pipeline
	pipe := r.client.Pipeline()
	phraseCommands := make([]*redis.StringCmd, len(phraseIDs))
	consumedCommands := make([]*redis.IntCmd, len(phraseIDs))

	for i, phraseID := range phraseIDs {
		phraseKey := fmt.Sprintf("%s%s", phraseKeyPrefix, phraseID)
		consumedKey := fmt.Sprintf("%s%s", consumedKeyPrefix, phraseID)
		phraseCommands[i] = pipe.Get(ctx, phraseKey)
		consumedCommands[i] = pipe.Exists(ctx, consumedKey)
	}

	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get phrases: %w", err)
	}

	phrases := make([]*models.Phrase, 0, len(phraseIDs))
	for i, cmd := range phraseCommands {
		phraseJSON, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// Phrase was deleted between reading the index and fetching it
				continue
			}
			return nil, fmt.Errorf("failed to get phrase %s: %w", phraseIDs[i], err)
		}

		var phrase models.Phrase
		if err := json.Unmarshal([]byte(phraseJSON), &phrase); err != nil {
			return nil, fmt.Errorf("failed to unmarshal phrase %s: %w", phraseIDs[i], err)
		}

		// The marker is claimed before the ConsumedAt/index bookkeeping
		// lands, so it is the authoritative signal: a phrase whose claim
		// succeeded but whose blob update never did must not be served
		claimed, err := consumedCommands[i].Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to check consumption marker %s: %w", phraseIDs[i], err)
		}
		if claimed > 0 || phrase.IsConsumed() {
			continue
		}

		phrases = append(phrases, &phrase)
	}

	return phrases, nil
}
