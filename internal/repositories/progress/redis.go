package progress

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
	resultKeyPrefix     = "progress:"
	playerResultsPrefix = "progress_index:"
)

// ErrResultNotFound is returned when a result is not found
var ErrResultNotFound = errors.New("progress result not found")

// Config holds configuration for the Redis progress repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed progress repository
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

func resultKey(playerID, phraseID string) string {
	return fmt.Sprintf("%s%s:%s", resultKeyPrefix, playerID, phraseID)
}

// SaveResult records a completed-game result. The record key is claimed
// with SETNX so a retried submission never overwrites or duplicates the
// original.
func (r *redisRepository) SaveResult(ctx context.Context, input *SaveResultInput) (*SaveResultOutput, error) {
	if input == nil || input.Record == nil {
		return nil, errors.New("input and record cannot be nil")
	}

	record := input.Record

	if record.PlayerID == "" || record.PhraseID == "" {
		return nil, errors.New("player ID and phrase ID cannot be empty")
	}

	// Marshal the record to JSON
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	// Claim the record key
	key := resultKey(record.PlayerID, record.PhraseID)
	claimed, err := r.client.SetNX(ctx, key, recordJSON, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	if !claimed {
		return &SaveResultOutput{
			AlreadyRecorded: true,
		}, nil
	}

	// Index the result for per-player listing
	indexKey := fmt.Sprintf("%s%s", playerResultsPrefix, record.PlayerID)
	err = r.client.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(record.CompletedAt.UnixNano()),
		Member: record.PhraseID,
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to index result: %w", err)
	}

	return &SaveResultOutput{}, nil
}

// GetResult retrieves a recorded result from Redis
func (r *redisRepository) GetResult(ctx context.Context, input *GetResultInput) (*models.ProgressRecord, error) {
	if input == nil || input.PlayerID == "" || input.PhraseID == "" {
		return nil, errors.New("input, player ID and phrase ID cannot be empty")
	}

	recordJSON, err := r.client.Get(ctx, resultKey(input.PlayerID, input.PhraseID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var record models.ProgressRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &record, nil
}

// ListPlayerResults retrieves a player's recorded results, most recent first
func (r *redisRepository) ListPlayerResults(ctx context.Context, input *ListPlayerResultsInput) (*ListPlayerResultsOutput, error) {
	if input == nil || input.PlayerID == "" {
		return nil, errors.New("input and player ID cannot be empty")
	}

	indexKey := fmt.Sprintf("%s%s", playerResultsPrefix, input.PlayerID)
	phraseIDs, err := r.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read result index: %w", err)
	}

	records := make([]*models.ProgressRecord, 0, len(phraseIDs))
	for _, phraseID := range phraseIDs {
		record, err := r.GetResult(ctx, &GetResultInput{
			PlayerID: input.PlayerID,
			PhraseID: phraseID,
		})
		if err != nil {
			if errors.Is(err, ErrResultNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}

	return &ListPlayerResultsOutput{
		Records: records,
	}, nil
}
