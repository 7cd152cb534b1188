package player

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
	playerKeyPrefix = "player:"
	lastSeenKey     = "player_last_seen"
)

// ErrPlayerNotFound is returned when a player is not found
var ErrPlayerNotFound = errors.New("player not found")

// Config holds configuration for the Redis player repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed player repository
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

// SavePlayer persists a player to Redis
func (r *redisRepository) SavePlayer(ctx context.Context, input *SavePlayerInput) error {
	if input == nil || input.Player == nil {
		return errors.New("input and player cannot be nil")
	}

	player := input.Player

	if player.ID == "" {
		return errors.New("player ID cannot be empty")
	}

	// Marshal the player to JSON
	playerJSON, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	// Create a Redis transaction
	pipe := r.client.Pipeline()

	// Save the player
	playerKey := fmt.Sprintf("%s%s", playerKeyPrefix, player.ID)
	pipe.Set(ctx, playerKey, playerJSON, 0) // No expiration for now

	// Track last-seen for the active roster
	if !player.LastSeen.IsZero() {
		pipe.ZAdd(ctx, lastSeenKey, redis.Z{
			Score:  float64(player.LastSeen.UnixNano()),
			Member: player.ID,
		})
	}

	// Execute the transaction
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}

	return nil
}

// GetPlayer retrieves a player by ID from Redis
func (r *redisRepository) GetPlayer(ctx context.Context, input *GetPlayerInput) (*models.Player, error) {
	if input == nil || input.PlayerID == "" {
		return nil, errors.New("input and player ID cannot be empty")
	}

	playerKey := fmt.Sprintf("%s%s", playerKeyPrefix, input.PlayerID)
	playerJSON, err := r.client.Get(ctx, playerKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	var player models.Player
	if err := json.Unmarshal([]byte(playerJSON), &player); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}

	return &player, nil
}

// TouchPlayer refreshes a player's last-seen timestamp
func (r *redisRepository) TouchPlayer(ctx context.Context, input *TouchPlayerInput) error {
	if input == nil || input.PlayerID == "" {
		return errors.New("input and player ID cannot be empty")
	}

	player, err := r.GetPlayer(ctx, &GetPlayerInput{
		PlayerID: input.PlayerID,
	})
	if err != nil {
		return err
	}

	player.LastSeen = input.SeenAt
	player.IsActive = true

	return r.SavePlayer(ctx, &SavePlayerInput{
		Player: player,
	})
}

// ListActivePlayers retrieves players seen since the given cutoff
func (r *redisRepository) ListActivePlayers(ctx context.Context, input *ListActivePlayersInput) (*ListActivePlayersOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	playerIDs, err := r.client.ZRangeByScore(ctx, lastSeenKey, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", input.Since.UnixNano()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active player IDs: %w", err)
	}

	if len(playerIDs) == 0 {
		return &ListActivePlayersOutput{
			Players: []*models.Player{},
		}, nil
	}

	// Get all player records using a pipeline
	pipe := r.client.Pipeline()
	playerCommands := make([]*redis.StringCmd, len(playerIDs))

	for i, playerID := range playerIDs {
		playerKey := fmt.Sprintf("%s%s", playerKeyPrefix, playerID)
		playerCommands[i] = pipe.Get(ctx, playerKey)
	}

	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	players := make([]*models.Player, 0, len(playerIDs))
	for i, cmd := range playerCommands {
		playerJSON, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// Player was deleted between reading the index and fetching
				continue
			}
			return nil, fmt.Errorf("failed to get player %s: %w", playerIDs[i], err)
		}

		var player models.Player
		if err := json.Unmarshal([]byte(playerJSON), &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player %s: %w", playerIDs[i], err)
		}

		players = append(players, &player)
	}

	return &ListActivePlayersOutput{
		Players: players,
	}, nil
}
