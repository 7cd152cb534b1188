package session

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/phrasebox/phrasebox/internal/client/api"
	"github.com/phrasebox/phrasebox/internal/client/cache"
	"github.com/phrasebox/phrasebox/internal/client/progress"
	"github.com/phrasebox/phrasebox/internal/client/reachability"
	"github.com/phrasebox/phrasebox/internal/common/clock"
	"github.com/phrasebox/phrasebox/internal/models"
)

// DefaultLowWaterMark is the unplayed count below which a sync also
// refreshes the cache
const DefaultLowWaterMark = 10

var (
	// ErrNoActiveSession is returned when an operation needs a round in
	// progress and there is none
	ErrNoActiveSession = errors.New("no active play session")

	// ErrEmptyCache is returned by StartNext when no unplayed phrase is
	// available locally
	ErrEmptyCache = cache.ErrEmptyCache
)

// Fetcher is the server surface the session manager needs
type Fetcher interface {
	FetchCandidates(ctx context.Context, playerID string, minDifficulty, maxDifficulty int) ([]*models.Phrase, error)
	ConsumePhrase(ctx context.Context, phraseID, playerID string) error
}

// Config holds configuration for the session manager
type Config struct {
	PlayerID string

	Cache *cache.Cache
	Queue *progress.Queue
	API   Fetcher
	Gate  *reachability.Gate
	Clock clock.Clock

	// MinDifficulty and MaxDifficulty bound refresh requests; zero
	// means unbounded on that side
	MinDifficulty int
	MaxDifficulty int

	// LowWaterMark defaults to DefaultLowWaterMark
	LowWaterMark int

	Logger zerolog.Logger
}

// Manager owns the play loop on one device: it starts rounds from the
// local cache, records completions, and reconciles with the server when
// it is reachable. All round state changes go through one mutex; the
// manager has a single logical owner.
type Manager struct {
	mu sync.Mutex

	playerID      string
	cache         *cache.Cache
	queue         *progress.Queue
	api           Fetcher
	gate          *reachability.Gate
	clock         clock.Clock
	minDifficulty int
	maxDifficulty int
	lowWaterMark  int
	log           zerolog.Logger

	current    *PlaySession
	preview    *Preview
	generation uint64

	// pendingConsumes holds targeted phrase IDs accepted into the cache
	// whose server-side claim has not succeeded yet
	pendingConsumes map[string]struct{}
}

// New creates a session manager. It hooks the reachability gate so a
// recovery to online triggers a sync in the background.
func New(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.PlayerID == "" {
		return nil, errors.New("player ID cannot be empty")
	}
	if cfg.Cache == nil || cfg.Queue == nil || cfg.API == nil || cfg.Gate == nil {
		return nil, errors.New("cache, queue, api, and gate cannot be nil")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = &clock.DefaultClock{}
	}

	lowWaterMark := cfg.LowWaterMark
	if lowWaterMark <= 0 {
		lowWaterMark = DefaultLowWaterMark
	}

	m := &Manager{
		playerID:      cfg.PlayerID,
		cache:         cfg.Cache,
		queue:         cfg.Queue,
		api:           cfg.API,
		gate:          cfg.Gate,
		clock:         clk,
		minDifficulty: cfg.MinDifficulty,
		maxDifficulty: cfg.MaxDifficulty,
		lowWaterMark:  lowWaterMark,
		log:           cfg.Logger,

		pendingConsumes: make(map[string]struct{}),
	}

	m.gate.OnOnline(func() {
		go func() {
			if err := m.Sync(context.Background()); err != nil {
				m.log.Warn().Err(err).Msg("sync after reconnect failed")
			}
		}()
	})

	return m, nil
}

// StartNext begins a round from the oldest unplayed cached phrase. If a
// round is already active, the same session is returned; the board a
// player is looking at never changes underneath them.
func (m *Manager) StartNext() (*PlaySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		copied := *m.current
		return &copied, nil
	}

	entry, err := m.cache.NextUnplayed()
	if err != nil {
		return nil, err
	}

	session := derive(entry.Phrase, m.clock.Now())
	m.current = session

	m.log.Info().
		Str("phraseId", session.Phrase.ID).
		Int("difficulty", session.Phrase.DifficultyScore).
		Msg("session started")

	copied := *session
	return &copied, nil
}

// Current returns the active session, or ErrNoActiveSession
func (m *Manager) Current() (*PlaySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, ErrNoActiveSession
	}
	copied := *m.current
	return &copied, nil
}

// Complete finishes the active round: the phrase is marked played in
// the cache and the result is queued for sync. It never touches the
// network, so completing offline always succeeds.
func (m *Manager) Complete(input *CompleteInput) (*models.ProgressRecord, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, ErrNoActiveSession
	}

	now := m.clock.Now()
	phraseID := m.current.Phrase.ID

	if err := m.cache.MarkPlayed(phraseID, now); err != nil {
		return nil, err
	}

	record := &models.ProgressRecord{
		PhraseID:    phraseID,
		PlayerID:    m.playerID,
		CompletedAt: now,
		Score:       input.Score,
		HintsUsed:   input.HintsUsed,
		SyncState:   models.SyncStatePending,
	}

	if err := m.queue.Enqueue(record); err != nil {
		return nil, err
	}

	m.current = nil

	m.log.Info().
		Str("phraseId", phraseID).
		Int("score", input.Score).
		Msg("session completed")

	return record, nil
}

// NotifyIncoming records a pushed phrase announcement as the next
// preview. The active round is never interrupted.
func (m *Manager) NotifyIncoming(phraseID, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preview = &Preview{
		PhraseID: phraseID,
		Summary:  summary,
		SeenAt:   m.clock.Now(),
	}
}

// NextPreview returns the most recent pushed announcement, if any
func (m *Manager) NextPreview() *Preview {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.preview == nil {
		return nil
	}
	copied := *m.preview
	return &copied
}

// Refresh fetches the player's current candidates and merges them into
// the cache. Overlapping refreshes are resolved by generation: only the
// most recently started one gets to apply its response.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	phrases, err := m.api.FetchCandidates(ctx, m.playerID, m.minDifficulty, m.maxDifficulty)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.log.Debug().Uint64("generation", gen).Msg("discarding stale refresh response")
		return nil
	}

	added, err := m.cache.AddBatch(phrases)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	// Accepting a targeted phrase into the cache is the point of
	// consumption: tell the server so no other device gets it. The
	// claim itself can fail transiently, so the IDs are tracked until
	// the server confirms.
	for _, p := range added {
		if p.Type() == models.PhraseTypeTargeted {
			m.pendingConsumes[p.ID] = struct{}{}
		}
	}
	m.mu.Unlock()

	return m.claimPending(ctx)
}

// claimPending retries the server-side claim for every cached targeted
// phrase the server has not confirmed yet. Transient failures leave the
// ID tracked for the next sync; a conflict means another device of the
// same player won the claim, so the phrase is retired locally.
func (m *Manager) claimPending(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.pendingConsumes))
	for id := range m.pendingConsumes {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		err := m.api.ConsumePhrase(ctx, id, m.playerID)
		switch {
		case err == nil:
		case errors.Is(err, api.ErrConflict):
			m.log.Warn().Str("phraseId", id).Msg("phrase claimed elsewhere, retiring")
			_ = m.cache.MarkPlayed(id, m.clock.Now())
		default:
			m.log.Warn().Err(err).Str("phraseId", id).Msg("phrase claim failed, will retry")
			continue
		}

		m.mu.Lock()
		delete(m.pendingConsumes, id)
		m.mu.Unlock()
	}

	return nil
}

// Sync replays queued progress and tops up the cache when it is running
// low. It is called on reconnect and can be called periodically.
func (m *Manager) Sync(ctx context.Context) error {
	if err := m.queue.Flush(ctx); err != nil {
		return err
	}

	if err := m.claimPending(ctx); err != nil {
		return err
	}

	if m.cache.UnplayedCount() < m.lowWaterMark {
		return m.Refresh(ctx)
	}

	return nil
}

// derive builds the immutable session state for a phrase
func derive(phrase models.Phrase, startedAt time.Time) *PlaySession {
	solution := strings.ToLower(phrase.Content)

	letters := make([]string, 0, len(solution))
	for _, r := range solution {
		if unicode.IsLetter(r) {
			letters = append(letters, string(r))
		}
	}

	// Seed from the phrase itself so every device deals the same board
	h := fnv.New64a()
	_, _ = h.Write([]byte(phrase.ID))
	_, _ = h.Write([]byte(solution))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	rng.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})

	return &PlaySession{
		Phrase:    phrase,
		Solution:  solution,
		Tiles:     letters,
		StartedAt: startedAt,
	}
}
