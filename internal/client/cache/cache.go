package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phrasebox/phrasebox/internal/client/state"
	"github.com/phrasebox/phrasebox/internal/models"
)

const (
	// DefaultCapacity bounds the cache when no capacity is configured
	DefaultCapacity = 30

	snapshotName    = "phrase_cache"
	snapshotVersion = 1
)

// ErrEmptyCache is returned when no unplayed phrase is available locally
var ErrEmptyCache = errors.New("no unplayed phrases in cache")

// ErrPhraseNotCached is returned when an operation names a phrase the
// cache does not hold
var ErrPhraseNotCached = errors.New("phrase not in cache")

// ErrUnknownSnapshotVersion is returned when a persisted snapshot was
// written by a newer schema than this build understands
var ErrUnknownSnapshotVersion = errors.New("unknown cache snapshot version")

// Config holds configuration for the phrase cache
type Config struct {
	// Store persists the snapshot after every mutation
	Store *state.Store

	// Capacity bounds the number of entries; defaults to DefaultCapacity
	Capacity int
}

// snapshot is the versioned document persisted after every mutation
type snapshot struct {
	Entries []snapshotEntry `json:"entries"`
}

type snapshotEntry struct {
	Phrase   models.Phrase `json:"phrase"`
	PlayedAt *time.Time    `json:"playedAt,omitempty"`
}

// Cache is the bounded, insertion-ordered local store of phrases.
// All mutations are serialized behind one mutex; the cache has a single
// logical owner.
type Cache struct {
	mu       sync.Mutex
	store    *state.Store
	capacity int

	// entries preserves insertion order; index is keyed by phrase ID
	entries []*models.CacheEntry
	index   map[string]*models.CacheEntry
}

// New creates a phrase cache, restoring the previous snapshot if one exists
func New(cfg *Config) (*Cache, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, errors.New("config and store cannot be nil")
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c := &Cache{
		store:    cfg.Store,
		capacity: capacity,
		entries:  []*models.CacheEntry{},
		index:    make(map[string]*models.CacheEntry),
	}

	if err := c.restore(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Cache) restore() error {
	payload, version, err := c.store.Load(snapshotName)
	if err != nil {
		if errors.Is(err, state.ErrSnapshotNotFound) {
			return nil
		}
		return err
	}

	if version > snapshotVersion {
		return ErrUnknownSnapshotVersion
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to decode cache snapshot: %w", err)
	}

	for _, se := range snap.Entries {
		entry := &models.CacheEntry{
			Phrase:   se.Phrase,
			PlayedAt: se.PlayedAt,
		}
		c.entries = append(c.entries, entry)
		c.index[se.Phrase.ID] = entry
	}

	return nil
}

// persist writes the full snapshot; callers hold the mutex
func (c *Cache) persist() error {
	snap := snapshot{Entries: make([]snapshotEntry, 0, len(c.entries))}
	for _, entry := range c.entries {
		snap.Entries = append(snap.Entries, snapshotEntry{
			Phrase:   entry.Phrase,
			PlayedAt: entry.PlayedAt,
		})
	}

	payload, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}

	return c.store.Save(snapshotName, snapshotVersion, payload)
}

// AddBatch appends phrases the cache does not already hold, then evicts
// the oldest entries beyond capacity regardless of played state. It
// returns the phrases that were actually added.
func (c *Cache) AddBatch(phrases []*models.Phrase) ([]*models.Phrase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := make([]*models.Phrase, 0, len(phrases))
	for _, p := range phrases {
		if p == nil || p.ID == "" {
			continue
		}
		if _, ok := c.index[p.ID]; ok {
			continue
		}

		entry := &models.CacheEntry{Phrase: *p}
		c.entries = append(c.entries, entry)
		c.index[p.ID] = entry
		added = append(added, p)
	}

	// Evict strictly the oldest entries beyond capacity
	if excess := len(c.entries) - c.capacity; excess > 0 {
		for _, evicted := range c.entries[:excess] {
			delete(c.index, evicted.Phrase.ID)
		}
		c.entries = append([]*models.CacheEntry{}, c.entries[excess:]...)
	}

	if len(added) == 0 {
		return added, nil
	}

	if err := c.persist(); err != nil {
		return nil, err
	}

	return added, nil
}

// MarkPlayed records the played time for a cached phrase. The entry
// stays in place so a re-fetch cannot re-serve an already played ID
// before it ages out.
func (c *Cache) MarkPlayed(phraseID string, playedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index[phraseID]
	if !ok {
		return ErrPhraseNotCached
	}

	if entry.PlayedAt == nil {
		at := playedAt
		entry.PlayedAt = &at

		if err := c.persist(); err != nil {
			return err
		}
	}

	return nil
}

// NextUnplayed returns a copy of the oldest unplayed entry
func (c *Cache) NextUnplayed() (*models.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if !entry.IsPlayed() {
			copied := *entry
			return &copied, nil
		}
	}

	return nil, ErrEmptyCache
}

// UnplayedCount returns the number of unplayed entries
func (c *Cache) UnplayedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, entry := range c.entries {
		if !entry.IsPlayed() {
			count++
		}
	}
	return count
}

// Len returns the total number of entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Contains reports whether the cache holds a phrase ID
func (c *Cache) Contains(phraseID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[phraseID]
	return ok
}

// Entries returns copies of all entries in insertion order
func (c *Cache) Entries() []models.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, *entry)
	}
	return out
}
