package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/phrasebox/phrasebox/internal/client/api"
	"github.com/phrasebox/phrasebox/internal/client/state"
	"github.com/phrasebox/phrasebox/internal/models"
)

const (
	// DefaultMaxAttempts is how many times one record is submitted
	// before it is dropped
	DefaultMaxAttempts = 5

	// DefaultBackoffBase is the first retry delay; it doubles per attempt
	DefaultBackoffBase = 500 * time.Millisecond

	snapshotName    = "progress_queue"
	snapshotVersion = 1
)

// Submitter sends one progress record to the server
type Submitter interface {
	SubmitProgress(ctx context.Context, record *models.ProgressRecord) error
}

// Config holds configuration for the offline progress queue
type Config struct {
	// Store persists the queue after every mutation
	Store *state.Store

	// Submitter delivers records during Flush
	Submitter Submitter

	// MaxAttempts defaults to DefaultMaxAttempts
	MaxAttempts int

	// BackoffBase defaults to DefaultBackoffBase
	BackoffBase time.Duration

	Logger zerolog.Logger
}

// queuedRecord is one pending submission with its retry count
type queuedRecord struct {
	Record   models.ProgressRecord `json:"record"`
	Attempts int                   `json:"attempts"`
}

type snapshot struct {
	Records []queuedRecord `json:"records"`
}

// Queue holds progress records completed while the server was
// unreachable and replays them in completion order. Enqueue never fails
// for reachability reasons; the local write is the source of truth.
type Queue struct {
	mu          sync.Mutex
	store       *state.Store
	submitter   Submitter
	maxAttempts int
	backoffBase time.Duration
	log         zerolog.Logger

	// flushMu serializes whole flush runs. Overlapping flushes would
	// both submit the same head record, and the later drop could remove
	// a record the server never acknowledged.
	flushMu sync.Mutex

	records []queuedRecord
}

// New creates a progress queue, restoring pending records from the
// previous snapshot if one exists
func New(cfg *Config) (*Queue, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, errors.New("config and store cannot be nil")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("submitter cannot be nil")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}

	q := &Queue{
		store:       cfg.Store,
		submitter:   cfg.Submitter,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		log:         cfg.Logger,
	}

	if err := q.restore(); err != nil {
		return nil, err
	}

	return q, nil
}

func (q *Queue) restore() error {
	payload, version, err := q.store.Load(snapshotName)
	if err != nil {
		if errors.Is(err, state.ErrSnapshotNotFound) {
			return nil
		}
		return err
	}

	if version > snapshotVersion {
		return errors.New("unknown progress queue snapshot version")
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to decode progress queue snapshot: %w", err)
	}

	q.records = snap.Records
	return nil
}

// persist writes the full queue; callers hold the mutex
func (q *Queue) persist() error {
	payload, err := json.Marshal(&snapshot{Records: q.records})
	if err != nil {
		return fmt.Errorf("failed to encode progress queue snapshot: %w", err)
	}
	return q.store.Save(snapshotName, snapshotVersion, payload)
}

// Enqueue appends a record to the pending queue. It only fails on a
// local persistence error, never on reachability.
func (q *Queue) Enqueue(record *models.ProgressRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	copied := *record
	copied.SyncState = models.SyncStatePending
	q.records = append(q.records, queuedRecord{Record: copied})

	return q.persist()
}

// Len returns the number of pending records
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Pending returns copies of the pending records in completion order
func (q *Queue) Pending() []models.ProgressRecord {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.ProgressRecord, 0, len(q.records))
	for _, qr := range q.records {
		out = append(out, qr.Record)
	}
	return out
}

// Flush replays pending records strictly in order, one in flight at a
// time. A permanently rejected record is dropped and never retried; a
// transiently failing record is retried with doubling delays and
// dropped after the attempt ceiling. Flush stops early if the context
// is cancelled. Only one flush runs at a time; a concurrent call waits
// for the running one and then drains whatever is left.
func (q *Queue) Flush(ctx context.Context) error {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	for {
		q.mu.Lock()
		if len(q.records) == 0 {
			q.mu.Unlock()
			return nil
		}
		head := q.records[0]
		q.mu.Unlock()

		err := q.submitter.SubmitProgress(ctx, &head.Record)
		switch {
		case err == nil:
			if err := q.dropHead(); err != nil {
				return err
			}

		case errors.Is(err, api.ErrInvalidProgress):
			q.log.Warn().
				Err(err).
				Str("phraseId", head.Record.PhraseID).
				Str("playerId", head.Record.PlayerID).
				Msg("progress record rejected, dropping")
			if err := q.dropHead(); err != nil {
				return err
			}

		default:
			attempts := head.Attempts + 1
			if attempts >= q.maxAttempts {
				q.log.Error().
					Err(err).
					Str("phraseId", head.Record.PhraseID).
					Int("attempts", attempts).
					Msg("progress record exhausted retries, dropping")
				if err := q.dropHead(); err != nil {
					return err
				}
				continue
			}

			if err := q.bumpHead(attempts); err != nil {
				return err
			}

			delay := q.backoffBase << (attempts - 1)
			q.log.Debug().
				Err(err).
				Str("phraseId", head.Record.PhraseID).
				Dur("retryIn", delay).
				Msg("progress submission failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

func (q *Queue) dropHead() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return nil
	}
	q.records = append([]queuedRecord{}, q.records[1:]...)
	return q.persist()
}

func (q *Queue) bumpHead(attempts int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return nil
	}
	q.records[0].Attempts = attempts
	return q.persist()
}
