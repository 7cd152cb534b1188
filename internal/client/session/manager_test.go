package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/phrasebox/phrasebox/internal/client/api"
	"github.com/phrasebox/phrasebox/internal/client/cache"
	"github.com/phrasebox/phrasebox/internal/client/progress"
	"github.com/phrasebox/phrasebox/internal/client/reachability"
	"github.com/phrasebox/phrasebox/internal/client/state"
	clockmock "github.com/phrasebox/phrasebox/internal/common/clock/mocks"
	"github.com/phrasebox/phrasebox/internal/models"
)

// fakeFetcher scripts server responses for the manager
type fakeFetcher struct {
	mu sync.Mutex

	responses  [][]*models.Phrase
	fetchCalls int
	fetchGate  chan struct{}

	consumed    []string
	consumeErrs map[string][]error

	submitted []models.ProgressRecord
}

func (f *fakeFetcher) FetchCandidates(_ context.Context, _ string, _, _ int) ([]*models.Phrase, error) {
	f.mu.Lock()
	gate := f.fetchGate
	f.fetchGate = nil
	f.fetchCalls++
	var out []*models.Phrase
	if len(f.responses) > 0 {
		out = f.responses[0]
		f.responses = f.responses[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return out, nil
}

func (f *fakeFetcher) ConsumePhrase(_ context.Context, phraseID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if queued := f.consumeErrs[phraseID]; len(queued) > 0 {
		err := queued[0]
		f.consumeErrs[phraseID] = queued[1:]
		return err
	}
	f.consumed = append(f.consumed, phraseID)
	return nil
}

func (f *fakeFetcher) failConsume(phraseID string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumeErrs[phraseID] = append(f.consumeErrs[phraseID], errs...)
}

func (f *fakeFetcher) SubmitProgress(_ context.Context, record *models.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, *record)
	return nil
}

func (f *fakeFetcher) queueResponse(phrases ...*models.Phrase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, phrases)
}

func (f *fakeFetcher) submittedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.submitted))
	for _, r := range f.submitted {
		ids = append(ids, r.PhraseID)
	}
	return ids
}

type ManagerSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	fetcher *fakeFetcher
	cache   *cache.Cache
	queue   *progress.Queue
	gate    *reachability.Gate
	manager *Manager

	now time.Time
}

func (s *ManagerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mockClock := clockmock.NewMockClock(s.ctrl)
	mockClock.EXPECT().Now().Return(s.now).AnyTimes()

	store, err := state.Open(&state.Config{Path: filepath.Join(s.T().TempDir(), "client.db")})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = store.Close() })

	s.cache, err = cache.New(&cache.Config{Store: store})
	s.Require().NoError(err)

	s.fetcher = &fakeFetcher{consumeErrs: make(map[string][]error)}
	s.queue, err = progress.New(&progress.Config{
		Store:       store,
		Submitter:   s.fetcher,
		BackoffBase: time.Millisecond,
	})
	s.Require().NoError(err)

	s.gate = reachability.New(nil)

	s.manager, err = New(&Config{
		PlayerID: "player-1",
		Cache:    s.cache,
		Queue:    s.queue,
		API:      s.fetcher,
		Gate:     s.gate,
		Clock:    mockClock,
	})
	s.Require().NoError(err)
}

func (s *ManagerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ManagerSuite) phrase(id, content string) *models.Phrase {
	return &models.Phrase{
		ID:              id,
		Content:         content,
		Language:        "en",
		DifficultyScore: 40,
	}
}

func (s *ManagerSuite) targeted(id, content string) *models.Phrase {
	p := s.phrase(id, content)
	p.SenderID = "player-2"
	p.RecipientID = "player-1"
	return p
}

func (s *ManagerSuite) seedCache(phrases ...*models.Phrase) {
	_, err := s.cache.AddBatch(phrases)
	s.Require().NoError(err)
}

func (s *ManagerSuite) TestStartNextDealsOldestUnplayed() {
	s.seedCache(s.phrase("phrase-1", "Quiet Harbor"), s.phrase("phrase-2", "stone bridge"))

	session, err := s.manager.StartNext()
	s.Require().NoError(err)
	s.Equal("phrase-1", session.Phrase.ID)
	s.Equal("quiet harbor", session.Solution)
	s.Equal(s.now, session.StartedAt)

	// Tiles hold exactly the solution's letters, spaces excluded
	s.Len(session.Tiles, 11)
}

func (s *ManagerSuite) TestTileShuffleIsDeterministic() {
	first := derive(*s.phrase("phrase-1", "quiet harbor"), s.now)
	second := derive(*s.phrase("phrase-1", "quiet harbor"), s.now.Add(time.Hour))
	s.Equal(first.Tiles, second.Tiles)

	other := derive(*s.phrase("phrase-2", "quiet harbor"), s.now)
	s.NotEqual(first.Tiles, other.Tiles)
}

func (s *ManagerSuite) TestStartNextReturnsActiveSession() {
	s.seedCache(s.phrase("phrase-1", "quiet harbor"), s.phrase("phrase-2", "stone bridge"))

	first, err := s.manager.StartNext()
	s.Require().NoError(err)

	again, err := s.manager.StartNext()
	s.Require().NoError(err)
	s.Equal(first.Phrase.ID, again.Phrase.ID)
}

func (s *ManagerSuite) TestStartNextEmptyCache() {
	_, err := s.manager.StartNext()
	s.Require().ErrorIs(err, ErrEmptyCache)
}

func (s *ManagerSuite) TestCompleteMarksPlayedAndQueues() {
	s.seedCache(s.phrase("phrase-1", "quiet harbor"))

	_, err := s.manager.StartNext()
	s.Require().NoError(err)

	record, err := s.manager.Complete(&CompleteInput{Score: 85, HintsUsed: 1})
	s.Require().NoError(err)
	s.Equal("phrase-1", record.PhraseID)
	s.Equal(models.SyncStatePending, record.SyncState)

	s.Equal(0, s.cache.UnplayedCount())
	s.Equal(1, s.queue.Len())

	_, err = s.manager.Current()
	s.Require().ErrorIs(err, ErrNoActiveSession)
}

func (s *ManagerSuite) TestCompleteWithoutSession() {
	_, err := s.manager.Complete(&CompleteInput{Score: 10})
	s.Require().ErrorIs(err, ErrNoActiveSession)
}

func (s *ManagerSuite) TestOfflineCompletionsReplayInOrderOnSync() {
	s.seedCache(
		s.phrase("phrase-1", "quiet harbor"),
		s.phrase("phrase-2", "stone bridge"),
		s.phrase("phrase-3", "paper lantern"),
	)

	for i := 0; i < 3; i++ {
		_, err := s.manager.StartNext()
		s.Require().NoError(err)
		_, err = s.manager.Complete(&CompleteInput{Score: 50 + i})
		s.Require().NoError(err)
	}
	s.Equal(3, s.queue.Len())

	s.Require().NoError(s.manager.Sync(context.Background()))

	s.Equal([]string{"phrase-1", "phrase-2", "phrase-3"}, s.fetcher.submittedIDs())
	s.Equal(0, s.queue.Len())
}

func (s *ManagerSuite) TestSyncRefreshesWhenCacheRunsLow() {
	s.fetcher.queueResponse(s.phrase("phrase-new", "paper lantern"))

	s.Require().NoError(s.manager.Sync(context.Background()))

	s.Equal(1, s.fetcher.fetchCalls)
	s.True(s.cache.Contains("phrase-new"))
}

func (s *ManagerSuite) TestSyncSkipsRefreshWhenCacheIsFull() {
	phrases := make([]*models.Phrase, 0, DefaultLowWaterMark)
	for i := 0; i < DefaultLowWaterMark; i++ {
		phrases = append(phrases, s.phrase(fmt.Sprintf("phrase-%02d", i), "quiet harbor"))
	}
	s.seedCache(phrases...)

	s.Require().NoError(s.manager.Sync(context.Background()))
	s.Equal(0, s.fetcher.fetchCalls)
}

func (s *ManagerSuite) TestIncomingPhraseDoesNotDisturbActiveSession() {
	s.seedCache(s.phrase("phrase-1", "quiet harbor"))

	session, err := s.manager.StartNext()
	s.Require().NoError(err)

	s.manager.NotifyIncoming("phrase-2", "from your rival")
	s.fetcher.queueResponse(s.targeted("phrase-2", "stone bridge"))
	s.Require().NoError(s.manager.Refresh(context.Background()))

	current, err := s.manager.Current()
	s.Require().NoError(err)
	s.Equal(session.Phrase.ID, current.Phrase.ID)
	s.Equal(session.Tiles, current.Tiles)

	preview := s.manager.NextPreview()
	s.Require().NotNil(preview)
	s.Equal("phrase-2", preview.PhraseID)
	s.Equal("from your rival", preview.Summary)
}

func (s *ManagerSuite) TestRefreshConsumesTargetedPhrases() {
	s.fetcher.queueResponse(
		s.targeted("phrase-t", "stone bridge"),
		s.phrase("phrase-g", "quiet harbor"),
	)

	s.Require().NoError(s.manager.Refresh(context.Background()))

	// Only the targeted phrase is claimed on the server
	s.Equal([]string{"phrase-t"}, s.fetcher.consumed)
	s.True(s.cache.Contains("phrase-t"))
	s.True(s.cache.Contains("phrase-g"))
}

func (s *ManagerSuite) TestRefreshRetiresPhraseClaimedElsewhere() {
	s.fetcher.failConsume("phrase-t", api.ErrConflict)
	s.fetcher.queueResponse(s.targeted("phrase-t", "stone bridge"))

	s.Require().NoError(s.manager.Refresh(context.Background()))

	// The lost phrase stays cached but is never dealt
	s.True(s.cache.Contains("phrase-t"))
	s.Equal(0, s.cache.UnplayedCount())
}

func (s *ManagerSuite) TestRefreshDoesNotReconsumeKnownPhrases() {
	s.fetcher.queueResponse(s.targeted("phrase-t", "stone bridge"))
	s.Require().NoError(s.manager.Refresh(context.Background()))

	s.fetcher.queueResponse(s.targeted("phrase-t", "stone bridge"))
	s.Require().NoError(s.manager.Refresh(context.Background()))

	s.Equal([]string{"phrase-t"}, s.fetcher.consumed)
}

func (s *ManagerSuite) TestClaimRetriedAfterTransientFailure() {
	s.fetcher.failConsume("phrase-t", api.ErrConnectionFailed)
	s.fetcher.queueResponse(s.targeted("phrase-t", "stone bridge"))

	// The failed claim does not fail the refresh; the phrase is kept
	// locally and the claim stays owed to the server
	s.Require().NoError(s.manager.Refresh(context.Background()))
	s.Empty(s.fetcher.consumed)
	s.True(s.cache.Contains("phrase-t"))
	s.Equal(1, s.cache.UnplayedCount())

	// The next sync settles the claim, exactly once
	s.Require().NoError(s.manager.Sync(context.Background()))
	s.Equal([]string{"phrase-t"}, s.fetcher.consumed)

	s.Require().NoError(s.manager.Sync(context.Background()))
	s.Equal([]string{"phrase-t"}, s.fetcher.consumed)
}

func (s *ManagerSuite) TestStaleRefreshResponseIsDiscarded() {
	release := make(chan struct{})
	s.fetcher.mu.Lock()
	s.fetcher.fetchGate = release
	s.fetcher.responses = [][]*models.Phrase{
		{s.phrase("phrase-stale", "quiet harbor")},
		{s.phrase("phrase-fresh", "stone bridge")},
	}
	s.fetcher.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.manager.Refresh(context.Background())
	}()

	// Wait for the first refresh to be in flight, then run a second one
	s.Require().Eventually(func() bool {
		s.fetcher.mu.Lock()
		defer s.fetcher.mu.Unlock()
		return s.fetcher.fetchCalls == 1
	}, time.Second, 5*time.Millisecond)

	s.Require().NoError(s.manager.Refresh(context.Background()))
	close(release)
	s.Require().NoError(<-done)

	s.True(s.cache.Contains("phrase-fresh"))
	s.False(s.cache.Contains("phrase-stale"))
}

func (s *ManagerSuite) TestReconnectTriggersSync() {
	s.seedCache(s.phrase("phrase-1", "quiet harbor"))
	_, err := s.manager.StartNext()
	s.Require().NoError(err)
	_, err = s.manager.Complete(&CompleteInput{Score: 70})
	s.Require().NoError(err)

	for i := 0; i < reachability.DefaultFailureThreshold; i++ {
		s.gate.ReportFailure()
	}
	s.Require().Equal(reachability.StateOffline, s.gate.State())

	s.gate.ReportSuccess()

	s.Require().Eventually(func() bool {
		return s.queue.Len() == 0
	}, time.Second, 5*time.Millisecond)
	s.Equal([]string{"phrase-1"}, s.fetcher.submittedIDs())
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}
