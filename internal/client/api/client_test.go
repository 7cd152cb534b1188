package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/phrasebox/phrasebox/internal/client/reachability"
	"github.com/phrasebox/phrasebox/internal/models"
)

type ClientSuite struct {
	suite.Suite
	gate *reachability.Gate
}

func (s *ClientSuite) SetupTest() {
	s.gate = reachability.New(nil)
}

func (s *ClientSuite) newClient(baseURL string) *Client {
	client, err := New(&Config{
		BaseURL: baseURL,
		Gate:    s.gate,
	})
	s.Require().NoError(err)
	return client
}

func (s *ClientSuite) TestFetchCandidates() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/phrases", r.URL.Path)
		s.Equal("player-1", r.URL.Query().Get("playerId"))
		s.Equal("10", r.URL.Query().Get("minDifficulty"))
		s.Equal("60", r.URL.Query().Get("maxDifficulty"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listPhrasesResponse{
			Phrases: []phraseItem{
				{ID: "phrase-1", Content: "quiet harbor", Language: "en", DifficultyScore: 34, PhraseType: "targeted"},
				{ID: "phrase-2", Content: "stone bridge", Language: "en", DifficultyScore: 22, PhraseType: "global"},
			},
			Count: 2,
		})
	}))
	defer srv.Close()

	phrases, err := s.newClient(srv.URL).FetchCandidates(context.Background(), "player-1", 10, 60)
	s.Require().NoError(err)
	s.Require().Len(phrases, 2)
	s.Equal("phrase-1", phrases[0].ID)
	s.Equal("player-1", phrases[0].RecipientID)
	s.Equal(models.PhraseTypeTargeted, phrases[0].Type())
	s.Equal(models.PhraseTypeGlobal, phrases[1].Type())
	s.Equal(reachability.StateOnline, s.gate.State())
}

func (s *ClientSuite) TestFetchCandidatesOmitsZeroBounds() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.False(r.URL.Query().Has("minDifficulty"))
		s.False(r.URL.Query().Has("maxDifficulty"))
		_ = json.NewEncoder(w).Encode(listPhrasesResponse{})
	}))
	defer srv.Close()

	_, err := s.newClient(srv.URL).FetchCandidates(context.Background(), "player-1", 0, 0)
	s.Require().NoError(err)
}

func (s *ClientSuite) TestConsumePhrase() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("/phrases/phrase-1/consume", r.URL.Path)

		var body consumePhraseRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("player-1", body.PlayerID)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := s.newClient(srv.URL).ConsumePhrase(context.Background(), "phrase-1", "player-1")
	s.Require().NoError(err)
}

func (s *ClientSuite) TestConsumePhraseConflict() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "conflict",
			"message": "phrase already consumed",
		})
	}))
	defer srv.Close()

	err := s.newClient(srv.URL).ConsumePhrase(context.Background(), "phrase-1", "player-1")
	s.Require().ErrorIs(err, ErrConflict)

	// A 409 is still a response from a live server
	s.Equal(reachability.StateOnline, s.gate.State())
}

func (s *ClientSuite) TestConsumePhraseForbidden() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := s.newClient(srv.URL).ConsumePhrase(context.Background(), "phrase-1", "player-2")
	s.Require().ErrorIs(err, ErrForbidden)
}

func (s *ClientSuite) TestSubmitProgress() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/progress", r.URL.Path)

		var body recordProgressRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("phrase-1", body.PhraseID)
		s.Equal("player-1", body.PlayerID)
		s.Equal(87, body.Score)

		_ = json.NewEncoder(w).Encode(map[string]bool{"acknowledged": true})
	}))
	defer srv.Close()

	err := s.newClient(srv.URL).SubmitProgress(context.Background(), &models.ProgressRecord{
		PhraseID:    "phrase-1",
		PlayerID:    "player-1",
		Score:       87,
		CompletedAt: time.Now(),
	})
	s.Require().NoError(err)
}

func (s *ClientSuite) TestSubmitProgressPermanentRejection() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "invalid_input",
			"message": "phraseId is required",
		})
	}))
	defer srv.Close()

	err := s.newClient(srv.URL).SubmitProgress(context.Background(), &models.ProgressRecord{
		PlayerID:    "player-1",
		CompletedAt: time.Now(),
	})
	s.Require().ErrorIs(err, ErrInvalidProgress)
}

func (s *ClientSuite) TestServerErrorReportsFailure() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := s.newClient(srv.URL)
	for i := 0; i < reachability.DefaultFailureThreshold; i++ {
		err := client.ConsumePhrase(context.Background(), "phrase-1", "player-1")
		s.Require().ErrorIs(err, ErrServerOffline)
	}

	s.Equal(reachability.StateOffline, s.gate.State())
}

func (s *ClientSuite) TestUnreachableServerReportsFailure() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := s.newClient(srv.URL)
	_, err := client.FetchCandidates(context.Background(), "player-1", 0, 0)
	s.Require().ErrorIs(err, ErrConnectionFailed)
}

func (s *ClientSuite) TestRequestTimeout() {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	client, err := New(&Config{
		BaseURL:        srv.URL,
		Gate:           s.gate,
		RequestTimeout: 50 * time.Millisecond,
	})
	s.Require().NoError(err)

	_, err = client.FetchCandidates(context.Background(), "player-1", 0, 0)
	s.Require().ErrorIs(err, ErrConnectionFailed)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}
