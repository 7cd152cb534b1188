package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/phrasebox/phrasebox/internal/client/reachability"
	"github.com/phrasebox/phrasebox/internal/models"
)

const defaultRequestTimeout = 10 * time.Second

var (
	// ErrConnectionFailed means the request never produced an HTTP
	// response (timeout, DNS, refused connection)
	ErrConnectionFailed = errors.New("connection to server failed")

	// ErrServerOffline means the server answered with a 5xx
	ErrServerOffline = errors.New("server unavailable")

	// ErrInvalidProgress means the server permanently rejected a
	// progress submission; it must not be retried
	ErrInvalidProgress = errors.New("progress rejected by server")

	// ErrForbidden means the server refused the operation for this player
	ErrForbidden = errors.New("operation forbidden")

	// ErrConflict means another request already claimed the resource
	ErrConflict = errors.New("resource already claimed")
)

// Config holds configuration for the API client
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080
	BaseURL string

	// HTTPClient defaults to one with a 30 second overall timeout
	HTTPClient *http.Client

	// RequestTimeout bounds each individual request; defaults to 10s
	RequestTimeout time.Duration

	// Gate receives the outcome of every request. Any HTTP response,
	// including a 4xx, counts as the server being reachable.
	Gate *reachability.Gate

	Logger zerolog.Logger
}

// Client talks to the phrase server over HTTP
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	gate           *reachability.Gate
	log            zerolog.Logger
}

// New creates an API client
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	if cfg.Gate == nil {
		return nil, errors.New("reachability gate cannot be nil")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		gate:           cfg.Gate,
		log:            cfg.Logger,
	}, nil
}

// phraseItem mirrors the server's wire representation of a phrase
type phraseItem struct {
	ID              string `json:"id"`
	Content         string `json:"content"`
	Clue            string `json:"clue"`
	Language        string `json:"language"`
	DifficultyScore int    `json:"difficultyScore"`
	PhraseType      string `json:"phraseType"`
}

type listPhrasesResponse struct {
	Phrases []phraseItem `json:"phrases"`
	Count   int          `json:"count"`
}

type consumePhraseRequest struct {
	PlayerID string `json:"playerId"`
}

type recordProgressRequest struct {
	PhraseID    string    `json:"phraseId"`
	PlayerID    string    `json:"playerId"`
	Score       int       `json:"score"`
	HintsUsed   int       `json:"hintsUsed"`
	CompletedAt time.Time `json:"completedAt"`
}

// FetchCandidates retrieves the phrases currently offered to a player.
// A zero difficulty bound is omitted from the request.
func (c *Client) FetchCandidates(ctx context.Context, playerID string, minDifficulty, maxDifficulty int) ([]*models.Phrase, error) {
	if playerID == "" {
		return nil, errors.New("player ID cannot be empty")
	}

	query := url.Values{"playerId": {playerID}}
	if minDifficulty > 0 {
		query.Set("minDifficulty", strconv.Itoa(minDifficulty))
	}
	if maxDifficulty > 0 {
		query.Set("maxDifficulty", strconv.Itoa(maxDifficulty))
	}

	resp, err := c.do(ctx, http.MethodGet, "/phrases?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var body listPhrasesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode phrase list: %w", err)
	}

	phrases := make([]*models.Phrase, 0, len(body.Phrases))
	for _, item := range body.Phrases {
		p := &models.Phrase{
			ID:              item.ID,
			Content:         item.Content,
			Clue:            item.Clue,
			Language:        item.Language,
			DifficultyScore: item.DifficultyScore,
		}
		if item.PhraseType == string(models.PhraseTypeTargeted) {
			p.RecipientID = playerID
		}
		phrases = append(phrases, p)
	}

	return phrases, nil
}

// ConsumePhrase claims a targeted phrase for a player. ErrConflict means
// another device already claimed it.
func (c *Client) ConsumePhrase(ctx context.Context, phraseID, playerID string) error {
	if phraseID == "" || playerID == "" {
		return errors.New("phrase ID and player ID cannot be empty")
	}

	resp, err := c.do(ctx, http.MethodPost,
		"/phrases/"+url.PathEscape(phraseID)+"/consume",
		consumePhraseRequest{PlayerID: playerID})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.checkStatus(resp, http.StatusNoContent)
}

// SubmitProgress reports a completed phrase. ErrInvalidProgress means the
// server rejected the record permanently.
func (c *Client) SubmitProgress(ctx context.Context, record *models.ProgressRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}

	resp, err := c.do(ctx, http.MethodPost, "/progress", recordProgressRequest{
		PhraseID:    record.PhraseID,
		PlayerID:    record.PlayerID,
		Score:       record.Score,
		HintsUsed:   record.HintsUsed,
		CompletedAt: record.CompletedAt,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		return fmt.Errorf("%w: status %d", ErrInvalidProgress, resp.StatusCode)
	}

	return c.checkStatus(resp, http.StatusOK)
}

// do issues one request, reporting the outcome to the reachability gate
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.gate.ReportFailure()
		c.log.Debug().Err(err).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	// Any HTTP response means the server is up, 4xx included
	if resp.StatusCode >= http.StatusInternalServerError {
		c.gate.ReportFailure()
	} else {
		c.gate.ReportSuccess()
	}

	return resp, nil
}

// checkStatus drains the error body and maps non-expected statuses to
// sentinel errors
func (c *Client) checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrServerOffline, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, body.Message)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, body.Message)
	default:
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, body.Message)
	}
}
