package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/phrasebox/phrasebox/internal/scoring"
	"github.com/phrasebox/phrasebox/internal/services/delivery"
	"github.com/phrasebox/phrasebox/internal/services/push"
	"github.com/rs/zerolog/log"
)

const handlerTimeout = 10 * time.Second

// Config holds the dependencies for the HTTP server
type Config struct {
	// DeliveryService handles every phrase and progress operation
	DeliveryService delivery.Service

	// Hub carries the push events to connected players
	Hub *push.Hub
}

// Server bundles the router, the delivery service and the push hub
type Server struct {
	r        *chi.Mux
	delivery delivery.Service
	hub      *push.Hub
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.DeliveryService == nil {
		return nil, errors.New("delivery service cannot be nil")
	}
	if cfg.Hub == nil {
		return nil, errors.New("push hub cannot be nil")
	}

	s := &Server{
		r:        chi.NewRouter(),
		delivery: cfg.DeliveryService,
		hub:      cfg.Hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(requestLogger)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// The websocket route must not carry the handler timeout; the
	// connection is long-lived
	s.r.Get("/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(handlerTimeout))
		r.Get("/phrases", s.handleListPhrases)
		r.Post("/phrases", s.handleCreatePhrase)
		r.Post("/phrases/analyze-difficulty", s.handleAnalyzeDifficulty)
		r.Post("/phrases/{phraseID}/consume", s.handleConsumePhrase)
		r.Post("/progress", s.handleRecordProgress)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route: "+r.URL.Path)
	})

	return s, nil
}

// Router exposes the handler for serving and for tests
func (s *Server) Router() http.Handler {
	return s.r
}

// Start blocks serving HTTP on the given address
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("starting http server")
	return http.ListenAndServe(addr, s.r)
}

// handleListPhrases serves GET /phrases
func (s *Server) handleListPhrases(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "playerId is required")
		return
	}

	minDifficulty, ok := queryInt(w, r, "minDifficulty")
	if !ok {
		return
	}
	maxDifficulty, ok := queryInt(w, r, "maxDifficulty")
	if !ok {
		return
	}

	out, err := s.delivery.FetchCandidates(r.Context(), &delivery.FetchCandidatesInput{
		PlayerID:      playerID,
		MinDifficulty: minDifficulty,
		MaxDifficulty: maxDifficulty,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]phraseItem, 0, len(out.Phrases))
	for _, p := range out.Phrases {
		items = append(items, toPhraseItem(p))
	}

	writeJSON(w, http.StatusOK, &listPhrasesResponse{
		Phrases: items,
		Count:   len(items),
	})
}

// handleCreatePhrase serves POST /phrases
func (s *Server) handleCreatePhrase(w http.ResponseWriter, r *http.Request) {
	var req createPhraseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Content == "" || req.Language == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "content and language are required")
		return
	}

	out, err := s.delivery.CreatePhrase(r.Context(), &delivery.CreatePhraseInput{
		Content:     req.Content,
		Clue:        req.Clue,
		Language:    req.Language,
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPhraseItem(out.Phrase))
}

// handleAnalyzeDifficulty serves POST /phrases/analyze-difficulty
func (s *Server) handleAnalyzeDifficulty(w http.ResponseWriter, r *http.Request) {
	var req analyzeDifficultyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "language is required")
		return
	}

	out, err := s.delivery.AnalyzeDifficulty(r.Context(), &delivery.AnalyzeDifficultyInput{
		Content:  req.Phrase,
		Language: req.Language,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &analyzeDifficultyResponse{
		Score: out.Score,
	})
}

// handleConsumePhrase serves POST /phrases/{phraseID}/consume
func (s *Server) handleConsumePhrase(w http.ResponseWriter, r *http.Request) {
	var req consumePhraseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "playerId is required")
		return
	}

	_, err := s.delivery.Consume(r.Context(), &delivery.ConsumeInput{
		PhraseID: chi.URLParam(r, "phraseID"),
		PlayerID: req.PlayerID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRecordProgress serves POST /progress
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req recordProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.PhraseID == "" || req.PlayerID == "" || req.CompletedAt.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid_input", "phraseId, playerId and completedAt are required")
		return
	}

	out, err := s.delivery.RecordProgress(r.Context(), &delivery.RecordProgressInput{
		PhraseID:    req.PhraseID,
		PlayerID:    req.PlayerID,
		Score:       req.Score,
		HintsUsed:   req.HintsUsed,
		CompletedAt: req.CompletedAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &recordProgressResponse{
		Acknowledged:    true,
		AlreadyRecorded: out.AlreadyRecorded,
	})
}

// handleWS serves GET /ws: upgrades the connection and attaches it to the
// push hub
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "playerId is required")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.hub.Register(playerID, ws)

	// A new connection changes who is reachable; refresh the roster for
	// everyone. Best-effort like every push.
	if out, err := s.delivery.ListPlayers(r.Context(), &delivery.ListPlayersInput{}); err == nil {
		s.hub.BroadcastPlayerList(out.Players)
	}
}

// queryInt parses an optional integer query parameter, writing a 400 on
// malformed input
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", name+" must be an integer")
		return 0, false
	}

	return value, true
}

// decodeJSON parses a request body, writing a 400 on malformed input
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, &errorResponse{
		Error:   code,
		Message: message,
	})
}

// writeServiceError maps service errors onto the HTTP error taxonomy
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, delivery.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, delivery.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, delivery.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, delivery.ErrPhraseNotFound), errors.Is(err, delivery.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, scoring.ErrUnsupportedLanguage):
		writeError(w, http.StatusUnprocessableEntity, "unsupported_language", err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// requestLogger logs one line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
