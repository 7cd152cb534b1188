package push

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrasebox/phrasebox/internal/common/clock"
	"github.com/phrasebox/phrasebox/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	defaultCoalesceInterval = 2 * time.Second
	defaultSendBuffer       = 16
	writeWait               = 5 * time.Second
)

// Config holds configuration for the push hub
type Config struct {
	// Clock provides event timestamps and the coalesce window origin.
	// It must track wall time: the trailing list broadcast is scheduled
	// on a real timer, which a synthetic clock would disagree with.
	Clock clock.Clock

	// CoalesceInterval is the minimum time between player-list broadcasts
	CoalesceInterval time.Duration

	// SendBuffer is the per-connection outbound queue length; events
	// beyond it are dropped
	SendBuffer int
}

// connection is one player's websocket with its outbound queue.
// A single writer goroutine owns the socket.
type connection struct {
	playerID string
	ws       *websocket.Conn
	send     chan []byte
	closed   chan struct{}
}

// Hub maintains the logical per-player channels for connected players
type Hub struct {
	clock            clock.Clock
	coalesceInterval time.Duration
	sendBuffer       int

	mu    sync.RWMutex
	conns map[string]*connection

	// player-list coalescing state
	listMu        sync.Mutex
	lastBroadcast time.Time
	pendingList   []byte
	pendingTimer  *time.Timer
}

// NewHub creates a new push hub
func NewHub(cfg *Config) (*Hub, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}

	coalesce := cfg.CoalesceInterval
	if coalesce <= 0 {
		coalesce = defaultCoalesceInterval
	}

	buffer := cfg.SendBuffer
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}

	return &Hub{
		clock:            cfg.Clock,
		coalesceInterval: coalesce,
		sendBuffer:       buffer,
		conns:            make(map[string]*connection),
	}, nil
}

// Register attaches a player's websocket to the hub and starts its pumps.
// A previous connection for the same player is replaced.
func (h *Hub) Register(playerID string, ws *websocket.Conn) {
	conn := &connection{
		playerID: playerID,
		ws:       ws,
		send:     make(chan []byte, h.sendBuffer),
		closed:   make(chan struct{}),
	}

	h.mu.Lock()
	if old, ok := h.conns[playerID]; ok {
		close(old.closed)
		old.ws.Close()
	}
	h.conns[playerID] = conn
	h.mu.Unlock()

	log.Debug().Str("player_id", playerID).Msg("push channel opened")

	go h.writePump(conn)
	go h.readPump(conn)
}

// Unregister detaches a player's connection from the hub
func (h *Hub) Unregister(playerID string) {
	h.mu.Lock()
	conn, ok := h.conns[playerID]
	if ok {
		delete(h.conns, playerID)
	}
	h.mu.Unlock()

	if ok {
		close(conn.closed)
		conn.ws.Close()
		log.Debug().Str("player_id", playerID).Msg("push channel closed")
	}
}

// detach removes one specific connection. A connection replaced by a
// newer Register call is already closed and no longer in the map, so a
// late pump exit must not tear down its successor.
func (h *Hub) detach(conn *connection) {
	h.mu.Lock()
	current, ok := h.conns[conn.playerID]
	if ok && current == conn {
		delete(h.conns, conn.playerID)
	} else {
		ok = false
	}
	h.mu.Unlock()

	if ok {
		close(conn.closed)
		conn.ws.Close()
		log.Debug().Str("player_id", conn.playerID).Msg("push channel closed")
	}
}

// ConnectedCount returns the number of attached players
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// PublishNewPhrase notifies a recipient that a phrase is waiting for them.
// If the recipient is not connected, or their queue is full, the event is
// dropped; pull reconciliation is the correctness backstop.
func (h *Hub) PublishNewPhrase(recipientID, phraseID, summary string) {
	h.mu.RLock()
	conn, ok := h.conns[recipientID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	payload, err := json.Marshal(&NewPhraseEvent{
		Type:     EventTypeNewPhrase,
		PhraseID: phraseID,
		Summary:  summary,
	})
	if err != nil {
		log.Error().Err(err).Str("phrase_id", phraseID).Msg("failed to marshal new-phrase event")
		return
	}

	select {
	case conn.send <- payload:
	default:
		log.Warn().Str("player_id", recipientID).Msg("push queue full, dropping new-phrase event")
	}
}

// BroadcastPlayerList notifies all connected players that the roster
// changed. Calls inside the coalesce window replace the pending payload
// instead of producing another broadcast.
func (h *Hub) BroadcastPlayerList(players []*models.Player) {
	summaries := make([]PlayerSummary, 0, len(players))
	for _, p := range players {
		summaries = append(summaries, PlayerSummary{
			ID:       p.ID,
			Name:     p.Name,
			IsActive: p.IsActive,
		})
	}

	now := h.clock.Now()
	payload, err := json.Marshal(&PlayerListEvent{
		Type:      EventTypePlayerList,
		Players:   summaries,
		Timestamp: now,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal player-list event")
		return
	}

	h.listMu.Lock()
	defer h.listMu.Unlock()

	elapsed := now.Sub(h.lastBroadcast)
	if elapsed >= h.coalesceInterval {
		h.lastBroadcast = now
		h.fanOut(payload)
		return
	}

	// Within the window: keep only the latest payload and make sure a
	// trailing broadcast is scheduled
	h.pendingList = payload
	if h.pendingTimer == nil {
		h.pendingTimer = time.AfterFunc(h.coalesceInterval-elapsed, h.flushPendingList)
	}
}

func (h *Hub) flushPendingList() {
	h.listMu.Lock()
	payload := h.pendingList
	h.pendingList = nil
	h.pendingTimer = nil
	h.lastBroadcast = h.clock.Now()
	h.listMu.Unlock()

	if payload != nil {
		h.fanOut(payload)
	}
}

// fanOut sends a payload to every connected player without blocking on
// any of them
func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		select {
		case conn.send <- payload:
		default:
			log.Warn().Str("player_id", conn.playerID).Msg("push queue full, dropping player-list event")
		}
	}
}

// writePump is the single writer for one connection
func (h *Hub) writePump(conn *connection) {
	for {
		select {
		case payload := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.detach(conn)
				return
			}
		case <-conn.closed:
			return
		}
	}
}

// readPump drains the socket so close frames are processed; the push
// channel carries no client-to-server messages
func (h *Hub) readPump(conn *connection) {
	for {
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			h.detach(conn)
			return
		}
	}
}

// Close detaches every connection
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*connection)
	h.mu.Unlock()

	for _, conn := range conns {
		close(conn.closed)
		conn.ws.Close()
	}
}
