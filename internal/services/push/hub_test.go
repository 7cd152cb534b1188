package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrasebox/phrasebox/internal/common/clock"
	"github.com/phrasebox/phrasebox/internal/models"
	"github.com/stretchr/testify/suite"
)

type HubTestSuite struct {
	suite.Suite
	hub    *Hub
	server *httptest.Server
}

func (s *HubTestSuite) SetupTest() {
	hub, err := NewHub(&Config{
		Clock:            &clock.DefaultClock{},
		CoalesceInterval: 100 * time.Millisecond,
	})
	s.Require().NoError(err)
	s.hub = hub

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.hub.Register(r.URL.Query().Get("playerId"), ws)
	}))
}

func (s *HubTestSuite) TearDownTest() {
	s.hub.Close()
	s.server.Close()
}

func TestHubTestSuite(t *testing.T) {
	suite.Run(t, new(HubTestSuite))
}

// dial opens a client connection and waits for the hub to register it
func (s *HubTestSuite) dial(playerID string, expectConnected int) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/?playerId=" + playerID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		return s.hub.ConnectedCount() == expectConnected
	}, time.Second, 10*time.Millisecond)

	return ws
}

func (s *HubTestSuite) readEvent(ws *websocket.Conn) map[string]any {
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, payload, err := ws.ReadMessage()
	s.Require().NoError(err)

	var event map[string]any
	s.Require().NoError(json.Unmarshal(payload, &event))
	return event
}

func (s *HubTestSuite) TestPublishNewPhraseReachesRecipient() {
	ws := s.dial("test-recipient-id", 1)
	defer ws.Close()

	s.hub.PublishNewPhrase("test-recipient-id", "test-phrase-id", "A new phrase from Alice")

	event := s.readEvent(ws)
	s.Equal(EventTypeNewPhrase, event["type"])
	s.Equal("test-phrase-id", event["phraseId"])
	s.Equal("A new phrase from Alice", event["summary"])
}

func (s *HubTestSuite) TestPublishToDisconnectedPlayerIsDropped() {
	// No connection for this player; the publish must be a silent no-op
	s.hub.PublishNewPhrase("ghost-player-id", "test-phrase-id", "nobody home")
	s.Equal(0, s.hub.ConnectedCount())
}

func (s *HubTestSuite) TestPublishDoesNotCrossPlayers() {
	alice := s.dial("alice", 1)
	defer alice.Close()
	bob := s.dial("bob", 2)
	defer bob.Close()

	s.hub.PublishNewPhrase("alice", "test-phrase-id", "for alice only")

	event := s.readEvent(alice)
	s.Equal("test-phrase-id", event["phraseId"])

	// Bob's channel stays silent
	s.Require().NoError(bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	_, _, err := bob.ReadMessage()
	s.Require().Error(err)
}

func (s *HubTestSuite) TestBroadcastPlayerListReachesAllPlayers() {
	alice := s.dial("alice", 1)
	defer alice.Close()
	bob := s.dial("bob", 2)
	defer bob.Close()

	s.hub.BroadcastPlayerList([]*models.Player{
		{ID: "alice", Name: "Alice", IsActive: true},
		{ID: "bob", Name: "Bob", IsActive: true},
	})

	for _, ws := range []*websocket.Conn{alice, bob} {
		event := s.readEvent(ws)
		s.Equal(EventTypePlayerList, event["type"])
		players := event["players"].([]any)
		s.Len(players, 2)
	}
}

func (s *HubTestSuite) TestPlayerListBroadcastsAreCoalesced() {
	ws := s.dial("alice", 1)
	defer ws.Close()

	// First broadcast goes out immediately; the two bursts that follow
	// collapse into a single trailing broadcast carrying the latest roster
	s.hub.BroadcastPlayerList([]*models.Player{{ID: "alice", Name: "Alice"}})
	s.hub.BroadcastPlayerList([]*models.Player{{ID: "alice"}, {ID: "bob"}})
	s.hub.BroadcastPlayerList([]*models.Player{{ID: "alice"}, {ID: "bob"}, {ID: "carol"}})

	first := s.readEvent(ws)
	s.Len(first["players"].([]any), 1)

	second := s.readEvent(ws)
	s.Len(second["players"].([]any), 3)

	// Nothing else arrives
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err := ws.ReadMessage()
	s.Require().Error(err)
}

func (s *HubTestSuite) TestReconnectReplacesOldChannel() {
	old := s.dial("alice", 1)

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/?playerId=alice"
	replacement, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer replacement.Close()

	// The old socket gets closed by the hub
	s.Require().NoError(old.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, readErr := old.ReadMessage()
	s.Require().Error(readErr)

	s.Equal(1, s.hub.ConnectedCount())

	s.hub.PublishNewPhrase("alice", "test-phrase-id", "after reconnect")
	event := s.readEvent(replacement)
	s.Equal("test-phrase-id", event["phraseId"])
}
