package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireEvent is the client-side view of an outbound event
type wireEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, httpURL, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + path
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

// readUntil reads events until one of the wanted type arrives, skipping
// everything else
func readUntil(t *testing.T, conn *websocket.Conn, want EventType) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var ev wireEvent
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %s", want)
		if ev.Type == want {
			return ev
		}
	}
}

func TestLobbySocketReceivesUpdates(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := dialWS(t, ts.URL, "/ws/lobby")
	require.NoError(t, err)
	defer conn.Close()

	// Initial snapshot, then an update when a game is created.
	first := readUntil(t, conn, EventLobbyUpdate)
	var initial LobbyUpdatePayload
	require.NoError(t, json.Unmarshal(first.Payload, &initial))
	assert.Empty(t, initial.Games)

	doRequest(t, s, http.MethodPost, "/api/games", `{"nickname": "alice"}`)

	update := readUntil(t, conn, EventLobbyUpdate)
	var payload LobbyUpdatePayload
	require.NoError(t, json.Unmarshal(update.Payload, &payload))
	require.Len(t, payload.Games, 1)
	assert.Equal(t, "alice", payload.Games[0].Creator)
}

func TestGameSocketRejectsUnknownRoom(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := dialWS(t, ts.URL, "/ws/game/nope?nickname=alice")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, closePolicyViolation, closeErr.Code)
	assert.Equal(t, "Game not found", closeErr.Text)
}

func TestGameSocketRejectsNonPlayer(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	created := decodeGame(t, doRequest(t, s, http.MethodPost, "/api/games", `{"nickname": "alice"}`))

	conn, _, err := dialWS(t, ts.URL, "/ws/game/"+created.ID+"?nickname=mallory")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, closePolicyViolation, closeErr.Code)
	assert.Equal(t, "You are not a player in this game", closeErr.Text)
}

func TestGameSocketPlaysAHand(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	created := decodeGame(t, doRequest(t, s, http.MethodPost, "/api/games", `{"nickname": "alice"}`))
	doRequest(t, s, http.MethodPost, "/api/games/"+created.ID+"/join", `{"nickname": "bob"}`)

	alice, _, err := dialWS(t, ts.URL, "/ws/game/"+created.ID+"?nickname=alice")
	require.NoError(t, err)
	defer alice.Close()
	bob, _, err := dialWS(t, ts.URL, "/ws/game/"+created.ID+"?nickname=bob")
	require.NoError(t, err)
	defer bob.Close()

	// Each player receives the room snapshot on connect.
	joined := readUntil(t, alice, EventGameJoined)
	var joinedPayload GameJoinedPayload
	require.NoError(t, json.Unmarshal(joined.Payload, &joinedPayload))
	assert.Equal(t, created.ID, joinedPayload.Game.ID)

	// Only the creator may start.
	require.NoError(t, bob.WriteJSON(InboundMessage{Type: "start_game"}))
	errEv := readUntil(t, bob, EventError)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(errEv.Payload, &errPayload))
	assert.Contains(t, errPayload.Message, "creator")

	require.NoError(t, alice.WriteJSON(InboundMessage{Type: "start_game"}))

	readUntil(t, alice, EventGameStarted)
	readUntil(t, bob, EventGameStarted)

	// Hole cards arrive privately: two cards each.
	aliceHand := readUntil(t, alice, EventHandStarted)
	var aliceStarted HandStartedPayload
	require.NoError(t, json.Unmarshal(aliceHand.Payload, &aliceStarted))
	assert.Len(t, aliceStarted.HoleCards, 2)
	assert.Equal(t, 1, aliceStarted.HandNumber)

	turn := readUntil(t, bob, EventTurn)
	var turnPayload TurnPayload
	require.NoError(t, json.Unmarshal(turn.Payload, &turnPayload))
	assert.Equal(t, "alice", turnPayload.CurrentPlayer)
	assert.Equal(t, 30, turnPayload.Pot)

	// The dealer folds their small blind; bob wins the hand.
	require.NoError(t, alice.WriteJSON(InboundMessage{Type: "action", Action: "fold"}))

	action := readUntil(t, bob, EventPlayerAction)
	var actionPayload PlayerActionPayload
	require.NoError(t, json.Unmarshal(action.Payload, &actionPayload))
	assert.Equal(t, "alice", actionPayload.Nickname)
	assert.Equal(t, "fold", actionPayload.Action)

	result := readUntil(t, bob, EventHandResult)
	var resultPayload HandResultPayload
	require.NoError(t, json.Unmarshal(result.Payload, &resultPayload))
	require.Len(t, resultPayload.Results, 1)
	assert.Equal(t, "bob", resultPayload.Results[0].Nickname)
	assert.Equal(t, 30, resultPayload.Results[0].Won)
	assert.False(t, resultPayload.Results[0].HandShown)
}

func TestGameSocketWrongTurnGetsPrivateError(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	created := decodeGame(t, doRequest(t, s, http.MethodPost, "/api/games", `{"nickname": "alice"}`))
	doRequest(t, s, http.MethodPost, "/api/games/"+created.ID+"/join", `{"nickname": "bob"}`)

	alice, _, err := dialWS(t, ts.URL, "/ws/game/"+created.ID+"?nickname=alice")
	require.NoError(t, err)
	defer alice.Close()
	bob, _, err := dialWS(t, ts.URL, "/ws/game/"+created.ID+"?nickname=bob")
	require.NoError(t, err)
	defer bob.Close()

	require.NoError(t, alice.WriteJSON(InboundMessage{Type: "start_game"}))
	readUntil(t, bob, EventTurn)

	// It is alice's turn; bob acting out of turn gets a private error.
	require.NoError(t, bob.WriteJSON(InboundMessage{Type: "action", Action: "fold"}))
	errEv := readUntil(t, bob, EventError)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(errEv.Payload, &errPayload))
	assert.Contains(t, errPayload.Message, "not your turn")
}
