package server

import (
	"fmt"
	"net/http"
	"strings"
)

// closePolicyViolation is the close code sent when a game socket fails
// validation
const closePolicyViolation = 4000

// handleLobbyWS subscribes a connection to lobby updates
func (s *Server) handleLobbyWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	conn := NewConnection(wsConn, s.logger)
	s.broker.ConnectLobby(conn)

	// Seed the subscriber with the current game list.
	_ = conn.Send(NewEvent(EventLobbyUpdate, LobbyUpdatePayload{Games: s.registry.ListWaiting()}))

	// Lobby sockets are push-only; drain until the client goes away.
	conn.ReadEvents(func(msg InboundMessage) {})
	s.broker.DisconnectLobby(conn)
}

// handleGameWS attaches a player to their room's event stream and feeds
// their inbound messages to the game loop
func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimPrefix(r.URL.Path, "/ws/game/")
	nickname := normalizeNickname(r.URL.Query().Get("nickname"))

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	conn := NewConnection(wsConn, s.logger)

	var reason string
	switch {
	case roomID == "" || strings.Contains(roomID, "/"):
		reason = "Game not found"
	case nickname == "":
		reason = "Nickname is required"
	case !s.registry.HasPlayer(roomID, nickname):
		if _, err := s.registry.Snapshot(roomID, ""); err != nil {
			reason = "Game not found"
		} else {
			reason = "You are not a player in this game"
		}
	}
	if reason != "" {
		s.logger.Debug("Rejecting game socket", "room", roomID, "nickname", nickname, "reason", reason)
		_ = conn.CloseWithReason(closePolicyViolation, reason)
		return
	}

	s.broker.ConnectRoom(roomID, nickname, conn)

	snap, err := s.registry.Snapshot(roomID, nickname)
	if err == nil {
		_ = conn.Send(NewEvent(EventGameJoined, GameJoinedPayload{Game: snap}))
	}
	s.broker.BroadcastRoom(roomID, NewEvent(EventPlayerConnected, PlayerConnectedPayload{
		Nickname: nickname,
	}), nickname)

	s.logger.Info("Player connected", "room", roomID, "player", nickname)

	conn.ReadEvents(func(msg InboundMessage) {
		s.handleGameMessage(roomID, nickname, msg)
	})

	// A disconnect leaves the seat; any running turn timer keeps going and
	// will fold the absent player.
	s.broker.DisconnectRoom(roomID, nickname, conn)
	s.broker.BroadcastRoom(roomID, NewEvent(EventPlayerDisconnected, PlayerConnectedPayload{
		Nickname: nickname,
	}), nickname)
	s.logger.Info("Player disconnected", "room", roomID, "player", nickname)
}

// handleGameMessage dispatches one inbound game-socket message
func (s *Server) handleGameMessage(roomID, nickname string, msg InboundMessage) {
	switch msg.Type {
	case "start_game":
		if err := s.registry.StartGame(roomID, nickname); err != nil {
			s.broker.SendToPlayer(roomID, nickname, NewEvent(EventError, ErrorPayload{Message: err.Error()}))
			return
		}
		s.broadcastLobbyUpdate()

	case "action":
		s.registry.HandleAction(roomID, nickname, msg.Action, msg.Amount)

	default:
		s.broker.SendToPlayer(roomID, nickname, NewEvent(EventError, ErrorPayload{
			Message: fmt.Sprintf("Unknown message type: %s", msg.Type),
		}))
	}
}
