package server

import (
	"sync"

	"github.com/charmbracelet/log"
)

// ConnectionManager tracks lobby subscribers and the players connected to
// each room. All sends are best-effort: a failed send marks the connection
// dead and removes it.
type ConnectionManager struct {
	mu        sync.Mutex
	lobby     []Sender
	roomConns map[string]map[string]Sender // roomID -> nickname -> conn
	logger    *log.Logger
}

// NewConnectionManager creates an empty connection manager
func NewConnectionManager(logger *log.Logger) *ConnectionManager {
	return &ConnectionManager{
		roomConns: make(map[string]map[string]Sender),
		logger:    logger.WithPrefix("broker"),
	}
}

// ConnectLobby adds a lobby subscriber
func (cm *ConnectionManager) ConnectLobby(conn Sender) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lobby = append(cm.lobby, conn)
}

// DisconnectLobby removes a lobby subscriber
func (cm *ConnectionManager) DisconnectLobby(conn Sender) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for i, c := range cm.lobby {
		if c == conn {
			cm.lobby = append(cm.lobby[:i], cm.lobby[i+1:]...)
			return
		}
	}
}

// ConnectRoom installs a player's connection, replacing any prior one
// under the same nickname (reconnects take over)
func (cm *ConnectionManager) ConnectRoom(roomID, nickname string, conn Sender) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conns, ok := cm.roomConns[roomID]
	if !ok {
		conns = make(map[string]Sender)
		cm.roomConns[roomID] = conns
	}
	if prior, ok := conns[nickname]; ok && prior != conn {
		_ = prior.Close()
	}
	conns[nickname] = conn
}

// DisconnectRoom removes a player's connection if it is still the one
// installed
func (cm *ConnectionManager) DisconnectRoom(roomID, nickname string, conn Sender) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conns, ok := cm.roomConns[roomID]
	if !ok {
		return
	}
	if current, ok := conns[nickname]; ok && (conn == nil || current == conn) {
		delete(conns, nickname)
	}
	if len(conns) == 0 {
		delete(cm.roomConns, roomID)
	}
}

// BroadcastLobby sends an event to every lobby subscriber
func (cm *ConnectionManager) BroadcastLobby(ev Event) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	alive := cm.lobby[:0]
	for _, conn := range cm.lobby {
		if err := conn.Send(ev); err != nil {
			_ = conn.Close()
			continue
		}
		alive = append(alive, conn)
	}
	cm.lobby = alive
}

// BroadcastRoom sends an event to every player connected to a room,
// optionally excluding one nickname
func (cm *ConnectionManager) BroadcastRoom(roomID string, ev Event, excludeNickname string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conns := cm.roomConns[roomID]
	for nickname, conn := range conns {
		if nickname == excludeNickname {
			continue
		}
		if err := conn.Send(ev); err != nil {
			cm.logger.Debug("Dropping dead room connection", "room", roomID, "player", nickname)
			_ = conn.Close()
			delete(conns, nickname)
		}
	}
	if len(conns) == 0 {
		delete(cm.roomConns, roomID)
	}
}

// SendToPlayer sends an event to one player in a room, dropping the
// connection on failure
func (cm *ConnectionManager) SendToPlayer(roomID, nickname string, ev Event) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conns := cm.roomConns[roomID]
	conn, ok := conns[nickname]
	if !ok {
		return
	}
	if err := conn.Send(ev); err != nil {
		cm.logger.Debug("Dropping dead player connection", "room", roomID, "player", nickname)
		_ = conn.Close()
		delete(conns, nickname)
	}
}

// RoomBroadcaster adapts the manager to the game loop's broadcast seam
func (cm *ConnectionManager) RoomBroadcaster() BroadcastFunc {
	return func(roomID string, ev Event, viewer string) {
		if viewer != "" {
			cm.SendToPlayer(roomID, viewer, ev)
			return
		}
		cm.BroadcastRoom(roomID, ev, "")
	}
}
