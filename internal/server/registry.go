package server

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/tablestakes/internal/game"
)

// ErrRoomNotFound is returned for lookups of unknown room IDs
var ErrRoomNotFound = errors.New("game not found")

// Registry holds every room in memory. Room creation is serialized by its
// lock; rooms are never removed. Per-room state is guarded by each loop's
// own mutex.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*GameLoop

	cfg       game.Config
	broadcast BroadcastFunc
	store     ResultStore
	clock     quartz.Clock
	rng       *rand.Rand
	logger    *log.Logger
}

// NewRegistry creates an empty room registry. The rng seeds each room's
// deck shuffles and is guarded by the registry lock.
func NewRegistry(cfg game.Config, broadcast BroadcastFunc, store ResultStore, clock quartz.Clock, rng *rand.Rand, logger *log.Logger) *Registry {
	return &Registry{
		rooms:     make(map[string]*GameLoop),
		cfg:       cfg,
		broadcast: broadcast,
		store:     store,
		clock:     clock,
		rng:       rng,
		logger:    logger.WithPrefix("registry"),
	}
}

// CreateRoom creates a room with the creator seated as its first player
func (r *Registry) CreateRoom(creator string) *game.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := game.NewRoom(creator, r.cfg.StartingChips)
	loop := NewGameLoop(room, r.cfg, r.broadcast, r.store, r.clock,
		rand.New(rand.NewSource(r.rng.Int63())), r.logger)
	r.rooms[room.ID] = loop

	r.logger.Info("Room created", "room", room.ID, "creator", creator)
	return room
}

// Loop returns the game loop for a room
func (r *Registry) Loop(roomID string) (*GameLoop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loop, ok := r.rooms[roomID]
	return loop, ok
}

// Snapshot renders a room for a viewer, or ErrRoomNotFound
func (r *Registry) Snapshot(roomID, viewer string) (game.RoomSnapshot, error) {
	loop, ok := r.Loop(roomID)
	if !ok {
		return game.RoomSnapshot{}, ErrRoomNotFound
	}
	var snap game.RoomSnapshot
	loop.WithRoom(func(room *game.Room) {
		snap = room.Snapshot(viewer)
	})
	return snap, nil
}

// HasPlayer reports whether a nickname is seated in a room
func (r *Registry) HasPlayer(roomID, nickname string) bool {
	loop, ok := r.Loop(roomID)
	if !ok {
		return false
	}
	seated := false
	loop.WithRoom(func(room *game.Room) {
		seated = room.HasPlayer(nickname)
	})
	return seated
}

// JoinRoom seats a player in a waiting room
func (r *Registry) JoinRoom(roomID, nickname string) (game.RoomSnapshot, error) {
	loop, ok := r.Loop(roomID)
	if !ok {
		return game.RoomSnapshot{}, ErrRoomNotFound
	}

	var (
		snap game.RoomSnapshot
		err  error
	)
	loop.WithRoom(func(room *game.Room) {
		switch {
		case room.Status != game.StatusWaiting:
			err = game.ErrRoomStarted
		case len(room.Players) >= r.cfg.MaxPlayers:
			err = fmt.Errorf("%w (max %d players)", game.ErrRoomFull, r.cfg.MaxPlayers)
		default:
			err = room.AddPlayer(nickname, r.cfg.StartingChips)
		}
		if err == nil {
			snap = room.Snapshot("")
		}
	})
	return snap, err
}

// StartGame starts a waiting room's hand loop
func (r *Registry) StartGame(roomID, nickname string) error {
	loop, ok := r.Loop(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return loop.Start(nickname)
}

// HandleAction routes a player action to its room's loop. Unknown rooms
// are dropped; action validity is the loop's business.
func (r *Registry) HandleAction(roomID, nickname, action string, amount int) {
	loop, ok := r.Loop(roomID)
	if !ok {
		return
	}
	loop.HandleAction(nickname, action, amount)
}

// ListWaiting returns snapshots of all rooms still waiting for players
func (r *Registry) ListWaiting() []game.RoomSnapshot {
	r.mu.RLock()
	loops := make([]*GameLoop, 0, len(r.rooms))
	for _, loop := range r.rooms {
		loops = append(loops, loop)
	}
	r.mu.RUnlock()

	snaps := make([]game.RoomSnapshot, 0, len(loops))
	for _, loop := range loops {
		loop.WithRoom(func(room *game.Room) {
			if room.Status == game.StatusWaiting {
				snaps = append(snaps, room.Snapshot(""))
			}
		})
	}
	return snaps
}

// StopAll cancels timers on every loop, for shutdown
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, loop := range r.rooms {
		loop.Stop()
	}
}
