package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Player is a participant in a room. Nicknames are stored lower-cased and
// are unique within the room.
type Player struct {
	Nickname            string
	Chips               int
	Eliminated          bool
	EliminationPosition int // 1 = winner, 0 = still playing
}

// Room is a single tournament table. Hands reference players by nickname
// rather than by pointer, so the room owns all player state.
type Room struct {
	ID               string
	Creator          string
	Status           Status
	Players          []*Player
	CurrentHandNum   int
	DealerPosition   int
	EliminationOrder []string
	ActiveHand       *Hand
	CreatedAt        time.Time
}

// NewRoom creates a room with the creator seated as its first player
func NewRoom(creator string, startingChips int) *Room {
	room := &Room{
		ID:        uuid.New().String(),
		Creator:   creator,
		Status:    StatusWaiting,
		CreatedAt: time.Now().UTC(),
	}
	// Creator nickname is validated by the caller, so this cannot fail.
	_ = room.AddPlayer(creator, startingChips)
	return room
}

// AddPlayer seats a new player. Nickname uniqueness is the only structural
// invariant enforced here; capacity and status checks belong to the registry.
func (r *Room) AddPlayer(nickname string, chips int) error {
	nickname = strings.ToLower(strings.TrimSpace(nickname))
	if r.HasPlayer(nickname) {
		return ErrDuplicateNickname
	}
	r.Players = append(r.Players, &Player{Nickname: nickname, Chips: chips})
	return nil
}

// GetPlayer returns the player with the given nickname, or nil
func (r *Room) GetPlayer(nickname string) *Player {
	for _, p := range r.Players {
		if p.Nickname == nickname {
			return p
		}
	}
	return nil
}

// HasPlayer reports whether a nickname is seated in the room
func (r *Room) HasPlayer(nickname string) bool {
	return r.GetPlayer(nickname) != nil
}

// ActivePlayers returns the players who have not been eliminated, in seat
// order
func (r *Room) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

// PlayerPosition returns the seat index of a player, or -1
func (r *Room) PlayerPosition(nickname string) int {
	for i, p := range r.Players {
		if p.Nickname == nickname {
			return i
		}
	}
	return -1
}
