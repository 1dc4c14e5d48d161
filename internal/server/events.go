package server

import (
	"github.com/lox/tablestakes/internal/deck"
	"github.com/lox/tablestakes/internal/game"
	"github.com/lox/tablestakes/internal/results"
)

// EventType identifies an outbound WebSocket event
type EventType string

const (
	EventLobbyUpdate        EventType = "lobby_update"
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerConnected    EventType = "player_connected"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventGameJoined         EventType = "game_joined"
	EventGameStarted        EventType = "game_started"
	EventHandStarted        EventType = "hand_started"
	EventBlindsPosted       EventType = "blinds_posted"
	EventCommunityCards     EventType = "community_cards"
	EventTurn               EventType = "turn"
	EventPlayerAction       EventType = "player_action"
	EventHandResult         EventType = "hand_result"
	EventPlayerEliminated   EventType = "player_eliminated"
	EventGameEnded          EventType = "game_ended"
	EventError              EventType = "error"
)

// Event is the tagged envelope every outbound message is wrapped in
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// NewEvent wraps a payload in its envelope
func NewEvent(eventType EventType, payload any) Event {
	return Event{Type: eventType, Payload: payload}
}

// BroadcastFunc fans an event out to a room. An empty viewer reaches every
// connected player; a non-empty viewer targets that player alone. The game
// loop only ever talks to connections through this seam.
type BroadcastFunc func(roomID string, ev Event, viewer string)

type LobbyUpdatePayload struct {
	Games []game.RoomSnapshot `json:"games"`
}

type PlayerJoinedPayload struct {
	Nickname string            `json:"nickname"`
	Game     game.RoomSnapshot `json:"game"`
}

type PlayerConnectedPayload struct {
	Nickname string `json:"nickname"`
}

type GameJoinedPayload struct {
	Game game.RoomSnapshot `json:"game"`
}

type GameStartedPayload struct {
	Game game.RoomSnapshot `json:"game"`
}

// HandStartedPayload is always player-specific: it carries the recipient's
// own hole cards and nobody else's.
type HandStartedPayload struct {
	HandNumber     int         `json:"hand_number"`
	DealerPosition int         `json:"dealer_position"`
	HoleCards      []deck.Card `json:"hole_cards"`
	YourPosition   int         `json:"your_position"`
}

type BlindsPostedPayload struct {
	SmallBlind game.BlindPost `json:"small_blind"`
	BigBlind   game.BlindPost `json:"big_blind"`
}

type CommunityCardsPayload struct {
	Cards             []deck.Card       `json:"cards"`
	AllCommunityCards []deck.Card       `json:"all_community_cards"`
	BettingRound      game.BettingRound `json:"betting_round"`
}

type TurnPayload struct {
	CurrentPlayer string            `json:"current_player"`
	ValidActions  game.ValidActions `json:"valid_actions"`
	TimeRemaining int               `json:"time_remaining"`
	CurrentBet    int               `json:"current_bet"`
	Pot           int               `json:"pot"`
}

type PlayerActionPayload struct {
	Nickname    string `json:"nickname"`
	Action      string `json:"action"`
	Amount      *int   `json:"amount"`
	Pot         int    `json:"pot"`
	PlayerChips int    `json:"player_chips"`
}

// HandOutcome is one player's line in a hand_result. Hole cards are only
// present when the hand went to showdown.
type HandOutcome struct {
	Nickname  string      `json:"nickname"`
	Won       int         `json:"won"`
	HandShown bool        `json:"hand_shown"`
	HoleCards []deck.Card `json:"hole_cards,omitempty"`
	HandRank  string      `json:"hand_rank,omitempty"`
}

type HandResultPayload struct {
	Results        []HandOutcome `json:"results"`
	CommunityCards []deck.Card   `json:"community_cards"`
}

type PlayerEliminatedPayload struct {
	Nickname string `json:"nickname"`
	Position int    `json:"position"`
}

type GameEndedPayload struct {
	Placements []results.PlayerResult `json:"placements"`
	TotalHands int                    `json:"total_hands"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
