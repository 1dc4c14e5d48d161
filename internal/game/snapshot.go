package game

import (
	"time"

	"github.com/lox/tablestakes/internal/deck"
)

// PlayerSnapshot is the wire form of a seated player
type PlayerSnapshot struct {
	Nickname            string `json:"nickname"`
	Chips               int    `json:"chips"`
	IsEliminated        bool   `json:"is_eliminated"`
	EliminationPosition *int   `json:"elimination_position"`
}

// PlayerHandSnapshot is the wire form of a player's in-hand state. Hole
// cards are nil for everyone except the viewer.
type PlayerHandSnapshot struct {
	Nickname   string      `json:"nickname"`
	HoleCards  []deck.Card `json:"hole_cards"`
	CurrentBet int         `json:"current_bet"`
	TotalBet   int         `json:"total_bet"`
	Folded     bool        `json:"folded"`
	IsAllIn    bool        `json:"is_all_in"`
}

// PotSnapshot is the wire form of a pot
type PotSnapshot struct {
	Amount          int      `json:"amount"`
	EligiblePlayers []string `json:"eligible_players"`
}

// HandSnapshot is the wire form of the active hand
type HandSnapshot struct {
	HandNumber       int                           `json:"hand_number"`
	DealerPosition   int                           `json:"dealer_position"`
	CommunityCards   []deck.Card                   `json:"community_cards"`
	Pots             []PotSnapshot                 `json:"pots"`
	CurrentBet       int                           `json:"current_bet"`
	MinRaise         int                           `json:"min_raise"`
	BettingRound     BettingRound                  `json:"betting_round"`
	CurrentPlayerIdx int                           `json:"current_player_idx"`
	PlayerHands      map[string]PlayerHandSnapshot `json:"player_hands"`
}

// RoomSnapshot is the wire form of a room
type RoomSnapshot struct {
	ID             string           `json:"id"`
	Creator        string           `json:"creator"`
	Status         Status           `json:"status"`
	Players        []PlayerSnapshot `json:"players"`
	PlayerCount    int              `json:"player_count"`
	CurrentHandNum int              `json:"current_hand_num"`
	DealerPosition int              `json:"dealer_position"`
	CreatedAt      string           `json:"created_at"`
	ActiveHand     *HandSnapshot    `json:"active_hand,omitempty"`
}

// Snapshot renders the room for a specific viewer. Only the viewer's own
// hole cards are included; pass "" for a fully redacted snapshot.
func (r *Room) Snapshot(viewer string) RoomSnapshot {
	snap := RoomSnapshot{
		ID:             r.ID,
		Creator:        r.Creator,
		Status:         r.Status,
		Players:        make([]PlayerSnapshot, 0, len(r.Players)),
		PlayerCount:    len(r.Players),
		CurrentHandNum: r.CurrentHandNum,
		DealerPosition: r.DealerPosition,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	for _, p := range r.Players {
		ps := PlayerSnapshot{
			Nickname:     p.Nickname,
			Chips:        p.Chips,
			IsEliminated: p.Eliminated,
		}
		if p.EliminationPosition > 0 {
			pos := p.EliminationPosition
			ps.EliminationPosition = &pos
		}
		snap.Players = append(snap.Players, ps)
	}
	if r.ActiveHand != nil {
		snap.ActiveHand = r.ActiveHand.snapshot(viewer)
	}
	return snap
}

func (h *Hand) snapshot(viewer string) *HandSnapshot {
	snap := &HandSnapshot{
		HandNumber:       h.HandNumber,
		DealerPosition:   h.DealerPosition,
		CommunityCards:   append([]deck.Card(nil), h.CommunityCards...),
		Pots:             make([]PotSnapshot, 0, len(h.Pots)),
		CurrentBet:       h.CurrentBet,
		MinRaise:         h.MinRaise,
		BettingRound:     h.BettingRound,
		CurrentPlayerIdx: h.CurrentPlayerIdx,
		PlayerHands:      make(map[string]PlayerHandSnapshot, len(h.PlayerHands)),
	}
	for nick, ph := range h.PlayerHands {
		phs := PlayerHandSnapshot{
			Nickname:   ph.Nickname,
			CurrentBet: ph.CurrentBet,
			TotalBet:   ph.TotalBet,
			Folded:     ph.Folded,
			IsAllIn:    ph.AllIn,
		}
		if nick == viewer {
			phs.HoleCards = append([]deck.Card(nil), ph.HoleCards...)
		}
		snap.PlayerHands[nick] = phs
	}
	for _, pot := range h.Pots {
		snap.Pots = append(snap.Pots, PotSnapshot{
			Amount:          pot.Amount,
			EligiblePlayers: append([]string(nil), pot.Eligible...),
		})
	}
	return snap
}
