package game

import "github.com/lox/tablestakes/internal/deck"

// PlayerHand tracks one player's state within a single hand
type PlayerHand struct {
	Nickname   string
	HoleCards  []deck.Card
	CurrentBet int // bet in the current round
	TotalBet   int // total bet this hand, used for side pots
	Folded     bool
	AllIn      bool
}

// Pot is a main or side pot
type Pot struct {
	Amount   int
	Eligible []string // nicknames
}

// Hand tracks the state of a single hand being played
type Hand struct {
	HandNumber       int
	DealerPosition   int
	CommunityCards   []deck.Card
	Pots             []Pot
	CurrentBet       int // current bet to call
	MinRaise         int // minimum raise increment
	BettingRound     BettingRound
	CurrentPlayerIdx int // index into the can-act projection
	PlayerHands      map[string]*PlayerHand
	LastRaiser       string
	ActedThisRound   map[string]bool
}

// NewHand creates a hand for the given deal. The minimum raise starts at
// the big blind.
func NewHand(handNumber, dealerPosition, bigBlind int) *Hand {
	return &Hand{
		HandNumber:     handNumber,
		DealerPosition: dealerPosition,
		MinRaise:       bigBlind,
		BettingRound:   Preflop,
		PlayerHands:    make(map[string]*PlayerHand),
		ActedThisRound: make(map[string]bool),
	}
}

// TotalPot returns the sum of all pots plus bets not yet collected
func (h *Hand) TotalPot() int {
	total := 0
	for _, pot := range h.Pots {
		total += pot.Amount
	}
	for _, ph := range h.PlayerHands {
		total += ph.CurrentBet
	}
	return total
}
