package game

import "fmt"

// RaiseRange bounds a legal raise-to amount
type RaiseRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ValidActions describes which actions are legal for the current player.
// Amounts are chips the player would add from their stack with that action;
// the zero value means no action is available.
type ValidActions struct {
	Fold  bool        `json:"fold,omitempty"`
	Check bool        `json:"check,omitempty"`
	Call  int         `json:"call,omitempty"`
	Raise *RaiseRange `json:"raise,omitempty"`
	AllIn int         `json:"all_in,omitempty"`
}

// PlayersInHand returns active players whose hand is not folded, in seat
// order
func (r *Room) PlayersInHand() []*Player {
	var in []*Player
	for _, p := range r.ActivePlayers() {
		ph, ok := r.ActiveHand.PlayerHands[p.Nickname]
		if ok && !ph.Folded {
			in = append(in, p)
		}
	}
	return in
}

// canAct returns players still in the hand who are not all-in
func (r *Room) canAct() []*Player {
	var able []*Player
	for _, p := range r.PlayersInHand() {
		if !r.ActiveHand.PlayerHands[p.Nickname].AllIn {
			able = append(able, p)
		}
	}
	return able
}

// CurrentPlayerNickname returns the nickname of the player whose turn it
// is, or "" when no turn exists
func (r *Room) CurrentPlayerNickname() string {
	if r.ActiveHand == nil {
		return ""
	}
	able := r.canAct()
	if len(able) == 0 {
		return ""
	}
	return able[r.ActiveHand.CurrentPlayerIdx%len(able)].Nickname
}

func (r *Room) validateTurn(nickname string) error {
	current := r.CurrentPlayerNickname()
	if current != nickname {
		return fmt.Errorf("%w, waiting for %s", ErrWrongTurn, current)
	}
	return nil
}

// ValidActions returns the legal actions for a player. The result is empty
// unless it is that player's turn.
func (r *Room) ValidActions(nickname string) ValidActions {
	if r.ActiveHand == nil {
		return ValidActions{}
	}
	hand := r.ActiveHand
	ph := hand.PlayerHands[nickname]
	player := r.GetPlayer(nickname)
	if ph == nil || player == nil || ph.Folded || ph.AllIn {
		return ValidActions{}
	}
	if r.CurrentPlayerNickname() != nickname {
		return ValidActions{}
	}

	actions := ValidActions{Fold: true}
	toCall := hand.CurrentBet - ph.CurrentBet

	if toCall == 0 {
		actions.Check = true
	} else {
		actions.Call = min(toCall, player.Chips)
	}

	if player.Chips > toCall {
		minRaiseTotal := hand.CurrentBet + hand.MinRaise
		actions.Raise = &RaiseRange{
			Min: min(minRaiseTotal-ph.CurrentBet, player.Chips),
			Max: player.Chips,
		}
	}

	actions.AllIn = player.Chips
	return actions
}

// Fold folds the player's hand
func (r *Room) Fold(nickname string) error {
	if err := r.validateTurn(nickname); err != nil {
		return err
	}
	hand := r.ActiveHand
	hand.PlayerHands[nickname].Folded = true
	hand.ActedThisRound[nickname] = true
	r.advanceAction()
	return nil
}

// Check passes the action without betting
func (r *Room) Check(nickname string) error {
	if err := r.validateTurn(nickname); err != nil {
		return err
	}
	hand := r.ActiveHand
	ph := hand.PlayerHands[nickname]
	if toCall := hand.CurrentBet - ph.CurrentBet; toCall > 0 {
		return fmt.Errorf("%w: must call %d or fold", ErrCannotCheck, toCall)
	}
	hand.ActedThisRound[nickname] = true
	r.advanceAction()
	return nil
}

// Call matches the current bet, going all-in for less if short. Returns the
// amount actually committed. A short call never re-opens betting.
func (r *Room) Call(nickname string) (int, error) {
	if err := r.validateTurn(nickname); err != nil {
		return 0, err
	}
	hand := r.ActiveHand
	ph := hand.PlayerHands[nickname]
	player := r.GetPlayer(nickname)

	toCall := hand.CurrentBet - ph.CurrentBet
	if toCall <= 0 {
		return 0, ErrNothingToCall
	}

	actual := min(toCall, player.Chips)
	player.Chips -= actual
	ph.CurrentBet += actual
	ph.TotalBet += actual
	if player.Chips == 0 {
		ph.AllIn = true
	}

	hand.ActedThisRound[nickname] = true
	r.advanceAction()
	return actual, nil
}

// RaiseTo raises the player's total bet for this round to total. Returns
// the chips added. A full raise re-opens the action; an all-in for less
// than the minimum raise does not update MinRaise.
func (r *Room) RaiseTo(nickname string, total int) (int, error) {
	if err := r.validateTurn(nickname); err != nil {
		return 0, err
	}
	hand := r.ActiveHand
	ph := hand.PlayerHands[nickname]
	player := r.GetPlayer(nickname)

	additional := total - ph.CurrentBet
	if additional <= 0 {
		return 0, ErrNonIncreasing
	}
	if additional > player.Chips {
		return 0, fmt.Errorf("%w: you have %d", ErrInsufficient, player.Chips)
	}

	minRaiseTotal := hand.CurrentBet + hand.MinRaise
	isAllIn := additional == player.Chips
	if total < minRaiseTotal && !isAllIn {
		return 0, fmt.Errorf("%w: minimum is %d", ErrBelowMinRaise, minRaiseTotal)
	}

	player.Chips -= additional
	ph.CurrentBet = total
	ph.TotalBet += additional

	if total >= minRaiseTotal {
		hand.MinRaise = max(hand.MinRaise, total-hand.CurrentBet)
	}
	hand.CurrentBet = total
	hand.LastRaiser = nickname
	hand.ActedThisRound = map[string]bool{nickname: true}

	if player.Chips == 0 {
		ph.AllIn = true
	}

	r.advanceAction()
	return additional, nil
}

// AllIn commits the player's remaining stack. Returns the amount bet.
func (r *Room) AllIn(nickname string) (int, error) {
	if err := r.validateTurn(nickname); err != nil {
		return 0, err
	}
	hand := r.ActiveHand
	ph := hand.PlayerHands[nickname]
	player := r.GetPlayer(nickname)

	amount := player.Chips
	if amount == 0 {
		return 0, ErrNoChips
	}

	newTotal := ph.CurrentBet + amount
	player.Chips = 0
	ph.CurrentBet = newTotal
	ph.TotalBet += amount
	ph.AllIn = true

	if newTotal > hand.CurrentBet {
		// Acts as a raise. A short all-in leaves MinRaise alone so the
		// betting is not re-opened for less than a full raise.
		if newTotal-hand.CurrentBet >= hand.MinRaise {
			hand.MinRaise = newTotal - hand.CurrentBet
		}
		hand.CurrentBet = newTotal
		hand.LastRaiser = nickname
		hand.ActedThisRound = map[string]bool{nickname: true}
	} else {
		hand.ActedThisRound[nickname] = true
	}

	r.advanceAction()
	return amount, nil
}

// advanceAction moves to the next player or the next betting round. Called
// after every action.
func (r *Room) advanceAction() {
	hand := r.ActiveHand
	inHand := r.PlayersInHand()

	// Everyone else folded: the hand is over.
	if len(inHand) <= 1 {
		hand.BettingRound = Showdown
		return
	}

	able := r.canAct()

	allActed := true
	for _, p := range able {
		if !hand.ActedThisRound[p.Nickname] {
			allActed = false
			break
		}
	}

	allMatched := true
	for _, p := range inHand {
		ph := hand.PlayerHands[p.Nickname]
		if ph.CurrentBet != hand.CurrentBet && !ph.AllIn {
			allMatched = false
			break
		}
	}

	if (allActed && allMatched) || len(able) == 0 {
		r.AdvanceBettingRound()
	} else {
		hand.CurrentPlayerIdx = (hand.CurrentPlayerIdx + 1) % len(able)
	}
}

// AdvanceBettingRound closes the current round: bets are collected into
// the pot, per-round state resets, and action returns to the first player
// after the dealer.
func (r *Room) AdvanceBettingRound() {
	hand := r.ActiveHand

	r.CollectBets()

	hand.CurrentBet = 0
	hand.ActedThisRound = make(map[string]bool)
	hand.LastRaiser = ""

	hand.BettingRound = hand.BettingRound.next()

	r.resetActionToFirstAfterDealer()
}

// resetActionToFirstAfterDealer points CurrentPlayerIdx at the first
// player able to act starting from the seat after the dealer
func (r *Room) resetActionToFirstAfterDealer() {
	r.setActionFromSeat(r.DealerPosition + 1)
}

// setActionFromSeat walks seats starting at the given offset into the
// active-player ring and maps the first player able to act into the
// can-act projection
func (r *Room) setActionFromSeat(seat int) {
	hand := r.ActiveHand
	active := r.ActivePlayers()
	able := r.canAct()
	if len(able) == 0 {
		return
	}

	for i := 0; i < len(active); i++ {
		player := active[(seat+i)%len(active)]
		for j, a := range able {
			if a == player {
				hand.CurrentPlayerIdx = j
				return
			}
		}
	}
}

// CollectBets sweeps all current-round bets into the main pot, zeroes them,
// and refreshes the pot's eligibility to the players still in the hand.
// Blinds and bets stay in PlayerHand.CurrentBet until a round closes, so
// TotalPot counts them as uncollected in the meantime.
func (r *Room) CollectBets() {
	hand := r.ActiveHand

	collected := 0
	for _, ph := range hand.PlayerHands {
		collected += ph.CurrentBet
		ph.CurrentBet = 0
	}

	eligible := make([]string, 0, len(hand.PlayerHands))
	for _, p := range r.PlayersInHand() {
		eligible = append(eligible, p.Nickname)
	}

	if len(hand.Pots) == 0 {
		hand.Pots = append(hand.Pots, Pot{})
	}
	hand.Pots[0].Amount += collected
	hand.Pots[0].Eligible = eligible
}
