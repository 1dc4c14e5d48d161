package game

// BlindPost records a posted blind for the blinds_posted event
type BlindPost struct {
	Nickname string `json:"nickname"`
	Amount   int    `json:"amount"`
}

// PostBlinds posts the small and big blinds for the active hand. Heads-up
// the dealer posts the small blind; otherwise the two seats after the
// dealer post. A short blind puts the player all-in, and the bet to match
// is the big blind actually posted.
func (r *Room) PostBlinds(smallBlind, bigBlind int) (BlindPost, BlindPost) {
	hand := r.ActiveHand
	active := r.ActivePlayers()
	n := len(active)

	var sbIdx, bbIdx int
	if n == 2 {
		sbIdx = r.DealerPosition % n
		bbIdx = (r.DealerPosition + 1) % n
	} else {
		sbIdx = (r.DealerPosition + 1) % n
		bbIdx = (r.DealerPosition + 2) % n
	}

	sb := r.postBlind(active[sbIdx], smallBlind)
	bb := r.postBlind(active[bbIdx], bigBlind)

	hand.CurrentBet = bb.Amount
	return sb, bb
}

func (r *Room) postBlind(player *Player, blind int) BlindPost {
	ph := r.ActiveHand.PlayerHands[player.Nickname]
	amount := min(blind, player.Chips)
	player.Chips -= amount
	ph.CurrentBet = amount
	ph.TotalBet = amount
	if player.Chips == 0 {
		ph.AllIn = true
	}
	return BlindPost{Nickname: player.Nickname, Amount: amount}
}

// SetPreflopActor points the action at the first player to act preflop:
// the small blind heads-up, the seat after the big blind otherwise. The
// seat is mapped into the can-act projection so a short-blind all-in is
// skipped.
func (r *Room) SetPreflopActor() {
	if len(r.ActivePlayers()) == 2 {
		r.setActionFromSeat(r.DealerPosition)
		return
	}
	r.setActionFromSeat(r.DealerPosition + 3)
}
