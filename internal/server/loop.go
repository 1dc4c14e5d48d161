package server

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/tablestakes/internal/deck"
	"github.com/lox/tablestakes/internal/evaluator"
	"github.com/lox/tablestakes/internal/game"
	"github.com/lox/tablestakes/internal/results"
)

// interHandPause is the breather between a hand result and the next deal
const interHandPause = 3 * time.Second

// ResultStore persists final standings. Persistence failures are logged
// and never affect game state.
type ResultStore interface {
	SaveGameResult(ctx context.Context, placements []results.PlayerResult) error
}

// GameLoop drives one room through its hands: dealing, prompting, the turn
// timer, showdowns and eliminations. All room state is mutated under the
// loop's mutex, which is the room's serialization point; timers and
// connection readers re-enter through methods that take it.
type GameLoop struct {
	mu        sync.Mutex
	room      *game.Room
	cfg       game.Config
	broadcast BroadcastFunc
	store     ResultStore
	clock     quartz.Clock
	rng       *rand.Rand
	logger    *log.Logger

	deck       *deck.Deck
	turnTimer  *quartz.Timer
	pauseTimer *quartz.Timer
	turnSeq    int
}

// NewGameLoop creates the loop for a room. The broadcast seam is injected
// so tests can record events instead of hitting real connections.
func NewGameLoop(room *game.Room, cfg game.Config, broadcast BroadcastFunc, store ResultStore, clock quartz.Clock, rng *rand.Rand, logger *log.Logger) *GameLoop {
	return &GameLoop{
		room:      room,
		cfg:       cfg,
		broadcast: broadcast,
		store:     store,
		clock:     clock,
		rng:       rng,
		logger:    logger.WithPrefix("loop").With("room", room.ID),
	}
}

// Room returns the room this loop drives. Callers must use WithRoom for
// any access that reads game state.
func (l *GameLoop) Room() *game.Room {
	return l.room
}

// WithRoom runs fn with the room lock held, for snapshot reads from HTTP
// and WebSocket handlers
func (l *GameLoop) WithRoom(fn func(room *game.Room)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.room)
}

// Start transitions the room to active play and deals the first hand.
// Only the creator may start, with enough players seated; the checks run
// under the room lock so concurrent starts cannot race.
func (l *GameLoop) Start(nickname string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.room.Creator != nickname:
		return game.ErrNotCreator
	case l.room.Status != game.StatusWaiting:
		return game.ErrRoomStarted
	case len(l.room.Players) < l.cfg.MinPlayers:
		return fmt.Errorf("%w: need at least %d", game.ErrNotEnoughPlayers, l.cfg.MinPlayers)
	}

	l.room.Status = game.StatusActive
	l.room.CurrentHandNum = 0
	l.room.DealerPosition = 0

	l.logger.Info("Game started", "players", len(l.room.Players))
	l.broadcast(l.room.ID, NewEvent(EventGameStarted, GameStartedPayload{Game: l.room.Snapshot("")}), "")

	l.startHand()
	return nil
}

// HandleAction applies a player action received from a connection
func (l *GameLoop) HandleAction(nickname, action string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handleAction(nickname, action, amount)
}

// Stop cancels any outstanding timers, for server shutdown
func (l *GameLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelTurnTimer()
	if l.pauseTimer != nil {
		l.pauseTimer.Stop()
	}
}

// startHand deals the next hand, or ends the game if the tournament is
// decided or the hand limit is reached
func (l *GameLoop) startHand() {
	active := l.room.ActivePlayers()
	if len(active) <= 1 || l.room.CurrentHandNum >= l.cfg.HandLimit {
		l.endGame()
		return
	}

	l.room.CurrentHandNum++
	if l.room.CurrentHandNum > 1 {
		l.room.DealerPosition = (l.room.DealerPosition + 1) % len(active)
	}

	l.deck = deck.New(l.rng)
	l.deck.Shuffle()

	hand := game.NewHand(l.room.CurrentHandNum, l.room.DealerPosition, l.cfg.BigBlind)

	eligible := make([]string, 0, len(active))
	for _, p := range active {
		eligible = append(eligible, p.Nickname)
	}
	hand.Pots = []game.Pot{{Eligible: eligible}}

	for _, p := range active {
		cards, err := l.deck.Deal(2)
		if err != nil {
			l.fatal(err)
			return
		}
		hand.PlayerHands[p.Nickname] = &game.PlayerHand{
			Nickname:  p.Nickname,
			HoleCards: cards,
		}
	}
	l.room.ActiveHand = hand

	sb, bb := l.room.PostBlinds(l.cfg.SmallBlind, l.cfg.BigBlind)
	l.room.SetPreflopActor()

	l.logger.Debug("Hand started",
		"hand", hand.HandNumber,
		"dealer", hand.DealerPosition,
		"sb", sb.Nickname,
		"bb", bb.Nickname)

	l.broadcast(l.room.ID, NewEvent(EventBlindsPosted, BlindsPostedPayload{
		SmallBlind: sb,
		BigBlind:   bb,
	}), "")

	// Hole cards are private, so each player gets their own event.
	for _, p := range active {
		l.broadcast(l.room.ID, NewEvent(EventHandStarted, HandStartedPayload{
			HandNumber:     hand.HandNumber,
			DealerPosition: hand.DealerPosition,
			HoleCards:      hand.PlayerHands[p.Nickname].HoleCards,
			YourPosition:   l.room.PlayerPosition(p.Nickname),
		}), p.Nickname)
	}

	l.checkRoundEnd()
}

// handleAction validates and applies an action. Action errors go back to
// the offender privately and the same player is re-prompted; everything
// else moves the hand along.
func (l *GameLoop) handleAction(nickname, action string, amount int) {
	l.cancelTurnTimer()

	hand := l.room.ActiveHand
	if hand == nil || l.room.Status != game.StatusActive {
		return
	}

	var (
		paid int
		err  error
	)
	switch action {
	case "fold":
		err = l.room.Fold(nickname)
	case "check":
		err = l.room.Check(nickname)
	case "call":
		paid, err = l.room.Call(nickname)
	case "raise":
		paid, err = l.room.RaiseTo(nickname, amount)
	case "all_in":
		paid, err = l.room.AllIn(nickname)
	default:
		err = game.ErrUnknownAction
	}

	if err != nil {
		l.logger.Debug("Action rejected", "player", nickname, "action", action, "error", err)
		l.broadcast(l.room.ID, NewEvent(EventError, ErrorPayload{Message: err.Error()}), nickname)
		l.promptCurrentPlayer()
		return
	}

	payload := PlayerActionPayload{
		Nickname:    nickname,
		Action:      action,
		Pot:         hand.TotalPot(),
		PlayerChips: l.room.GetPlayer(nickname).Chips,
	}
	if action == "call" || action == "raise" || action == "all_in" {
		payload.Amount = &paid
	}
	l.broadcast(l.room.ID, NewEvent(EventPlayerAction, payload), "")

	l.checkRoundEnd()
}

// checkRoundEnd settles where the hand goes next: resolve it, deal the
// next street, prompt the next actor, or run the board out when nobody
// can act.
func (l *GameLoop) checkRoundEnd() {
	for {
		hand := l.room.ActiveHand
		if hand == nil {
			return
		}

		if len(l.room.PlayersInHand()) <= 1 || hand.BettingRound == game.Showdown {
			l.resolveHand()
			return
		}

		if err := l.dealDueCommunityCards(); err != nil {
			l.fatal(err)
			return
		}

		if l.room.CurrentPlayerNickname() != "" {
			l.promptCurrentPlayer()
			return
		}

		// Everyone left is all-in: close the round and keep dealing.
		l.room.AdvanceBettingRound()
	}
}

// dealDueCommunityCards burns and deals the board cards owed for the
// current round, once per street
func (l *GameLoop) dealDueCommunityCards() error {
	hand := l.room.ActiveHand

	var count int
	switch {
	case hand.BettingRound == game.Flop && len(hand.CommunityCards) == 0:
		count = 3
	case hand.BettingRound == game.Turn && len(hand.CommunityCards) == 3:
		count = 1
	case hand.BettingRound == game.River && len(hand.CommunityCards) == 4:
		count = 1
	default:
		return nil
	}

	if _, err := l.deck.DealOne(); err != nil { // burn
		return err
	}
	cards, err := l.deck.Deal(count)
	if err != nil {
		return err
	}
	hand.CommunityCards = append(hand.CommunityCards, cards...)

	l.broadcast(l.room.ID, NewEvent(EventCommunityCards, CommunityCardsPayload{
		Cards:             cards,
		AllCommunityCards: hand.CommunityCards,
		BettingRound:      hand.BettingRound,
	}), "")
	return nil
}

// promptCurrentPlayer announces whose turn it is and arms the turn timer
func (l *GameLoop) promptCurrentPlayer() {
	hand := l.room.ActiveHand
	current := l.room.CurrentPlayerNickname()
	if hand == nil || current == "" {
		return
	}

	l.broadcast(l.room.ID, NewEvent(EventTurn, TurnPayload{
		CurrentPlayer: current,
		ValidActions:  l.room.ValidActions(current),
		TimeRemaining: int(l.cfg.TurnTimer / time.Second),
		CurrentBet:    hand.CurrentBet,
		Pot:           hand.TotalPot(),
	}), "")

	l.turnSeq++
	seq := l.turnSeq
	l.turnTimer = l.clock.AfterFunc(l.cfg.TurnTimer, func() {
		l.onTurnTimeout(seq, current)
	})
}

// onTurnTimeout folds the player who let their clock run out. A stale
// timer (the player acted, or a new hand started) is a no-op.
func (l *GameLoop) onTurnTimeout(seq int, nickname string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.turnSeq || l.room.Status != game.StatusActive {
		return
	}
	if l.room.CurrentPlayerNickname() != nickname {
		return
	}

	l.logger.Info("Turn timed out, auto-folding", "player", nickname)
	l.handleAction(nickname, "fold", 0)
}

func (l *GameLoop) cancelTurnTimer() {
	l.turnSeq++
	if l.turnTimer != nil {
		l.turnTimer.Stop()
	}
}

// resolveHand awards the pot(s), reveals hands if there was a showdown,
// handles eliminations, and schedules the next deal
func (l *GameLoop) resolveHand() {
	l.cancelTurnTimer()

	hand := l.room.ActiveHand
	if hand == nil {
		return
	}

	inHand := l.room.PlayersInHand()
	var outcomes []HandOutcome

	if len(inHand) == 1 {
		// Everyone else folded; the winner keeps their cards hidden.
		winner := inHand[0]
		won := hand.TotalPot()
		winner.Chips += won
		outcomes = append(outcomes, HandOutcome{
			Nickname:  winner.Nickname,
			Won:       won,
			HandShown: false,
		})
	} else {
		var err error
		outcomes, err = l.showdown(inHand)
		if err != nil {
			l.fatal(err)
			return
		}
	}

	l.broadcast(l.room.ID, NewEvent(EventHandResult, HandResultPayload{
		Results:        outcomes,
		CommunityCards: hand.CommunityCards,
	}), "")

	l.checkEliminations()

	l.room.ActiveHand = nil

	l.pauseTimer = l.clock.AfterFunc(interHandPause, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.room.Status == game.StatusActive {
			l.startHand()
		}
	})
}

// showdown evaluates every remaining hand and splits each pot among its
// winners, odd chips going to the earliest seats
func (l *GameLoop) showdown(inHand []*game.Player) ([]HandOutcome, error) {
	hand := l.room.ActiveHand

	l.room.CollectBets()
	l.room.BuildShowdownPots()

	sevens := make(map[string][]deck.Card, len(inHand))
	ranks := make(map[string]string, len(inHand))
	for _, p := range inHand {
		ph := hand.PlayerHands[p.Nickname]
		cards := append(append([]deck.Card(nil), ph.HoleCards...), hand.CommunityCards...)
		sevens[p.Nickname] = cards

		best, err := evaluator.EvaluateBest(cards)
		if err != nil {
			return nil, err
		}
		ranks[p.Nickname] = best.Class.String()
	}

	winnings := make(map[string]int, len(inHand))
	for _, pot := range hand.Pots {
		hands := make([][]deck.Card, len(pot.Eligible))
		for i, nick := range pot.Eligible {
			hands[i] = sevens[nick]
		}
		winnerIdxs, err := evaluator.CompareHands(hands)
		if err != nil {
			return nil, err
		}

		share := pot.Amount / len(winnerIdxs)
		remainder := pot.Amount % len(winnerIdxs)
		for i, idx := range winnerIdxs {
			won := share
			if i < remainder {
				won++
			}
			winnings[pot.Eligible[idx]] += won
		}
	}

	outcomes := make([]HandOutcome, 0, len(inHand))
	for _, p := range inHand {
		won := winnings[p.Nickname]
		p.Chips += won
		outcomes = append(outcomes, HandOutcome{
			Nickname:  p.Nickname,
			Won:       won,
			HandShown: true,
			HoleCards: hand.PlayerHands[p.Nickname].HoleCards,
			HandRank:  ranks[p.Nickname],
		})
	}
	return outcomes, nil
}

// checkEliminations knocks out any player who has run dry, worst surviving
// rank first
func (l *GameLoop) checkEliminations() {
	for _, p := range l.room.Players {
		if p.Eliminated || p.Chips > 0 {
			continue
		}
		p.Eliminated = true
		p.Chips = 0
		l.room.EliminationOrder = append(l.room.EliminationOrder, p.Nickname)
		p.EliminationPosition = len(l.room.Players) - len(l.room.EliminationOrder) + 1

		l.logger.Info("Player eliminated", "player", p.Nickname, "position", p.EliminationPosition)
		l.broadcast(l.room.ID, NewEvent(EventPlayerEliminated, PlayerEliminatedPayload{
			Nickname: p.Nickname,
			Position: p.EliminationPosition,
		}), "")
	}
}

// endGame finalizes placements, persists them, and announces the result
func (l *GameLoop) endGame() {
	l.cancelTurnTimer()
	l.room.Status = game.StatusFinished

	survivors := l.room.ActivePlayers()
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Chips > survivors[j].Chips
	})

	var placements []results.PlayerResult
	for i, p := range survivors {
		position := i + 1
		p.EliminationPosition = position
		placements = append(placements, results.PlayerResult{
			Nickname: p.Nickname,
			Position: position,
			Chips:    p.Chips,
			Points:   l.cfg.PointsForPlacement(position),
		})
	}
	for _, p := range l.room.Players {
		if !p.Eliminated {
			continue
		}
		placements = append(placements, results.PlayerResult{
			Nickname: p.Nickname,
			Position: p.EliminationPosition,
			Chips:    0,
			Points:   l.cfg.PointsForPlacement(p.EliminationPosition),
		})
	}
	sort.Slice(placements, func(i, j int) bool {
		return placements[i].Position < placements[j].Position
	})

	if l.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := l.store.SaveGameResult(ctx, placements); err != nil {
			l.logger.Error("Failed to persist game result", "error", err)
		}
	}

	l.logger.Info("Game ended", "hands", l.room.CurrentHandNum, "winner", placements[0].Nickname)
	l.broadcast(l.room.ID, NewEvent(EventGameEnded, GameEndedPayload{
		Placements: placements,
		TotalHands: l.room.CurrentHandNum,
	}), "")
}

// fatal handles an internal invariant violation: the room is shut down
// without persisting results
func (l *GameLoop) fatal(err error) {
	l.logger.Error("Internal game error, ending room", "error", err)
	l.cancelTurnTimer()
	l.room.Status = game.StatusFinished
	l.room.ActiveHand = nil
	l.broadcast(l.room.ID, NewEvent(EventError, ErrorPayload{Message: "internal server error, game ended"}), "")
}
