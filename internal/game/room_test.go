package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablestakes/internal/deck"
)

func TestNewRoomSeatsCreator(t *testing.T) {
	room := NewRoom("alice", 1000)

	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "alice", room.Creator)
	assert.Equal(t, StatusWaiting, room.Status)
	require.Len(t, room.Players, 1)
	assert.Equal(t, 1000, room.Players[0].Chips)
}

func TestAddPlayerRejectsDuplicates(t *testing.T) {
	room := NewRoom("alice", 1000)

	require.NoError(t, room.AddPlayer("bob", 1000))
	assert.ErrorIs(t, room.AddPlayer("bob", 1000), ErrDuplicateNickname)
	assert.ErrorIs(t, room.AddPlayer("  BOB ", 1000), ErrDuplicateNickname)
}

func TestActivePlayersExcludesEliminated(t *testing.T) {
	room := NewRoom("alice", 1000)
	require.NoError(t, room.AddPlayer("bob", 1000))
	require.NoError(t, room.AddPlayer("carol", 1000))

	room.Players[1].Eliminated = true
	active := room.ActivePlayers()
	require.Len(t, active, 2)
	assert.Equal(t, "alice", active[0].Nickname)
	assert.Equal(t, "carol", active[1].Nickname)
}

func TestSnapshotRedactsHoleCards(t *testing.T) {
	room := newTestRoom(t, "alice", "bob")
	room.ActiveHand.PlayerHands["alice"].HoleCards = []deck.Card{
		deck.NewCard(deck.Ace, deck.Spades), deck.NewCard(deck.King, deck.Spades),
	}
	room.ActiveHand.PlayerHands["bob"].HoleCards = []deck.Card{
		deck.NewCard(deck.Two, deck.Clubs), deck.NewCard(deck.Seven, deck.Diamonds),
	}

	snap := room.Snapshot("alice")
	require.NotNil(t, snap.ActiveHand)
	assert.Len(t, snap.ActiveHand.PlayerHands["alice"].HoleCards, 2)
	assert.Nil(t, snap.ActiveHand.PlayerHands["bob"].HoleCards)

	blind := room.Snapshot("")
	assert.Nil(t, blind.ActiveHand.PlayerHands["alice"].HoleCards)
	assert.Nil(t, blind.ActiveHand.PlayerHands["bob"].HoleCards)
}

func TestPointsForPlacement(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.PointsForPlacement(1))
	assert.Equal(t, 5, cfg.PointsForPlacement(2))
	assert.Equal(t, 2, cfg.PointsForPlacement(3))
	assert.Equal(t, 1, cfg.PointsForPlacement(4))
	assert.Equal(t, 0, cfg.PointsForPlacement(5))
	assert.Equal(t, 0, cfg.PointsForPlacement(0))
}
