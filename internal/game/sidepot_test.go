package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildShowdownRoom creates a room holding a showdown-ready hand from
// (nickname, totalBet, folded) rows, preserving seat order.
func buildShowdownRoom(t *testing.T, rows []struct {
	nick   string
	total  int
	folded bool
}) *Room {
	t.Helper()
	room := NewRoom(rows[0].nick, 1000)
	for _, row := range rows[1:] {
		require.NoError(t, room.AddPlayer(row.nick, 1000))
	}
	hand := NewHand(1, 0, 20)
	for _, row := range rows {
		hand.PlayerHands[row.nick] = &PlayerHand{
			Nickname: row.nick,
			TotalBet: row.total,
			Folded:   row.folded,
		}
	}
	hand.BettingRound = Showdown
	room.ActiveHand = hand
	return room
}

func TestBuildShowdownPotsSinglePot(t *testing.T) {
	room := buildShowdownRoom(t, []struct {
		nick   string
		total  int
		folded bool
	}{
		{"alice", 100, false},
		{"bob", 100, false},
	})

	room.BuildShowdownPots()
	pots := room.ActiveHand.Pots
	require.Len(t, pots, 1)
	assert.Equal(t, 200, pots[0].Amount)
	assert.Equal(t, []string{"alice", "bob"}, pots[0].Eligible)
}

func TestBuildShowdownPotsLayersAllIns(t *testing.T) {
	room := buildShowdownRoom(t, []struct {
		nick   string
		total  int
		folded bool
	}{
		{"alice", 50, false},  // short all-in
		{"bob", 200, false},   // mid all-in
		{"carol", 500, false}, // covers everyone
		{"dave", 500, false},
	})

	room.BuildShowdownPots()
	pots := room.ActiveHand.Pots
	require.Len(t, pots, 3)

	// Layer 1: 50 from each of four players.
	assert.Equal(t, 200, pots[0].Amount)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, pots[0].Eligible)

	// Layer 2: next 150 from bob, carol and dave.
	assert.Equal(t, 450, pots[1].Amount)
	assert.Equal(t, []string{"bob", "carol", "dave"}, pots[1].Eligible)

	// Layer 3: the remaining 300 each from carol and dave.
	assert.Equal(t, 600, pots[2].Amount)
	assert.Equal(t, []string{"carol", "dave"}, pots[2].Eligible)

	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	assert.Equal(t, 50+200+500+500, total)
}

func TestBuildShowdownPotsFoldedMoneyStaysInPot(t *testing.T) {
	room := buildShowdownRoom(t, []struct {
		nick   string
		total  int
		folded bool
	}{
		{"alice", 80, true}, // folded after betting
		{"bob", 200, false},
		{"carol", 200, false},
	})

	room.BuildShowdownPots()
	pots := room.ActiveHand.Pots
	require.Len(t, pots, 1)
	assert.Equal(t, 480, pots[0].Amount)
	assert.Equal(t, []string{"bob", "carol"}, pots[0].Eligible)
}

func TestBuildShowdownPotsFoldedExcessAboveTopLayer(t *testing.T) {
	room := buildShowdownRoom(t, []struct {
		nick   string
		total  int
		folded bool
	}{
		{"alice", 300, true}, // raised then folded, over everyone's all-in
		{"bob", 100, false},
		{"carol", 250, false},
	})

	room.BuildShowdownPots()
	pots := room.ActiveHand.Pots
	require.Len(t, pots, 2)

	assert.Equal(t, 300, pots[0].Amount) // 100 from each
	assert.Equal(t, []string{"bob", "carol"}, pots[0].Eligible)

	// 150 more each from alice and carol, plus alice's 50 beyond carol.
	assert.Equal(t, 350, pots[1].Amount)
	assert.Equal(t, []string{"carol"}, pots[1].Eligible)

	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	assert.Equal(t, 300+100+250, total)
}
