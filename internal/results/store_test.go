package results

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLeaderboard(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveGameResult(ctx, []PlayerResult{
		{Nickname: "alice", Position: 1, Points: 10},
		{Nickname: "bob", Position: 2, Points: 5},
		{Nickname: "carol", Position: 3, Points: 2},
	}))
	require.NoError(t, store.SaveGameResult(ctx, []PlayerResult{
		{Nickname: "bob", Position: 1, Points: 10},
		{Nickname: "alice", Position: 2, Points: 5},
	}))

	entries, err := store.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "alice", entries[0].Nickname)
	assert.Equal(t, 15, entries[0].TotalPoints)
	assert.Equal(t, 2, entries[0].GamesPlayed)

	assert.Equal(t, "bob", entries[1].Nickname)
	assert.Equal(t, 15, entries[1].TotalPoints)

	assert.Equal(t, "carol", entries[2].Nickname)
	assert.Equal(t, 2, entries[2].TotalPoints)
}

func TestLeaderboardLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveGameResult(ctx, []PlayerResult{
		{Nickname: "alice", Position: 1, Points: 10},
		{Nickname: "bob", Position: 2, Points: 5},
	}))

	entries, err := store.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLeaderboardEmpty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Leaderboard(context.Background(), 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPing(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
