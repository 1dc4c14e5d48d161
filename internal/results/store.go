// Package results persists final tournament standings to SQLite.
package results

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PlayerResult is one player's final standing in a finished game
type PlayerResult struct {
	Nickname string `json:"nickname"`
	Position int    `json:"position"`
	Chips    int    `json:"chips"`
	Points   int    `json:"points"`
}

// LeaderboardEntry aggregates a nickname's results across all games
type LeaderboardEntry struct {
	Nickname    string `json:"nickname"`
	TotalPoints int    `json:"total_points"`
	GamesPlayed int    `json:"games_played"`
}

// Store is the results database. Safe for concurrent use; writes happen at
// most once per finished game.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the results database at path and applies any
// pending migrations. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate results db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveGameResult records the final placements of one finished game in a
// single transaction
func (s *Store) SaveGameResult(ctx context.Context, placements []PlayerResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	gameID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_results (id) VALUES (?)`, gameID); err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}

	for _, p := range placements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_result_players (id, game_result_id, nickname, placement, points_awarded)
			 VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), gameID, p.Nickname, p.Position, p.Points); err != nil {
			return fmt.Errorf("insert player result for %s: %w", p.Nickname, err)
		}
	}

	return tx.Commit()
}

// Leaderboard returns the all-time points table, best first
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT nickname, SUM(points_awarded) AS total_points, COUNT(*) AS games_played
		FROM game_result_players
		GROUP BY nickname
		ORDER BY total_points DESC, nickname ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Nickname, &e.TotalPoints, &e.GamesPlayed); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
