// internal/daily/store.go
//
// SQLite-backed record of finished daily games.
// One row per (player, date), enforced by UNIQUE(player_id, date); inserts
// of a second result for the same day are ignored. Lost games are stored
// with won=0 and kept off the leaderboard.

package daily

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Result is one player's finished daily game.
type Result struct {
	PlayerID  string    `json:"playerId"`
	Date      string    `json:"date"`
	Target    int       `json:"target"`
	Attempts  int       `json:"attempts"`
	Won       bool      `json:"won"`
	ElapsedMs int64     `json:"elapsedMs"`
	CreatedAt time.Time `json:"createdAt"`
}

// LBRow is a leaderboard entry.
type LBRow struct {
	PlayerID  string `json:"playerId,omitempty"`
	Username  string `json:"username,omitempty"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Store persists daily results.
type Store struct{ db *sql.DB }

// NewStore wraps an open database. Migrations must already be applied.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether playerID has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE player_id=? AND date=?`,
		playerID, date,
	).Scan(&cnt); err != nil {
		return false, fmt.Errorf("query daily_results: %w", err)
	}
	return cnt > 0, nil
}

// RecordResult inserts r. A second result for the same (player, date) is
// silently ignored.
func (s *Store) RecordResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO daily_results
			(player_id, date, target, attempts, won, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.PlayerID, r.Date, r.Target, r.Attempts, r.Won, r.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("insert daily result: %w", err)
	}
	return nil
}

// Leaderboard returns the top wins for date: fewest attempts first, then
// fastest, then earliest. limit <= 0 means 20.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.player_id, COALESCE(u.username, ''), r.attempts, r.elapsed_ms
		FROM daily_results r
		LEFT JOIN users u ON u.id = r.player_id
		WHERE r.date=? AND r.won=1
		ORDER BY r.attempts ASC, r.elapsed_ms ASC, r.created_at ASC
		LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.PlayerID, &r.Username, &r.Attempts, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// History returns playerID's most recent results, newest first.
func (s *Store) History(ctx context.Context, playerID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, date, target, attempts, won, elapsed_ms, created_at
		FROM daily_results
		WHERE player_id=?
		ORDER BY date DESC
		LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var created string
		if err := rows.Scan(&r.PlayerID, &r.Date, &r.Target, &r.Attempts, &r.Won, &r.ElapsedMs, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.DateTime, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
