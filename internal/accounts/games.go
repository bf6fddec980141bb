package accounts

import (
	"context"
	"database/sql"
	"time"
)

// GameStart is written when a room is created.
type GameStart struct {
	ID        string
	UserID    string // empty for guests
	AnonID    string
	Mode      string
	StartedAt time.Time
}

// GameEnd is written when a session reaches game over.
type GameEnd struct {
	ID         string
	UserID     string
	Score      int
	Rounds     int
	Reason     string
	FinishedAt time.Time
}

// GameRow is one entry in a player's history.
type GameRow struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	Status     string `json:"status"`
	Score      int    `json:"score"`
	Rounds     int    `json:"rounds"`
	Reason     string `json:"reason,omitempty"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// StartGame records a new game row. Restarted rooms reuse their ID, so an
// existing row is reset to playing.
func (s *Store) StartGame(ctx context.Context, g GameStart) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, user_id, anonymous_id, mode, started_at, status)
		 VALUES (?,?,?,?,?,'playing')
		 ON CONFLICT(id) DO UPDATE SET
		   started_at=excluded.started_at, status='playing',
		   finished_at=NULL, score=0, rounds=0, reason=NULL`,
		g.ID, nullable(g.UserID), nullable(g.AnonID), g.Mode, g.StartedAt.UTC().Format(time.RFC3339))
	return err
}

// FinishGame stores the final score and, for signed-in players, bumps
// their stats in the same transaction.
func (s *Store) FinishGame(ctx context.Context, g GameEnd) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status='finished', finished_at=?, score=?, rounds=?, reason=? WHERE id=?`,
		g.FinishedAt.UTC().Format(time.RFC3339), g.Score, g.Rounds, g.Reason, g.ID); err != nil {
		return err
	}
	if g.UserID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET games_played = games_played + 1,
			                  total_score  = total_score + ?,
			                  best_score   = MAX(best_score, ?)
			 WHERE id=?`, g.Score, g.Score, g.UserID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentGames lists a user's latest games, newest first.
func (s *Store) RecentGames(ctx context.Context, userID string, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, status, score, rounds, COALESCE(reason,''), started_at, COALESCE(finished_at,'')
		 FROM games WHERE user_id=? ORDER BY started_at DESC, id LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRow{}
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.ID, &g.Mode, &g.Status, &g.Score, &g.Rounds, &g.Reason, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ClaimAnonGames moves a guest's history onto their account after signup
// or login.
func (s *Store) ClaimAnonGames(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=? AND user_id IS NULL`, userID, anonID)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
