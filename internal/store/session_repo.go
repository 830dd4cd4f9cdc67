package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SessionRepo persists planned study sessions and their ordered
// activity lists.
type SessionRepo struct{}

// Create inserts a new session row.
func (SessionRepo) Create(ctx context.Context, tx *Tx, s *Session) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sessions (id, user_id, started_at, ended_at, xp_accumulated)
		VALUES (?, ?, ?, ?, ?)`, s.ID, s.UserID, s.StartedAt, s.EndedAt, s.XPAccumulated)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get fetches one session by id.
func (SessionRepo) Get(ctx context.Context, tx *Tx, id string) (*Session, error) {
	var s Session
	err := tx.GetContext(ctx, &s, `SELECT id, user_id, started_at, ended_at, xp_accumulated
		FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Update overwrites a session's mutable fields (end time, accumulated
// XP).
func (SessionRepo) Update(ctx context.Context, tx *Tx, s *Session) error {
	res, err := tx.ExecContext(ctx, `UPDATE sessions SET ended_at = ?, xp_accumulated = ? WHERE id = ?`,
		s.EndedAt, s.XPAccumulated, s.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows affected: %w", err)
	}
	if n == 0 {
		return &ErrNotFound{Entity: "session", ID: s.ID}
	}
	return nil
}

// InsertActivity appends one planned activity to a session.
func (SessionRepo) InsertActivity(ctx context.Context, tx *Tx, a *SessionActivity) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO session_activities (session_id, seq, node_id, kind)
		VALUES (?, ?, ?, ?)`, a.SessionID, a.Seq, a.NodeID, a.Kind)
	if err != nil {
		return fmt.Errorf("insert session activity: %w", err)
	}
	return nil
}

// ListActivities returns a session's activities in planned order.
func (SessionRepo) ListActivities(ctx context.Context, tx *Tx, sessionID string) ([]SessionActivity, error) {
	var rows []SessionActivity
	err := tx.SelectContext(ctx, &rows, `SELECT session_id, seq, node_id, kind
		FROM session_activities WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session activities: %w", err)
	}
	return rows, nil
}
