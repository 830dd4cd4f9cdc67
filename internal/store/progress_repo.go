package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProgressRepo persists per-node completion state.
type ProgressRepo struct{}

// Get fetches a user's progress row for one node, or nil if absent.
func (ProgressRepo) Get(ctx context.Context, tx *Tx, userID, nodeID string) (*NodeProgress, error) {
	var p NodeProgress
	err := tx.GetContext(ctx, &p, `SELECT user_id, node_id, status, attempts, time_spent_minutes,
		first_started_at, completed_at, last_updated_at
		FROM node_progress WHERE user_id = ? AND node_id = ?`, userID, nodeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get node progress: %w", err)
	}
	return &p, nil
}

// ListByUser fetches every progress row for a user.
func (ProgressRepo) ListByUser(ctx context.Context, tx *Tx, userID string) ([]NodeProgress, error) {
	var rows []NodeProgress
	err := tx.SelectContext(ctx, &rows, `SELECT user_id, node_id, status, attempts, time_spent_minutes,
		first_started_at, completed_at, last_updated_at
		FROM node_progress WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list node progress: %w", err)
	}
	return rows, nil
}

// Upsert inserts or overwrites a progress row.
func (ProgressRepo) Upsert(ctx context.Context, tx *Tx, p *NodeProgress) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO node_progress
		(user_id, node_id, status, attempts, time_spent_minutes, first_started_at, completed_at, last_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, node_id) DO UPDATE SET
			status = excluded.status,
			attempts = excluded.attempts,
			time_spent_minutes = excluded.time_spent_minutes,
			first_started_at = excluded.first_started_at,
			completed_at = excluded.completed_at,
			last_updated_at = excluded.last_updated_at`,
		p.UserID, p.NodeID, p.Status, p.Attempts, p.TimeSpentMinutes,
		p.FirstStartedAt, p.CompletedAt, p.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert node progress: %w", err)
	}
	return nil
}

// DeleteByUser removes every progress row for a user, for reset_progress.
func (ProgressRepo) DeleteByUser(ctx context.Context, tx *Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM node_progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete node progress: %w", err)
	}
	return nil
}

// MasteryRepo persists per-skill EMA mastery scores.
type MasteryRepo struct{}

// Get fetches a user's mastery score for one skill, or nil if absent.
func (MasteryRepo) Get(ctx context.Context, tx *Tx, userID, skillID string) (*MasteryScore, error) {
	var m MasteryScore
	err := tx.GetContext(ctx, &m, `SELECT user_id, skill_id, score, last_updated_at
		FROM mastery_scores WHERE user_id = ? AND skill_id = ?`, userID, skillID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mastery score: %w", err)
	}
	return &m, nil
}

// ListByUser fetches every mastery row for a user.
func (MasteryRepo) ListByUser(ctx context.Context, tx *Tx, userID string) ([]MasteryScore, error) {
	var rows []MasteryScore
	err := tx.SelectContext(ctx, &rows, `SELECT user_id, skill_id, score, last_updated_at
		FROM mastery_scores WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mastery scores: %w", err)
	}
	return rows, nil
}

// Upsert inserts or overwrites a mastery score row.
func (MasteryRepo) Upsert(ctx context.Context, tx *Tx, m *MasteryScore) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO mastery_scores (user_id, skill_id, score, last_updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, skill_id) DO UPDATE SET
			score = excluded.score,
			last_updated_at = excluded.last_updated_at`,
		m.UserID, m.SkillID, m.Score, m.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert mastery score: %w", err)
	}
	return nil
}

// DeleteByUser removes every mastery score row for a user, for reset_progress.
func (MasteryRepo) DeleteByUser(ctx context.Context, tx *Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM mastery_scores WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete mastery scores: %w", err)
	}
	return nil
}
