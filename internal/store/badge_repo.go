package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BadgeRepo persists badge progress and unlock state, grounded in the
// teacher's internal/gems/service.go idempotent-award pattern.
type BadgeRepo struct{}

// Get fetches one badge progress row, or nil if never touched.
func (BadgeRepo) Get(ctx context.Context, tx *Tx, userID, badgeID string) (*BadgeProgress, error) {
	var b BadgeProgress
	err := tx.GetContext(ctx, &b, `SELECT user_id, badge_id, progress, earned_at
		FROM badge_progress WHERE user_id = ? AND badge_id = ?`, userID, badgeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get badge progress: %w", err)
	}
	return &b, nil
}

// ListByUser fetches every badge progress row for a user.
func (BadgeRepo) ListByUser(ctx context.Context, tx *Tx, userID string) ([]BadgeProgress, error) {
	var rows []BadgeProgress
	err := tx.SelectContext(ctx, &rows, `SELECT user_id, badge_id, progress, earned_at
		FROM badge_progress WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list badge progress: %w", err)
	}
	return rows, nil
}

// Upsert inserts or overwrites a badge progress row. Callers are
// responsible for never un-setting EarnedAt once set, preserving the
// badge engine's one-way unlock invariant.
func (BadgeRepo) Upsert(ctx context.Context, tx *Tx, b *BadgeProgress) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO badge_progress (user_id, badge_id, progress, earned_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, badge_id) DO UPDATE SET
			progress = excluded.progress,
			earned_at = excluded.earned_at`,
		b.UserID, b.BadgeID, b.Progress, b.EarnedAt)
	if err != nil {
		return fmt.Errorf("upsert badge progress: %w", err)
	}
	return nil
}

// DeleteByUser removes every badge progress row for a user, for reset_progress.
func (BadgeRepo) DeleteByUser(ctx context.Context, tx *Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM badge_progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete badge progress: %w", err)
	}
	return nil
}
