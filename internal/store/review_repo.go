package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReviewRepo persists the SM-2 scheduling state keyed by (user, quiz
// node), grounded in the teacher's internal/spacedrep/scheduler.go
// load/record/due-query access pattern.
type ReviewRepo struct{}

// Get fetches one review item, or nil if the quiz has never entered the
// review queue.
func (ReviewRepo) Get(ctx context.Context, tx *Tx, userID, quizNodeID string) (*ReviewItem, error) {
	var r ReviewItem
	err := tx.GetContext(ctx, &r, `SELECT user_id, quiz_node_id, next_due_date, ease_factor,
		interval_days, repetitions, last_reviewed_at
		FROM review_items WHERE user_id = ? AND quiz_node_id = ?`, userID, quizNodeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review item: %w", err)
	}
	return &r, nil
}

// DueBefore returns every review item due on or before the given local
// calendar date (inclusive), ordered by due date ascending.
func (ReviewRepo) DueBefore(ctx context.Context, tx *Tx, userID, date string) ([]ReviewItem, error) {
	var rows []ReviewItem
	err := tx.SelectContext(ctx, &rows, `SELECT user_id, quiz_node_id, next_due_date, ease_factor,
		interval_days, repetitions, last_reviewed_at
		FROM review_items WHERE user_id = ? AND next_due_date <= ? ORDER BY next_due_date ASC`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list due review items: %w", err)
	}
	return rows, nil
}

// Upsert inserts or overwrites a review item's scheduling state.
func (ReviewRepo) Upsert(ctx context.Context, tx *Tx, r *ReviewItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO review_items
		(user_id, quiz_node_id, next_due_date, ease_factor, interval_days, repetitions, last_reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, quiz_node_id) DO UPDATE SET
			next_due_date = excluded.next_due_date,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			last_reviewed_at = excluded.last_reviewed_at`,
		r.UserID, r.QuizNodeID, r.NextDueDate, r.EaseFactor, r.IntervalDays, r.Repetitions, r.LastReviewedAt)
	if err != nil {
		return fmt.Errorf("upsert review item: %w", err)
	}
	return nil
}

// DeleteByUser removes every review item for a user, for reset_progress.
func (ReviewRepo) DeleteByUser(ctx context.Context, tx *Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM review_items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete review items: %w", err)
	}
	return nil
}
