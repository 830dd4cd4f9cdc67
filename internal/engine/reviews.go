package engine

import (
	"context"
	"time"

	"github.com/coursekit/engine/internal/store"
)

// ListDueReviews returns a user's review items due on or before date,
// in due-order.
func (e *Engine) ListDueReviews(ctx context.Context, userID string, date time.Time) ([]store.ReviewItem, error) {
	start := time.Now()
	var items []store.ReviewItem
	err := e.withReadTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		rows, err := e.review.DueToday(ctx, tx, userID, date)
		if err != nil {
			return err
		}
		items = rows
		return nil
	})
	e.commandEvent("list_due_reviews", start, err)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SubmitReview records a standalone spaced-repetition review outcome
// for a previously completed quiz, advancing its SM-2 state. Unlike
// submit_quiz, this does not re-grade the quiz or award XP/mastery: it
// is purely the review scheduler's own feedback loop.
func (e *Engine) SubmitReview(ctx context.Context, userID, quizNodeID string, scorePct float64) (*store.ReviewItem, error) {
	start := time.Now()
	if scorePct < 0 || scorePct > 100 {
		err := ErrInvalidInput("score_pct must be within [0,100]")
		e.commandEvent("submit_review", start, err)
		return nil, err
	}
	var item *store.ReviewItem
	err := e.withWriteTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var repos store.Repos
		existing, err := repos.Review.Get(ctx, tx, userID, quizNodeID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound("review_item", quizNodeID)
		}
		i, err := e.review.Record(ctx, tx, userID, quizNodeID, scorePct, time.Now())
		if err != nil {
			return err
		}
		item = i
		return nil
	})
	e.commandEvent("submit_review", start, err)
	if err != nil {
		return nil, err
	}
	return item, nil
}
