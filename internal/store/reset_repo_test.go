package store

import (
	"context"
	"testing"
	"time"
)

// TestDeleteByUser_ClearsResetScopedTables exercises the four
// DeleteByUser methods reset_progress relies on: progress, mastery,
// review, and badge rows must all disappear for the targeted user while
// leaving another user's rows untouched.
func TestDeleteByUser_ClearsResetScopedTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var repos Repos

	now := time.Now().UTC().Truncate(time.Second)
	err := s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		if err := repos.Progress.Upsert(ctx, tx, &NodeProgress{
			UserID: "u1", NodeID: "n1", Status: "Completed", LastUpdatedAt: now,
		}); err != nil {
			return err
		}
		if err := repos.Progress.Upsert(ctx, tx, &NodeProgress{
			UserID: "u2", NodeID: "n1", Status: "Completed", LastUpdatedAt: now,
		}); err != nil {
			return err
		}
		if err := repos.Mastery.Upsert(ctx, tx, &MasteryScore{
			UserID: "u1", SkillID: "s1", Score: 0.8, LastUpdatedAt: now,
		}); err != nil {
			return err
		}
		if err := repos.Review.Upsert(ctx, tx, &ReviewItem{
			UserID: "u1", QuizNodeID: "n1", NextDueDate: "2026-08-01", EaseFactor: 2.5, IntervalDays: 1,
		}); err != nil {
			return err
		}
		return repos.Badges.Upsert(ctx, tx, &BadgeProgress{
			UserID: "u1", BadgeID: "b1", Progress: 1.0,
		})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	err = s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		if err := repos.Progress.DeleteByUser(ctx, tx, "u1"); err != nil {
			return err
		}
		if err := repos.Mastery.DeleteByUser(ctx, tx, "u1"); err != nil {
			return err
		}
		if err := repos.Review.DeleteByUser(ctx, tx, "u1"); err != nil {
			return err
		}
		return repos.Badges.DeleteByUser(ctx, tx, "u1")
	})
	if err != nil {
		t.Fatalf("delete by user: %v", err)
	}

	err = s.WithReadTx(ctx, func(ctx context.Context, tx *Tx) error {
		rows, err := repos.Progress.ListByUser(ctx, tx, "u1")
		if err != nil {
			return err
		}
		if len(rows) != 0 {
			t.Errorf("expected u1 progress cleared, got %d rows", len(rows))
		}

		other, err := repos.Progress.ListByUser(ctx, tx, "u2")
		if err != nil {
			return err
		}
		if len(other) != 1 {
			t.Errorf("expected u2 progress untouched, got %d rows", len(other))
		}

		mastery, err := repos.Mastery.ListByUser(ctx, tx, "u1")
		if err != nil {
			return err
		}
		if len(mastery) != 0 {
			t.Errorf("expected u1 mastery cleared, got %d rows", len(mastery))
		}

		review, err := repos.Review.Get(ctx, tx, "u1", "n1")
		if err != nil {
			return err
		}
		if review != nil {
			t.Errorf("expected u1 review item cleared, got %+v", review)
		}

		badges, err := repos.Badges.ListByUser(ctx, tx, "u1")
		if err != nil {
			return err
		}
		if len(badges) != 0 {
			t.Errorf("expected u1 badge progress cleared, got %d rows", len(badges))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}
