package badges

import (
	"context"
	"testing"
	"time"

	"github.com/coursekit/engine/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared", store.Options{})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEngineEvaluate_IdempotentUnlock(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	eng := New(s)
	now := time.Now().UTC()

	stats := UserStats{LecturesCompleted: 1}

	var firstEarned, secondEarned []Def
	err := s.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		firstEarned, err = eng.Evaluate(ctx, tx, "u1", stats, now)
		return err
	})
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	found := false
	for _, d := range firstEarned {
		if d.ID == "first_steps" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected first_steps badge on first evaluate")
	}

	err = s.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		secondEarned, err = eng.Evaluate(ctx, tx, "u1", stats, now.Add(time.Hour))
		return err
	})
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}

	for _, d := range secondEarned {
		if d.ID == "first_steps" {
			t.Fatal("badge should not be reported as newly-earned twice")
		}
	}
}

func TestEngineEvaluate_EarnedAtNeverCleared(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	eng := New(s)
	now := time.Now().UTC()
	var repos store.Repos

	err := s.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		_, err := eng.Evaluate(ctx, tx, "u1", UserStats{LecturesCompleted: 1}, now)
		return err
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// Regress stats (e.g. a reset) and re-evaluate; EarnedAt must stick.
	err = s.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		_, err := eng.Evaluate(ctx, tx, "u1", UserStats{}, now.Add(time.Hour))
		return err
	})
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}

	var progress *store.BadgeProgress
	err = s.WithReadTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		progress, err = repos.Badges.Get(ctx, tx, "u1", "first_steps")
		return err
	})
	if err != nil {
		t.Fatalf("get badge progress: %v", err)
	}
	if progress == nil || progress.EarnedAt == nil {
		t.Fatal("expected earned_at to remain set")
	}
}
