// Package review implements the Review Scheduler (C4): a modified SM-2
// algorithm over per-(user, quiz) ease/interval/repetition state. The
// load/record/due-query shape is grounded in the teacher's
// internal/spacedrep/scheduler.go, but state lives in internal/store
// instead of an in-memory map, since coursekit's store is already the
// durable source of truth rather than a snapshot loaded once at startup.
package review

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coursekit/engine/internal/store"
)

const (
	initialEase = 2.5
	minEase     = 1.3
)

// QualityFromScorePercent maps a quiz score percentage to the SM-2
// quality scale 0..5, per spec.md section 4.4.
func QualityFromScorePercent(scorePct float64) int {
	switch {
	case scorePct >= 100:
		return 5
	case scorePct >= 90:
		return 4
	case scorePct >= 80:
		return 3
	case scorePct >= 70:
		return 2
	case scorePct >= 50:
		return 1
	default:
		return 0
	}
}

// NextState computes the review item's next ease/interval/repetitions
// given the previous state and a quality score. This is a pure function;
// Scheduler.Record wraps it with persistence.
func NextState(prev store.ReviewItem, quality int) store.ReviewItem {
	next := prev

	if quality < 3 {
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		next.Repetitions = prev.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(prev.IntervalDays) * prev.EaseFactor))
		}
		delta := 0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02)
		next.EaseFactor = prev.EaseFactor + delta
		if next.EaseFactor < minEase {
			next.EaseFactor = minEase
		}
	}

	return next
}

// Scheduler wraps the store's ReviewRepo with the SM-2 transition
// function and due-item ordering.
type Scheduler struct {
	store *store.Store
}

// New builds a Scheduler backed by s.
func New(s *store.Store) *Scheduler {
	return &Scheduler{store: s}
}

// EnsureInitialized returns the review item for (userID, quizNodeID),
// creating it with SM-2's initial state (ease=2.5, interval=1, reps=0) if
// it doesn't exist yet. Must be called within an existing write
// transaction.
func (sc *Scheduler) EnsureInitialized(ctx context.Context, tx *store.Tx, userID, quizNodeID string, today time.Time) (*store.ReviewItem, error) {
	var repos store.Repos
	item, err := repos.Review.Get(ctx, tx, userID, quizNodeID)
	if err != nil {
		return nil, fmt.Errorf("get review item: %w", err)
	}
	if item != nil {
		return item, nil
	}
	item = &store.ReviewItem{
		UserID:       userID,
		QuizNodeID:   quizNodeID,
		NextDueDate:  today.Format("2006-01-02"),
		EaseFactor:   initialEase,
		IntervalDays: 1,
		Repetitions:  0,
	}
	if err := repos.Review.Upsert(ctx, tx, item); err != nil {
		return nil, fmt.Errorf("create review item: %w", err)
	}
	return item, nil
}

// Record applies a quiz score to the review item's SM-2 state and
// persists the result. Must be called within an existing write
// transaction.
func (sc *Scheduler) Record(ctx context.Context, tx *store.Tx, userID, quizNodeID string, scorePct float64, now time.Time) (*store.ReviewItem, error) {
	var repos store.Repos
	prev, err := repos.Review.Get(ctx, tx, userID, quizNodeID)
	if err != nil {
		return nil, fmt.Errorf("get review item: %w", err)
	}
	if prev == nil {
		base := store.ReviewItem{
			UserID: userID, QuizNodeID: quizNodeID,
			EaseFactor: initialEase, IntervalDays: 1, Repetitions: 0,
		}
		prev = &base
	}

	quality := QualityFromScorePercent(scorePct)
	next := NextState(*prev, quality)
	next.NextDueDate = now.AddDate(0, 0, next.IntervalDays).Format("2006-01-02")
	reviewedAt := now
	next.LastReviewedAt = &reviewedAt

	if err := repos.Review.Upsert(ctx, tx, &next); err != nil {
		return nil, fmt.Errorf("upsert review item: %w", err)
	}
	return &next, nil
}

// DueToday returns a user's review items due on or before today, ordered
// by (next-due asc, ease asc) per spec.md section 4.4.
func (sc *Scheduler) DueToday(ctx context.Context, tx *store.Tx, userID string, today time.Time) ([]store.ReviewItem, error) {
	var repos store.Repos
	items, err := repos.Review.DueBefore(ctx, tx, userID, today.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("due before: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].NextDueDate != items[j].NextDueDate {
			return items[i].NextDueDate < items[j].NextDueDate
		}
		return items[i].EaseFactor < items[j].EaseFactor
	})
	return items, nil
}
