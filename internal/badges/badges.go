// Package badges implements the Badge Engine (C5): a curated, static
// rule table evaluated against a snapshot of user stats. Unlock is
// idempotent, and only newly-earned badges are reported back to the
// caller, per spec.md section 4.5. Grounded in the teacher's
// internal/gems rarity/threshold tables (static rule data, a pure
// evaluation function) adapted from a gem-rarity ladder to a
// badge-threshold rule set.
package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/coursekit/engine/internal/store"
)

// UserStats is the read model the badge engine evaluates against.
type UserStats struct {
	CumulativeXP        int64
	Level                int
	StreakLength         int
	LecturesCompleted    int
	QuizzesCompleted     int
	ChallengesCompleted  int
	CheckpointsCompleted int
	HighestMastery       float64
	AverageMastery       float64
}

// Def is a static badge definition: an id, display name, and a
// progress function over UserStats.
type Def struct {
	ID          string
	Name        string
	Description string
	// Threshold returns the fraction of progress toward earning the
	// badge in [0,1]; 1.0 means earned.
	Threshold func(UserStats) float64
}

// Catalog is the fixed set of badge definitions coursekit ships with.
// Definitions are static data, never user data, per spec.md section 4.5.
var Catalog = []Def{
	{
		ID: "first_steps", Name: "First Steps",
		Description: "Complete your first lecture.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.LecturesCompleted), 1) },
	},
	{
		ID: "quiz_novice", Name: "Quiz Novice",
		Description: "Complete 10 quizzes.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.QuizzesCompleted), 10) },
	},
	{
		ID: "challenge_solver", Name: "Challenge Solver",
		Description: "Complete 5 coding challenges.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.ChallengesCompleted), 5) },
	},
	{
		ID: "checkpoint_graduate", Name: "Checkpoint Graduate",
		Description: "Complete your first checkpoint.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.CheckpointsCompleted), 1) },
	},
	{
		ID: "level_5", Name: "Rising Star",
		Description: "Reach level 5.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.Level), 5) },
	},
	{
		ID: "level_10", Name: "Dedicated Learner",
		Description: "Reach level 10.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.Level), 10) },
	},
	{
		ID: "streak_week", Name: "Week Streak",
		Description: "Reach a 7-day streak.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.StreakLength), 7) },
	},
	{
		ID: "streak_month", Name: "Month Streak",
		Description: "Reach a 30-day streak.",
		Threshold: func(s UserStats) float64 { return fractionOf(float64(s.StreakLength), 30) },
	},
	{
		ID: "mastery_expert", Name: "Mastery Expert",
		Description: "Reach a mastery score of 0.9 or higher in any skill.",
		Threshold: func(s UserStats) float64 { return fractionOf(s.HighestMastery, 0.9) },
	},
	{
		ID: "well_rounded", Name: "Well Rounded",
		Description: "Reach an average mastery of 0.7 across all trained skills.",
		Threshold: func(s UserStats) float64 { return fractionOf(s.AverageMastery, 0.7) },
	},
}

func fractionOf(value, threshold float64) float64 {
	if threshold <= 0 {
		return 1.0
	}
	frac := value / threshold
	if frac > 1.0 {
		frac = 1.0
	}
	if frac < 0 {
		frac = 0
	}
	return frac
}

// CurrentProgress returns the [0,1] fraction of progress toward def's
// threshold for the given stats.
func CurrentProgress(def Def, stats UserStats) float64 {
	return def.Threshold(stats)
}

// Engine evaluates the static Catalog against persisted per-user badge
// progress rows, applying the idempotent-unlock rule.
type Engine struct {
	store *store.Store
}

// New builds an Engine backed by s.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Evaluate recomputes progress for every badge definition and persists
// the result, returning only the badges that transitioned from
// unearned to earned on this call. Must be called within an existing
// write transaction.
func (e *Engine) Evaluate(ctx context.Context, tx *store.Tx, userID string, stats UserStats, now time.Time) ([]Def, error) {
	var repos store.Repos
	var newlyEarned []Def

	for _, def := range Catalog {
		progress := CurrentProgress(def, stats)

		existing, err := repos.Badges.Get(ctx, tx, userID, def.ID)
		if err != nil {
			return nil, fmt.Errorf("get badge progress %s: %w", def.ID, err)
		}

		wasEarned := existing != nil && existing.EarnedAt != nil
		row := store.BadgeProgress{UserID: userID, BadgeID: def.ID, Progress: progress}
		if wasEarned {
			row.EarnedAt = existing.EarnedAt
		} else if progress >= 1.0 {
			earnedAt := now
			row.EarnedAt = &earnedAt
			newlyEarned = append(newlyEarned, def)
		}

		if err := repos.Badges.Upsert(ctx, tx, &row); err != nil {
			return nil, fmt.Errorf("upsert badge progress %s: %w", def.ID, err)
		}
	}

	return newlyEarned, nil
}
