package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/coursekit/engine/internal/badges"
	"github.com/coursekit/engine/internal/kernel"
	"github.com/coursekit/engine/internal/store"
)

// applyAward performs every state mutation a graded event produces —
// XP award, level recompute, streak transition, per-skill mastery
// update, and badge evaluation — inside the caller's write transaction.
// Keeping all of it in one transaction is what makes concurrent
// submit_* commands linearizable per spec.md section 5's ordering
// guarantee: two commands racing for the same user serialize on the
// store's single writer, and the second one to commit sees the first's
// XP/streak already applied.
func (e *Engine) applyAward(ctx context.Context, tx *store.Tx, userID string, kind kernel.NodeKind, difficulty kernel.Difficulty, performance float64, skillIDs []string, now time.Time) (*Award, error) {
	var repos store.Repos

	user, err := repos.Users.Get(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	today := localDate(now)
	prevStreak := kernel.StreakState{Length: user.StreakLength}
	if user.LastStreakDate != nil {
		prevStreak.HasLastDate = true
		prevStreak.LastDate = *user.LastStreakDate
	}
	daysSince := 0
	if prevStreak.HasLastDate {
		daysSince = daysBetween(prevStreak.LastDate, today)
	}
	nextStreak := kernel.UpdateStreak(prevStreak, today, daysSince)

	xp := kernel.AwardXP(kind, difficulty, nextStreak.Length, performance)
	newTotal := user.CumulativeXP + xp
	newLevel := kernel.LevelForXP(newTotal)
	leveledUp := newLevel > user.Level

	user.CumulativeXP = newTotal
	user.Level = newLevel
	user.StreakLength = nextStreak.Length
	user.LastStreakDate = &nextStreak.LastDate
	user.LastActivityAt = now
	if err := repos.Users.Update(ctx, tx, user); err != nil {
		return nil, err
	}

	decayParams := kernel.MasteryDecayParams{
		GraceDays: float64(e.cfg.Streak.GraceDays),
		Rate:      e.cfg.Mastery.DecayRate,
		Floor:     e.cfg.Mastery.Floor,
	}
	masteryDeltas := make(map[string]float64, len(skillIDs))
	for _, skillID := range skillIDs {
		existing, err := repos.Mastery.Get(ctx, tx, userID, skillID)
		if err != nil {
			return nil, fmt.Errorf("get mastery %s: %w", skillID, err)
		}
		old := 0.0
		if existing != nil {
			elapsedDays := float64(0)
			if !existing.LastUpdatedAt.IsZero() {
				elapsedDays = now.Sub(existing.LastUpdatedAt).Hours() / 24
			}
			old = kernel.DecayMastery(existing.Score, elapsedDays, decayParams)
		}
		next := kernel.UpdateMastery(old, performance)
		if err := repos.Mastery.Upsert(ctx, tx, &store.MasteryScore{
			UserID: userID, SkillID: skillID, Score: next, LastUpdatedAt: now,
		}); err != nil {
			return nil, fmt.Errorf("upsert mastery %s: %w", skillID, err)
		}
		masteryDeltas[skillID] = next
	}

	stats, err := e.computeUserStats(ctx, tx, userID, user, decayParams, now)
	if err != nil {
		return nil, fmt.Errorf("compute user stats: %w", err)
	}
	newlyEarned, err := e.badges.Evaluate(ctx, tx, userID, stats, now)
	if err != nil {
		return nil, fmt.Errorf("evaluate badges: %w", err)
	}
	badgeNames := make([]string, 0, len(newlyEarned))
	for _, b := range newlyEarned {
		badgeNames = append(badgeNames, b.Name)
	}

	return &Award{
		XPEarned:          xp,
		TotalXP:           newTotal,
		Level:             newLevel,
		LeveledUp:         leveledUp,
		StreakLength:      nextStreak.Length,
		MasteryDeltas:     masteryDeltas,
		NewlyEarnedBadges: badgeNames,
	}, nil
}

// computeUserStats builds the read model the badge engine evaluates
// against, classifying completed nodes by kind via the currently
// published catalog.
func (e *Engine) computeUserStats(ctx context.Context, tx *store.Tx, userID string, user *store.User, params kernel.MasteryDecayParams, now time.Time) (badges.UserStats, error) {
	var repos store.Repos
	stats := badges.UserStats{CumulativeXP: user.CumulativeXP, Level: user.Level, StreakLength: user.StreakLength}

	cat := e.catalog.Current()
	progressRows, err := repos.Progress.ListByUser(ctx, tx, userID)
	if err != nil {
		return stats, err
	}
	for _, p := range progressRows {
		if p.Status != "Completed" {
			continue
		}
		if cat == nil {
			continue
		}
		node := cat.NodeByID(p.NodeID)
		if node == nil {
			if cp := cat.CheckpointByID(p.NodeID); cp != nil {
				stats.CheckpointsCompleted++
			}
			continue
		}
		switch node.Kind {
		case "Lecture":
			stats.LecturesCompleted++
		case "Quiz":
			stats.QuizzesCompleted++
		case "MiniChallenge":
			stats.ChallengesCompleted++
		}
	}

	masteryRows, err := repos.Mastery.ListByUser(ctx, tx, userID)
	if err != nil {
		return stats, err
	}
	var sum float64
	for _, m := range masteryRows {
		elapsedDays := now.Sub(m.LastUpdatedAt).Hours() / 24
		decayed := kernel.DecayMastery(m.Score, elapsedDays, params)
		if decayed > stats.HighestMastery {
			stats.HighestMastery = decayed
		}
		sum += decayed
	}
	if len(masteryRows) > 0 {
		stats.AverageMastery = sum / float64(len(masteryRows))
	}
	return stats, nil
}
