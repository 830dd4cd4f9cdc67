package engine

import (
	"context"
	"sort"
	"time"

	"github.com/coursekit/engine/internal/kernel"
	"github.com/coursekit/engine/internal/store"
)

const topSkillCount = 5

// GetDashboard builds the read model for a user's current standing:
// level progress, streak (with the grace notice, a derived read signal
// rather than persisted state), top skills by decayed mastery, and
// recent activity.
func (e *Engine) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	start := time.Now()
	var dash *Dashboard
	err := e.withReadTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var repos store.Repos
		user, err := repos.Users.Get(ctx, tx, userID)
		if err != nil {
			return err
		}

		now := time.Now()
		thisLevelFloor := int64(0)
		if user.Level > 1 {
			thisLevelFloor = kernel.LevelThreshold(user.Level)
		}
		nextLevelCeil := kernel.LevelThreshold(user.Level + 1)

		inGrace := false
		if user.LastStreakDate != nil {
			daysSince := daysBetween(*user.LastStreakDate, localDate(now))
			if daysSince >= 1 && daysSince <= e.cfg.Streak.GraceDays {
				inGrace = true
			}
		}

		decayParams := kernel.MasteryDecayParams{
			GraceDays: float64(e.cfg.Streak.GraceDays),
			Rate:      e.cfg.Mastery.DecayRate,
			Floor:     e.cfg.Mastery.Floor,
		}
		masteryRows, err := repos.Mastery.ListByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		cat := e.catalog.Current()
		topSkills := make([]SkillMastery, 0, len(masteryRows))
		for _, m := range masteryRows {
			elapsedDays := now.Sub(m.LastUpdatedAt).Hours() / 24
			decayed := kernel.DecayMastery(m.Score, elapsedDays, decayParams)
			name := m.SkillID
			if cat != nil {
				if sk := cat.SkillByID(m.SkillID); sk != nil {
					name = sk.Name
				}
			}
			topSkills = append(topSkills, SkillMastery{SkillID: m.SkillID, SkillName: name, RawScore: m.Score, DecayedScore: decayed})
		}
		sort.Slice(topSkills, func(i, j int) bool { return topSkills[i].DecayedScore > topSkills[j].DecayedScore })
		if len(topSkills) > topSkillCount {
			topSkills = topSkills[:topSkillCount]
		}

		recent, err := recentActivity(ctx, tx, repos, userID)
		if err != nil {
			return err
		}

		dash = &Dashboard{
			CumulativeXP:   user.CumulativeXP,
			Level:          user.Level,
			XPIntoLevel:    user.CumulativeXP - thisLevelFloor,
			XPForNextLevel: nextLevelCeil - thisLevelFloor,
			StreakLength:   user.StreakLength,
			StreakInGrace:  inGrace,
			TopSkills:      topSkills,
			RecentActivity: recent,
		}
		return nil
	})
	e.commandEvent("get_dashboard", start, err)
	if err != nil {
		return nil, err
	}
	return dash, nil
}

const recentActivityLimit = 10

// recentActivity merges completed node progress rows into one
// chronological feed, most recent first.
func recentActivity(ctx context.Context, tx *store.Tx, repos store.Repos, userID string) ([]RecentActivity, error) {
	rows, err := repos.Progress.ListByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	var items []RecentActivity
	for _, r := range rows {
		if r.Status != "Completed" || r.CompletedAt == nil {
			continue
		}
		items = append(items, RecentActivity{Kind: r.Status, NodeID: r.NodeID, At: *r.CompletedAt})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].At.After(items[j].At) })
	if len(items) > recentActivityLimit {
		items = items[:recentActivityLimit]
	}
	return items, nil
}
