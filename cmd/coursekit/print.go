package cmd

import (
	"fmt"
	"sort"

	"github.com/coursekit/engine/internal/engine"
)

// printAward renders an Award the same plain-text way every graded
// command surfaces its result.
func printAward(a *engine.Award) {
	fmt.Printf("  +%d XP (total %d, level %d)\n", a.XPEarned, a.TotalXP, a.Level)
	if a.LeveledUp {
		fmt.Printf("  Level up! Now level %d\n", a.Level)
	}
	fmt.Printf("  Streak: %d\n", a.StreakLength)
	if len(a.MasteryDeltas) > 0 {
		skills := make([]string, 0, len(a.MasteryDeltas))
		for id := range a.MasteryDeltas {
			skills = append(skills, id)
		}
		sort.Strings(skills)
		fmt.Println("  Mastery:")
		for _, id := range skills {
			fmt.Printf("    %-20s %.2f\n", id, a.MasteryDeltas[id])
		}
	}
	for _, b := range a.NewlyEarnedBadges {
		fmt.Printf("  Badge earned: %s\n", b)
	}
}
