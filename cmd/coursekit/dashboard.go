package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <user-id>",
	Short: "Show XP, level, streak, and top skills",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		d, err := e.GetDashboard(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println("coursekit Dashboard")
		fmt.Println(strings.Repeat("-", 36))
		fmt.Printf("Level %d (%d/%d XP into level), total %d XP\n",
			d.Level, d.XPIntoLevel, d.XPForNextLevel, d.CumulativeXP)
		streakLine := fmt.Sprintf("Streak: %d days", d.StreakLength)
		if d.StreakInGrace {
			streakLine += " (grace — act today to keep it)"
		}
		fmt.Println(streakLine)

		if len(d.TopSkills) > 0 {
			fmt.Println("\nTop skills:")
			for _, s := range d.TopSkills {
				fmt.Printf("  %-24s %.2f\n", s.SkillName, s.DecayedScore)
			}
		}

		if len(d.RecentActivity) > 0 {
			fmt.Println("\nRecent activity:")
			for _, a := range d.RecentActivity {
				fmt.Printf("  %s  %s  %s\n", a.At.Format("2006-01-02 15:04"), a.Kind, a.NodeID)
			}
		}
		return nil
	},
}
