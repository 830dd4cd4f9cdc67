package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <user-id>",
	Short: "Show the suggested session plan for today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dateStr, _ := cmd.Flags().GetString("date")
		date := time.Now()
		if dateStr != "" {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("parse --date %q: %w", dateStr, err)
			}
			date = d
		}

		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		activities, err := e.GetPlan(cmd.Context(), args[0], date)
		if err != nil {
			return err
		}
		if len(activities) == 0 {
			fmt.Println("Nothing to do today.")
			return nil
		}
		for _, a := range activities {
			fmt.Printf("  [%s] %s (%s)\n", a.Kind, a.Title, a.NodeID)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().String("date", "", "Plan date (YYYY-MM-DD), defaults to today")
}
