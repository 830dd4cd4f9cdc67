package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work with the spaced-repetition review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List reviews due today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		items, err := e.ListDueReviews(cmd.Context(), args[0], time.Now())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing due.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("  %-20s due %s  ease %.2f  interval %dd\n", it.QuizNodeID, it.NextDueDate, it.EaseFactor, it.IntervalDays)
		}
		return nil
	},
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit <user-id> <quiz-node-id> <score-pct>",
	Short: "Record a review outcome for a previously completed quiz",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorePct, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("parse score_pct %q: %w", args[2], err)
		}

		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		item, err := e.SubmitReview(cmd.Context(), args[0], args[1], scorePct)
		if err != nil {
			return err
		}
		fmt.Printf("Next due %s (ease %.2f, interval %dd, reps %d)\n",
			item.NextDueDate, item.EaseFactor, item.IntervalDays, item.Repetitions)
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewSubmitCmd)
}
