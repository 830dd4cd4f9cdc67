package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lectureCmd = &cobra.Command{
	Use:   "lecture",
	Short: "Work with lecture nodes",
}

var lectureCompleteCmd = &cobra.Command{
	Use:   "complete <user-id> <node-id>",
	Short: "Mark a lecture completed and collect its award",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeSpentMs, _ := cmd.Flags().GetInt64("time-spent-ms")

		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		award, err := e.CompleteLecture(cmd.Context(), args[0], args[1], timeSpentMs)
		if err != nil {
			return err
		}
		printAward(award)
		return nil
	},
}

func init() {
	lectureCompleteCmd.Flags().Int64("time-spent-ms", 0, "Milliseconds spent on the lecture")
	lectureCmd.AddCommand(lectureCompleteCmd)
}
