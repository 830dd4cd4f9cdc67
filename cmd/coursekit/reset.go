package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "Wipe progress, mastery, reviews, and badges for a user and restart at level 1",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		if err := e.ResetProgress(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Progress reset.")
		return nil
	},
}
