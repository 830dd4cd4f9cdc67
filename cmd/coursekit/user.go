package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the learner profile",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new learner profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		u, err := e.CreateUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", u.DisplayName, u.ID)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
}
