package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Work with coding-challenge nodes",
}

var challengeSubmitCmd = &cobra.Command{
	Use:   "submit <user-id> <node-id> <code-file>",
	Short: "Run a challenge's submitted code in the sandbox",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("read code file %s: %w", args[2], err)
		}

		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		result, err := e.SubmitChallenge(cmd.Context(), args[0], args[1], string(code))
		if err != nil {
			return err
		}
		v := result.Verification
		fmt.Printf("Tests: %d passed, %d failed (%dms)\n", v.TestsPassed, v.TestsFailed, v.ElapsedMs)
		if v.RuntimeError != "" {
			fmt.Printf("  Runtime error: %s\n", v.RuntimeError)
		}
		if v.Success {
			printAward(&result.Award)
		}
		return nil
	},
}

func init() {
	challengeCmd.AddCommand(challengeSubmitCmd)
}
