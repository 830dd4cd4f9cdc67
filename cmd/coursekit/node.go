package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Work with curriculum nodes",
}

var nodeStartCmd = &cobra.Command{
	Use:   "start <user-id> <node-id>",
	Short: "Start an available node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		if err := e.StartNode(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Started node %s\n", args[1])
		return nil
	},
}

func init() {
	nodeCmd.AddCommand(nodeStartCmd)
}
