package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the published curriculum catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load <manifest-path>",
	Short: "Validate and publish a curriculum manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		summary, err := e.LoadCatalog(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Published %q (engine %s)\n", summary.Title, summary.EngineVersion)
		fmt.Printf("  weeks: %d  nodes: %d  checkpoints: %d  skills: %d\n",
			summary.WeekCount, summary.NodeCount, summary.CheckpointCount, summary.SkillCount)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogLoadCmd)
}
