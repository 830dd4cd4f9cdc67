package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import the entire persisted state",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write the entire persisted state to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		if err := e.ExportSnapshot(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Exported snapshot to %s\n", args[0])
		return nil
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Replace the entire persisted state from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		if err := e.ImportSnapshot(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Imported snapshot from %s\n", args[0])
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
}
