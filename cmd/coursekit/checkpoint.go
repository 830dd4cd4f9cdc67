package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Work with multi-artifact checkpoints",
}

var checkpointSubmitCmd = &cobra.Command{
	Use:   "submit <user-id> <checkpoint-id>",
	Short: "Submit every declared artifact for a checkpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringSlice("artifact")
		artifacts, err := loadArtifactFiles(raw)
		if err != nil {
			return err
		}

		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		result, err := e.SubmitCheckpoint(cmd.Context(), args[0], args[1], artifacts)
		if err != nil {
			return err
		}
		fmt.Printf("Overall score: %d (passing: %v)\n", result.OverallScore, result.Passing)
		for kind, v := range result.PerKind {
			fmt.Printf("  %-10s %d  %s\n", kind, v.TotalScore, v.Feedback)
		}
		if result.Passing {
			printAward(&result.Award)
		}
		return nil
	},
}

// loadArtifactFiles parses "kind=path" pairs and reads each file's
// content.
func loadArtifactFiles(pairs []string) (map[string]string, error) {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		kind, path, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --artifact %q, want kind=path", p)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", path, err)
		}
		m[kind] = string(content)
	}
	return m, nil
}

func init() {
	checkpointSubmitCmd.Flags().StringSlice("artifact", nil, "kind=path, repeatable")
	checkpointCmd.AddCommand(checkpointSubmitCmd)
}
