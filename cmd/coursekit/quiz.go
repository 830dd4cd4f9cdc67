package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Work with quiz nodes",
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit <user-id> <node-id>",
	Short: "Submit quiz answers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringSlice("answer")
		answers, err := parseKVPairs(raw)
		if err != nil {
			return err
		}

		e, closer, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer closer()

		result, err := e.SubmitQuiz(cmd.Context(), args[0], args[1], answers)
		if err != nil {
			return err
		}
		fmt.Printf("Score: %.1f%%\n", result.ScorePct)
		printAward(&result.Award)
		fmt.Printf("  Next review due %s (ease %.2f, interval %dd)\n",
			result.ReviewItem.NextDueDate, result.ReviewItem.EaseFactor, result.ReviewItem.IntervalDays)
		return nil
	},
}

// parseKVPairs parses "question_id=answer" pairs into a map.
func parseKVPairs(pairs []string) (map[string]string, error) {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --answer %q, want key=value", p)
		}
		m[k] = v
	}
	return m, nil
}

func init() {
	quizSubmitCmd.Flags().StringSlice("answer", nil, "question_id=answer, repeatable")
	quizCmd.AddCommand(quizSubmitCmd)
}
