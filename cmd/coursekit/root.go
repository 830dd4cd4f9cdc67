package cmd

import (
	"fmt"

	"github.com/coursekit/engine/internal/config"
	"github.com/coursekit/engine/internal/engine"
	"github.com/coursekit/engine/internal/judge"
	"github.com/coursekit/engine/internal/llm"
	"github.com/coursekit/engine/internal/observability"
	"github.com/coursekit/engine/internal/sandbox"
	"github.com/coursekit/engine/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coursekit",
	Short: "Single-user learning-progression engine",
	Long:  "coursekit — local-first engine driving a curriculum of lectures, quizzes, sandboxed challenges and judged checkpoints through a gamified progression loop.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides COURSEKIT_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().String("content-root", ".", "Directory content body_path/rubric_path_per_kind entries resolve against")
	rootCmd.PersistentFlags().String("manifest", "", "Curriculum manifest path to (re)publish before running the command")

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(lectureCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then COURSEKIT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// buildEngine opens the store and wires an Engine from the resolved
// configuration. The caller must call the returned closer once done.
func buildEngine(cmd *cobra.Command) (*engine.Engine, func() error, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve database path: %w", err)
	}
	if dbFlag, _ := cmd.Flags().GetString("db"); dbFlag == "" && cfg.Store.DSN != "" {
		dbPath = cfg.Store.DSN
	}

	s, err := store.Open(dbPath, store.Options{})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	sandboxOrch := sandbox.New(sandbox.FromConfig(cfg.Sandbox))

	var judgeSvc *judge.Judge
	if cfg.Judge.Enabled {
		if llmCfg, ok := llm.DiscoverConfig(); ok {
			provider, err := llm.NewClient(cmd.Context(), llmCfg)
			if err != nil {
				fmt.Println("judge provider not configured:", err)
				fmt.Println("checkpoint grading will be unavailable.")
			} else {
				judgeSvc = judge.New(s, provider, judge.FromConfig(cfg.Judge))
			}
		} else {
			fmt.Println("no LLM provider API key found; checkpoint grading will be unavailable.")
		}
	}
	if judgeSvc == nil {
		judgeSvc = judge.New(s, llm.NewMockClient(), judge.Config{Enabled: false})
	}

	contentRoot, _ := cmd.Flags().GetString("content-root")
	obs := observability.NewRegistry()
	log := observability.NewLogger()

	e := engine.New(s, cfg, sandboxOrch, judgeSvc, contentRoot, obs, log)

	// The published catalog (C2) is in-memory, process-lifetime state;
	// a CLI invocation starts with nothing published, so re-publish it
	// from --manifest whenever the caller wants catalog-dependent
	// commands to work in the same breath.
	if manifestPath, _ := cmd.Flags().GetString("manifest"); manifestPath != "" {
		if _, err := e.LoadCatalog(cmd.Context(), manifestPath); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("load manifest: %w", err)
		}
	}

	return e, s.Close, nil
}
