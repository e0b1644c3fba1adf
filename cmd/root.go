package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ideaforge",
	Short: "AI app-idea brainstorming and validation",
	Long:  "Generates app names, ideas and build prompts, validates ideas against live web research, and iteratively enhances prompts through guided Q&A — with per-subject daily quotas.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
