package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var usageSubject string

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's quota usage for a subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "advisor")
		if err != nil {
			return err
		}
		defer env.Close()

		statuses, err := env.Ledger.StatusAll(ctx, usageSubject)
		if err != nil {
			return err
		}

		fmt.Printf("Usage for %s\n\n", usageSubject)
		for _, s := range statuses {
			fmt.Printf("  %-12s %d/%d used, %d remaining, resets %s\n",
				s.Kind, s.Used, s.Limit, s.Remaining, s.ResetsAt.Format("2006-01-02 15:04 MST"))
		}
		return nil
	},
}

func init() {
	usageCmd.Flags().StringVar(&usageSubject, "subject", "cli", "subject identity to report on")
	rootCmd.AddCommand(usageCmd)
}
