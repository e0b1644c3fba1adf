package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brightloop/ideaforge/internal/session"
)

var (
	enhanceSubject string
	enhanceOut     string
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [prompt]",
	Short: "Interactively enhance an app prompt through guided Q&A",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "advisor")
		if err != nil {
			return err
		}
		defer env.Close()

		reader := bufio.NewReader(os.Stdin)

		prompt := ""
		if len(args) > 0 {
			prompt = args[0]
		}
		if strings.TrimSpace(prompt) == "" {
			fmt.Print("Describe your app idea: ")
			line, readErr := reader.ReadString('\n')
			if readErr != nil {
				return readErr
			}
			prompt = strings.TrimSpace(line)
		}

		s := session.New(enhanceSubject, env.Advisor, env.Ledger, cfg.Advisor.MaxRounds)
		defer s.Close()

		res, err := s.Start(ctx, prompt)
		if err != nil {
			return err
		}

		for !res.Done {
			fmt.Println()
			fmt.Println(res.Message)
			fmt.Println()
			fmt.Print("> ")

			answer, readErr := reader.ReadString('\n')
			if readErr != nil {
				return readErr
			}

			res, err = s.Submit(ctx, strings.TrimSpace(answer))
			if err != nil {
				if errors.Is(err, session.ErrRoundLimit) {
					return fmt.Errorf("the model never finalized after %d rounds; try a more specific prompt", cfg.Advisor.MaxRounds)
				}
				return err
			}
		}

		fmt.Println()
		if enhanceOut != "" {
			if writeErr := os.WriteFile(enhanceOut, []byte(res.EnhancedPrompt), 0o644); writeErr != nil {
				return writeErr
			}
			fmt.Printf("Enhanced prompt written to %s\n", enhanceOut)
		} else {
			fmt.Println(res.EnhancedPrompt)
		}

		return nil
	},
}

func init() {
	enhanceCmd.Flags().StringVar(&enhanceSubject, "subject", "cli", "subject identity for quota accounting")
	enhanceCmd.Flags().StringVarP(&enhanceOut, "out", "o", "", "write the enhanced prompt to a file")
	rootCmd.AddCommand(enhanceCmd)
}
