package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate names, ideas, and build prompts",
}

var generateNameCmd = &cobra.Command{
	Use:   "name <purpose>",
	Short: "Suggest an app name for a one-line purpose",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "advisor")
		if err != nil {
			return err
		}
		defer env.Close()

		name, err := env.Advisor.GenerateName(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	},
}

var generateIdeaResponses []string

var generateIdeaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Generate a complete app idea form",
	Long:  "Generates a full idea form. With no flags the idea is random; pass --answer for each preference gathered from the user to steer it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "advisor")
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := env.Advisor.GenerateIdea(ctx, strings.Join(generateIdeaResponses, "\n"))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(idea, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var generatePromptFile string

var generatePromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Turn an idea form into a builder-ready prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "advisor")
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := ideaFromInput()
		if err != nil {
			return err
		}

		prompt, err := env.Advisor.GeneratePrompt(ctx, idea)
		if err != nil {
			return err
		}

		if generatePromptFile != "" {
			if err := os.WriteFile(generatePromptFile, []byte(prompt+"\n"), 0o644); err != nil {
				return err
			}
			fmt.Printf("Prompt written to %s\n", generatePromptFile)
			return nil
		}
		fmt.Println(prompt)
		return nil
	},
}

func init() {
	generateIdeaCmd.Flags().StringArrayVar(&generateIdeaResponses, "answer", nil, "user preference answer, repeatable")

	generatePromptCmd.Flags().StringVarP(&generatePromptFile, "out", "o", "", "write the prompt to a file")
	generatePromptCmd.Flags().StringVarP(&validateFile, "file", "f", "", "JSON file with the idea form")
	generatePromptCmd.Flags().StringVar(&ideaName, "name", "", "app name")
	generatePromptCmd.Flags().StringVar(&ideaPurpose, "purpose", "", "what the app does")
	generatePromptCmd.Flags().StringVar(&ideaAudience, "audience", "", "target audience")
	generatePromptCmd.Flags().StringVar(&ideaFeatures, "features", "", "main features, newline separated")
	generatePromptCmd.Flags().StringVar(&ideaDesignNotes, "design", "", "design notes")
	generatePromptCmd.Flags().StringVar(&ideaMonetization, "monetization", "", "monetization strategy")

	generateCmd.AddCommand(generateNameCmd, generateIdeaCmd, generatePromptCmd)
	rootCmd.AddCommand(generateCmd)
}
