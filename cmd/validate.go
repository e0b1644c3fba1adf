package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/export"
	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/pkg/notion"
)

var (
	validateSubject string
	validateFile    string
	validateXLSX    string
	validateNotion  bool

	ideaName         string
	ideaPurpose      string
	ideaAudience     string
	ideaFeatures     string
	ideaDesignNotes  string
	ideaMonetization string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an app idea against live web research",
	Long:  "Scores an idea on market need, competition, monetization and feasibility, grounded in web research. The idea comes from flags or a JSON file.",
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

		if _, err := env.Ledger.Check(ctx, validateSubject, model.UsageValidation); err != nil {
			return err
		}

		card, err := env.Advisor.Validate(ctx, idea)
		if err != nil {
			return err
		}

		if _, recErr := env.Ledger.Record(ctx, validateSubject, model.UsageValidation); recErr != nil {
			zap.L().Error("failed to record validation usage", zap.Error(recErr))
		}

		if saveErr := env.Store.SaveIdea(ctx, &idea); saveErr != nil {
			zap.L().Warn("failed to save idea", zap.Error(saveErr))
		} else if putErr := env.Store.PutScorecard(ctx, idea.ID, card); putErr != nil {
			zap.L().Warn("failed to cache scorecard", zap.Error(putErr))
		}

		printScorecard(idea, card)

		if validateXLSX != "" {
			if err := export.WriteWorkbook(validateXLSX, []export.Entry{{Idea: idea, Card: *card}}); err != nil {
				return err
			}
			fmt.Printf("\nWorkbook written to %s\n", validateXLSX)
		}

		if validateNotion {
			if err := cfg.Validate("notion"); err != nil {
				return err
			}
			client := notion.NewClient(cfg.Notion.Token)
			pageID, err := notion.PublishReport(ctx, client, cfg.Notion.ReportDB, export.NotionReport(idea, *card))
			if err != nil {
				return err
			}
			fmt.Printf("\nNotion report page: %s\n", pageID)
		}

		return nil
	},
}

// ideaFromInput assembles the idea from --file or the individual flags.
func ideaFromInput() (model.Idea, error) {
	var idea model.Idea
	if validateFile != "" {
		raw, err := os.ReadFile(validateFile)
		if err != nil {
			return idea, err
		}
		if err := json.Unmarshal(raw, &idea); err != nil {
			return idea, fmt.Errorf("parse %s: %w", validateFile, err)
		}
		return idea, nil
	}

	return model.Idea{
		Name:           ideaName,
		Purpose:        ideaPurpose,
		TargetAudience: ideaAudience,
		MainFeatures:   ideaFeatures,
		DesignNotes:    ideaDesignNotes,
		Monetization:   ideaMonetization,
	}, nil
}

func printScorecard(idea model.Idea, card *model.Scorecard) {
	fmt.Printf("\n%s — %s (%d/100)\n\n", idea.Name, card.Verdict, card.OverallScore)
	fmt.Printf("  Market need:   %4.1f  %s\n", card.Scores.MarketNeed.Score, card.Scores.MarketNeed.Reason)
	fmt.Printf("  Competition:   %4.1f  %s\n", card.Scores.Competition.Score, card.Scores.Competition.Reason)
	fmt.Printf("  Monetization:  %4.1f  %s\n", card.Scores.Monetization.Score, card.Scores.Monetization.Reason)
	fmt.Printf("  Feasibility:   %4.1f  %s\n", card.Scores.Feasibility.Score, card.Scores.Feasibility.Reason)

	if len(card.Competitors) > 0 {
		fmt.Println("\nCompetitors:")
		for _, c := range card.Competitors {
			fmt.Printf("  - %s (%s) %s — %s\n", c.Name, c.Pricing, c.URL, c.Weakness)
		}
	}
	if len(card.CommunitySignals) > 0 {
		fmt.Println("\nCommunity signals:")
		for _, s := range card.CommunitySignals {
			fmt.Printf("  - %s\n", s)
		}
	}
	if len(card.MarketTrends) > 0 {
		fmt.Println("\nMarket trends:")
		for _, tr := range card.MarketTrends {
			fmt.Printf("  - %s\n", tr)
		}
	}

	fmt.Printf("\nYour edge:     %s\n", card.YourEdge)
	fmt.Printf("Biggest risk:  %s\n", card.BiggestRisk)
	fmt.Printf("Quick win:     %s\n", card.QuickWin)

	if len(card.PivotSuggestions) > 0 {
		fmt.Println("\nPivot suggestions:")
		for _, p := range card.PivotSuggestions {
			fmt.Printf("  - %s\n", p)
		}
	}
}

func init() {
	validateCmd.Flags().StringVar(&validateSubject, "subject", "cli", "subject identity for quota accounting")
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "JSON file with the idea form")
	validateCmd.Flags().StringVar(&validateXLSX, "xlsx", "", "write the scorecard to an xlsx workbook")
	validateCmd.Flags().BoolVar(&validateNotion, "notion", false, "publish the report to the configured Notion database")

	validateCmd.Flags().StringVar(&ideaName, "name", "", "app name")
	validateCmd.Flags().StringVar(&ideaPurpose, "purpose", "", "what the app does")
	validateCmd.Flags().StringVar(&ideaAudience, "audience", "", "target audience")
	validateCmd.Flags().StringVar(&ideaFeatures, "features", "", "main features, newline separated")
	validateCmd.Flags().StringVar(&ideaDesignNotes, "design", "", "design notes")
	validateCmd.Flags().StringVar(&ideaMonetization, "monetization", "", "monetization strategy")

	rootCmd.AddCommand(validateCmd)
}
