package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brightloop/ideaforge/internal/advisor"
	"github.com/brightloop/ideaforge/internal/export"
	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/pkg/anthropic"
)

var (
	batchSubject string
	batchFile    string
	batchXLSX    string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Validate a CSV of app ideas in bulk",
	Long: "Validates every idea in a CSV file. Small inputs run concurrently " +
		"against the live endpoint with per-idea web research; larger inputs go " +
		"through the Messages Batches API with a cache-warming primer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		ideas, err := readIdeaCSV(batchFile)
		if err != nil {
			return err
		}
		if len(ideas) == 0 {
			return eris.New("batch: no ideas found in input")
		}

		status, err := env.Ledger.Check(ctx, batchSubject, model.UsageValidation)
		if err != nil {
			return err
		}
		if status.Remaining < len(ideas) {
			return eris.Errorf("batch: %d ideas requested but only %d validations remain today", len(ideas), status.Remaining)
		}

		for i := range ideas {
			if err := env.Store.SaveIdea(ctx, &ideas[i]); err != nil {
				return eris.Wrap(err, "batch: save idea")
			}
		}

		var cards map[string]*model.Scorecard
		if len(ideas) < cfg.Anthropic.SmallBatchThreshold {
			cards, err = validateConcurrently(ctx, env, ideas)
		} else {
			cards, err = validateViaBatchAPI(ctx, env, ideas)
		}
		if err != nil {
			return err
		}

		if _, err := env.Store.PutScorecards(ctx, cards); err != nil {
			zap.L().Warn("failed to cache batch scorecards", zap.Error(err))
		}
		for range cards {
			if _, recErr := env.Ledger.Record(ctx, batchSubject, model.UsageValidation); recErr != nil {
				zap.L().Error("failed to record validation usage", zap.Error(recErr))
				break
			}
		}

		printBatchSummary(ideas, cards)

		if batchXLSX != "" {
			entries := make([]export.Entry, 0, len(cards))
			for _, idea := range ideas {
				if card, ok := cards[idea.ID]; ok {
					entries = append(entries, export.Entry{Idea: idea, Card: *card})
				}
			}
			if err := export.WriteWorkbook(batchXLSX, entries); err != nil {
				return err
			}
			fmt.Printf("\nWorkbook written to %s\n", batchXLSX)
		}

		if len(cards) < len(ideas) {
			return eris.Errorf("batch: %d of %d ideas failed validation", len(ideas)-len(cards), len(ideas))
		}
		return nil
	},
}

// validateConcurrently runs each idea through the live validation path,
// research included, bounded by the configured concurrency.
func validateConcurrently(ctx context.Context, env *appEnv, ideas []model.Idea) (map[string]*model.Scorecard, error) {
	var mu sync.Mutex
	cards := make(map[string]*model.Scorecard, len(ideas))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.MaxConcurrent)

	for _, idea := range ideas {
		idea := idea
		g.Go(func() error {
			card, err := env.Advisor.Validate(ctx, idea)
			if err != nil {
				zap.L().Error("idea failed validation",
					zap.String("idea_id", idea.ID),
					zap.String("name", idea.Name),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			cards[idea.ID] = card
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

// validateViaBatchAPI submits the ideas through the Messages Batches API.
// Research runs sequentially up front so every batch item carries its own
// grounding context; a single primer request warms the prompt cache before
// the batch lands.
func validateViaBatchAPI(ctx context.Context, env *appEnv, ideas []model.Idea) (map[string]*model.Scorecard, error) {
	items := make([]anthropic.BatchRequestItem, 0, len(ideas))
	for _, idea := range ideas {
		research := env.Advisor.Research(ctx, idea)
		items = append(items, anthropic.BatchRequestItem{
			CustomID: idea.ID,
			Params:   env.Advisor.ValidationRequest(idea, research),
		})
	}

	if primer, err := anthropic.WarmCache(ctx, env.Client, items[0].Params); err != nil {
		zap.L().Warn("cache warm failed, submitting cold", zap.Error(err))
	} else {
		primer.Usage.LogCost(cfg.Anthropic.Model, "batch_warm")
	}

	cards := make(map[string]*model.Scorecard, len(ideas))
	for start := 0; start < len(items); start += cfg.Anthropic.MaxBatchSize {
		end := start + cfg.Anthropic.MaxBatchSize
		if end > len(items) {
			end = len(items)
		}

		batch, err := env.Client.CreateBatch(ctx, anthropic.BatchRequest{Requests: items[start:end]})
		if err != nil {
			return nil, eris.Wrap(err, "batch: create")
		}
		zap.L().Info("batch submitted",
			zap.String("batch_id", batch.ID),
			zap.Int("items", end-start))

		if _, err := anthropic.PollBatch(ctx, env.Client, batch.ID); err != nil {
			return nil, err
		}

		iter, err := env.Client.GetBatchResults(ctx, batch.ID)
		if err != nil {
			return nil, eris.Wrap(err, "batch: fetch results")
		}
		outcome, err := anthropic.CollectBatchResults(iter)
		if err != nil {
			return nil, err
		}

		for ideaID, resp := range outcome.Succeeded {
			card, parseErr := advisor.ParseScorecard(resp.Text())
			if parseErr != nil {
				zap.L().Warn("discarding malformed batch scorecard",
					zap.String("idea_id", ideaID),
					zap.Error(parseErr))
				continue
			}
			cards[ideaID] = card
		}
	}
	return cards, nil
}

// readIdeaCSV loads ideas from a header-driven CSV. Recognized columns match
// the idea form's JSON field names.
func readIdeaCSV(path string) ([]model.Idea, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var ideas []model.Idea
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read csv row")
		}
		idea := model.Idea{
			Name:           field(record, "name"),
			Purpose:        field(record, "purpose"),
			TargetAudience: field(record, "target_audience"),
			MainFeatures:   field(record, "main_features"),
			DesignNotes:    field(record, "design_notes"),
			Monetization:   field(record, "monetization"),
		}
		if !idea.HasContent() {
			continue
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

func printBatchSummary(ideas []model.Idea, cards map[string]*model.Scorecard) {
	fmt.Printf("\nValidated %d of %d ideas\n\n", len(cards), len(ideas))
	for _, idea := range ideas {
		card, ok := cards[idea.ID]
		if !ok {
			fmt.Printf("  %-28s FAILED\n", ideaTitle(idea))
			continue
		}
		fmt.Printf("  %-28s %-6s %3d/100\n", ideaTitle(idea), card.Verdict, card.OverallScore)
	}
}

func ideaTitle(idea model.Idea) string {
	if idea.Name != "" {
		return idea.Name
	}
	return "Untitled App"
}

func init() {
	batchCmd.Flags().StringVar(&batchSubject, "subject", "cli", "subject identity for quota accounting")
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "CSV file of ideas (required)")
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "write scorecards to an xlsx workbook")
	_ = batchCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(batchCmd)
}
