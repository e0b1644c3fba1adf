package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/export"
	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/internal/store"
	"github.com/brightloop/ideaforge/pkg/notion"
)

var (
	exportID     string
	exportXLSX   string
	exportNotion bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached validation scorecards",
	Long:  "Exports saved ideas and their latest scorecards to an xlsx workbook or a Notion database. With --id only that idea is exported; otherwise every validated idea is.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if exportXLSX == "" && !exportNotion {
			return eris.New("export: nothing to do, pass --xlsx and/or --notion")
		}

		env, err := initEnv(ctx, "advisor")
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := collectEntries(ctx, env.Store, exportID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return eris.New("export: no validated ideas to export")
		}

		if exportXLSX != "" {
			if err := export.WriteWorkbook(exportXLSX, entries); err != nil {
				return err
			}
			fmt.Printf("Workbook written to %s (%d ideas)\n", exportXLSX, len(entries))
		}

		if exportNotion {
			if err := cfg.Validate("notion"); err != nil {
				return err
			}
			client := notion.NewClient(cfg.Notion.Token)
			for _, e := range entries {
				pageID, err := notion.PublishReport(ctx, client, cfg.Notion.ReportDB, export.NotionReport(e.Idea, e.Card))
				if err != nil {
					zap.L().Error("failed to publish report",
						zap.String("idea", e.Idea.Name),
						zap.Error(err))
					continue
				}
				fmt.Printf("Published %s: %s\n", ideaTitle(e.Idea), pageID)
			}
		}

		return nil
	},
}

// collectEntries pairs ideas with their cached scorecards. Ideas that were
// never validated have no scorecard and are skipped.
func collectEntries(ctx context.Context, st store.Store, ideaID string) ([]export.Entry, error) {
	var ideas []model.Idea
	if ideaID != "" {
		idea, err := st.GetIdea(ctx, ideaID)
		if err != nil {
			return nil, err
		}
		ideas = []model.Idea{*idea}
	} else {
		var err error
		ideas, err = st.ListIdeas(ctx, store.IdeaFilter{})
		if err != nil {
			return nil, err
		}
	}

	var entries []export.Entry
	for _, idea := range ideas {
		card, err := st.GetScorecard(ctx, idea.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, export.Entry{Idea: idea, Card: *card})
	}
	return entries, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportID, "id", "", "export a single idea by id")
	exportCmd.Flags().StringVar(&exportXLSX, "xlsx", "", "write scorecards to an xlsx workbook")
	exportCmd.Flags().BoolVar(&exportNotion, "notion", false, "publish reports to the configured Notion database")

	rootCmd.AddCommand(exportCmd)
}
