package export

import (
	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/pkg/notion"
)

// NotionReport flattens a scorecard into the publishable report form.
func NotionReport(idea model.Idea, card model.Scorecard) notion.Report {
	competitors := make([]notion.ReportCompetitor, 0, len(card.Competitors))
	for _, c := range card.Competitors {
		competitors = append(competitors, notion.ReportCompetitor{
			Name:     c.Name,
			URL:      c.URL,
			Pricing:  c.Pricing,
			Weakness: c.Weakness,
		})
	}

	return notion.Report{
		IdeaName:    ideaLabel(idea),
		Verdict:     string(card.Verdict),
		Overall:     card.OverallScore,
		MarketNeed:  card.Scores.MarketNeed.Score,
		Competition: card.Scores.Competition.Score,
		Monetize:    card.Scores.Monetization.Score,
		Feasibility: card.Scores.Feasibility.Score,

		YourEdge:    card.YourEdge,
		BiggestRisk: card.BiggestRisk,
		QuickWin:    card.QuickWin,

		Competitors:      competitors,
		CommunitySignals: card.CommunitySignals,
		MarketTrends:     card.MarketTrends,
		PivotSuggestions: card.PivotSuggestions,
		SearchInsights:   card.SearchInsights,

		ValidatedAt: card.GeneratedAt,
	}
}
