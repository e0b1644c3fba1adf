package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Notion rejects rich text content over 2000 characters per block.
const maxRichTextLen = 2000

// Report is the flattened form of a validation result, ready to publish.
type Report struct {
	IdeaName    string
	Verdict     string
	Overall     int
	MarketNeed  float64
	Competition float64
	Monetize    float64
	Feasibility float64

	YourEdge    string
	BiggestRisk string
	QuickWin    string

	Competitors      []ReportCompetitor
	CommunitySignals []string
	MarketTrends     []string
	PivotSuggestions []string
	SearchInsights   string

	ValidatedAt time.Time
}

// ReportCompetitor is one competitor line in the report body.
type ReportCompetitor struct {
	Name     string
	URL      string
	Pricing  string
	Weakness string
}

// PublishReport writes a report into the given database. If a page for the
// idea already exists its properties are refreshed in place; otherwise a new
// page is created with the full report body. Returns the page ID.
func PublishReport(ctx context.Context, c Client, dbID string, r Report) (string, error) {
	pageID, found, err := c.FindPageByTitle(ctx, dbID, r.IdeaName)
	if err != nil {
		return "", err
	}

	if found {
		_, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
			Properties: buildReportProperties(r),
		})
		if err != nil {
			return "", eris.Wrap(err, fmt.Sprintf("notion: refresh report page %s", pageID))
		}
		zap.L().Info("notion: report page refreshed",
			zap.String("idea", r.IdeaName),
			zap.String("page_id", pageID),
		)
		return pageID, nil
	}

	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: buildReportProperties(r),
		Children:   buildReportBody(r),
	})
	if err != nil {
		return "", eris.Wrap(err, "notion: create report page")
	}
	zap.L().Info("notion: report page created",
		zap.String("idea", r.IdeaName),
		zap.String("page_id", string(page.ID)),
	)
	return string(page.ID), nil
}

func buildReportProperties(r Report) notionapi.Properties {
	validated := notionapi.Date(r.ValidatedAt)
	return notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(r.IdeaName),
		},
		"Verdict": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: r.Verdict,
			},
		},
		"Score": notionapi.NumberProperty{
			Number: float64(r.Overall),
		},
		"Market Need": notionapi.NumberProperty{
			Number: r.MarketNeed,
		},
		"Competition": notionapi.NumberProperty{
			Number: r.Competition,
		},
		"Monetization": notionapi.NumberProperty{
			Number: r.Monetize,
		},
		"Feasibility": notionapi.NumberProperty{
			Number: r.Feasibility,
		},
		"Your Edge": notionapi.RichTextProperty{
			RichText: richText(truncate(r.YourEdge)),
		},
		"Biggest Risk": notionapi.RichTextProperty{
			RichText: richText(truncate(r.BiggestRisk)),
		},
		"Quick Win": notionapi.RichTextProperty{
			RichText: richText(truncate(r.QuickWin)),
		},
		"Validated": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &validated,
			},
		},
	}
}

func buildReportBody(r Report) []notionapi.Block {
	var blocks []notionapi.Block

	if len(r.Competitors) > 0 {
		blocks = append(blocks, heading("Competitors"))
		for _, comp := range r.Competitors {
			line := comp.Name
			if comp.URL != "" {
				line += " (" + comp.URL + ")"
			}
			if comp.Pricing != "" {
				line += " - " + comp.Pricing
			}
			if comp.Weakness != "" {
				line += ". Weakness: " + comp.Weakness
			}
			blocks = append(blocks, bullet(line))
		}
	}

	if len(r.CommunitySignals) > 0 {
		blocks = append(blocks, heading("Community Signals"))
		for _, s := range r.CommunitySignals {
			blocks = append(blocks, bullet(s))
		}
	}

	if len(r.MarketTrends) > 0 {
		blocks = append(blocks, heading("Market Trends"))
		for _, s := range r.MarketTrends {
			blocks = append(blocks, bullet(s))
		}
	}

	if r.SearchInsights != "" {
		blocks = append(blocks, heading("Search Insights"))
		blocks = append(blocks, paragraph(truncate(r.SearchInsights)))
	}

	if len(r.PivotSuggestions) > 0 {
		blocks = append(blocks, heading("Pivot Suggestions"))
		for _, s := range r.PivotSuggestions {
			blocks = append(blocks, bullet(s))
		}
	}

	return blocks
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: s,
			},
		},
	}
}

func heading(text string) notionapi.Block {
	return &notionapi.Heading2Block{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeHeading2,
		},
		Heading2: notionapi.Heading{
			RichText: richText(text),
		},
	}
}

func bullet(text string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeBulletedListItem,
		},
		BulletedListItem: notionapi.ListItem{
			RichText: richText(truncate(text)),
		},
	}
}

func paragraph(text string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: richText(text),
		},
	}
}

func truncate(s string) string {
	if len(s) <= maxRichTextLen {
		return s
	}
	return s[:maxRichTextLen]
}
