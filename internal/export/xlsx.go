// Package export renders validation results into shareable forms: an xlsx
// workbook and a Notion report.
package export

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/brightloop/ideaforge/internal/model"
)

// Entry pairs an idea with its validation scorecard.
type Entry struct {
	Idea model.Idea
	Card model.Scorecard
}

var scorecardHeader = []string{
	"Idea", "Verdict", "Overall", "Market Need", "Competition",
	"Monetization", "Feasibility", "Your Edge", "Biggest Risk",
	"Quick Win", "Validated At",
}

var competitorHeader = []string{
	"Idea", "Competitor", "URL", "Pricing", "Weakness", "Description",
}

// WriteWorkbook writes scorecard entries to an xlsx file with a summary
// sheet and a competitor sheet.
func WriteWorkbook(path string, entries []Entry) error {
	if len(entries) == 0 {
		return eris.New("export: no scorecards to write")
	}

	f := xlsx.NewFile()

	summary, err := f.AddSheet("Scorecards")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addStringRow(summary, scorecardHeader)

	competitors, err := f.AddSheet("Competitors")
	if err != nil {
		return eris.Wrap(err, "export: add competitor sheet")
	}
	addStringRow(competitors, competitorHeader)

	for _, e := range entries {
		row := summary.AddRow()
		row.AddCell().SetString(ideaLabel(e.Idea))
		row.AddCell().SetString(string(e.Card.Verdict))
		row.AddCell().SetInt(e.Card.OverallScore)
		row.AddCell().SetFloat(e.Card.Scores.MarketNeed.Score)
		row.AddCell().SetFloat(e.Card.Scores.Competition.Score)
		row.AddCell().SetFloat(e.Card.Scores.Monetization.Score)
		row.AddCell().SetFloat(e.Card.Scores.Feasibility.Score)
		row.AddCell().SetString(e.Card.YourEdge)
		row.AddCell().SetString(e.Card.BiggestRisk)
		row.AddCell().SetString(e.Card.QuickWin)
		if e.Card.GeneratedAt.IsZero() {
			row.AddCell().SetString("")
		} else {
			row.AddCell().SetString(e.Card.GeneratedAt.UTC().Format("2006-01-02 15:04"))
		}

		for _, comp := range e.Card.Competitors {
			crow := competitors.AddRow()
			crow.AddCell().SetString(ideaLabel(e.Idea))
			crow.AddCell().SetString(comp.Name)
			crow.AddCell().SetString(comp.URL)
			crow.AddCell().SetString(comp.Pricing)
			crow.AddCell().SetString(comp.Weakness)
			crow.AddCell().SetString(comp.Description)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func ideaLabel(idea model.Idea) string {
	if strings.TrimSpace(idea.Name) != "" {
		return idea.Name
	}
	return "Untitled App"
}
