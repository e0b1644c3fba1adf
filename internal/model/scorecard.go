package model

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Verdict is the overall recommendation for a validated idea.
type Verdict string

const (
	VerdictGo    Verdict = "GO"
	VerdictMaybe Verdict = "MAYBE"
	VerdictPivot Verdict = "PIVOT"
)

// Sub-score weights and verdict thresholds for the overall score derivation.
const (
	WeightMarketNeed   = 0.30
	WeightCompetition  = 0.20
	WeightMonetization = 0.30
	WeightFeasibility  = 0.20

	ThresholdGo    = 70
	ThresholdMaybe = 50

	// PivotCutoff is the overall score below which pivot suggestions are
	// required in a scorecard.
	PivotCutoff = 60
)

// ScoreDetail is one named sub-score with its justification.
type ScoreDetail struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// SubScores holds the four weighted dimensions of a validation.
type SubScores struct {
	MarketNeed   ScoreDetail `json:"marketNeed"`
	Competition  ScoreDetail `json:"competition"`
	Monetization ScoreDetail `json:"monetization"`
	Feasibility  ScoreDetail `json:"feasibility"`
}

// Competitor is a real product identified by the grounding research.
type Competitor struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Pricing     string `json:"pricing"`
	Weakness    string `json:"weakness"`
	Description string `json:"description"`
}

// Scorecard is the terminal artifact of an idea validation. It is produced
// atomically by a single model call and immutable once returned; callers may
// cache it keyed by the originating idea (latest overwrites).
type Scorecard struct {
	OverallScore     int          `json:"overallScore"`
	Verdict          Verdict      `json:"verdict"`
	Scores           SubScores    `json:"scores"`
	Competitors      []Competitor `json:"competitors"`
	CommunitySignals []string     `json:"redditSignals"`
	MarketTrends     []string     `json:"marketTrends"`
	SearchInsights   string       `json:"searchInsights"`
	YourEdge         string       `json:"yourEdge"`
	BiggestRisk      string       `json:"biggestRisk"`
	PivotSuggestions []string     `json:"pivotSuggestions"`
	QuickWin         string       `json:"quickWin"`
	GeneratedAt      time.Time    `json:"generated_at,omitempty"`
}

// DeriveOverall computes the overall score from the four sub-scores:
// round(10 * (marketNeed*0.30 + competition*0.20 + monetization*0.30 +
// feasibility*0.20)).
func DeriveOverall(s SubScores) int {
	weighted := s.MarketNeed.Score*WeightMarketNeed +
		s.Competition.Score*WeightCompetition +
		s.Monetization.Score*WeightMonetization +
		s.Feasibility.Score*WeightFeasibility
	return int(math.Round(weighted * 10))
}

// VerdictFor maps an overall score onto a verdict: GO at 70 and above,
// MAYBE in [50,70), PIVOT below 50.
func VerdictFor(overall int) Verdict {
	switch {
	case overall >= ThresholdGo:
		return VerdictGo
	case overall >= ThresholdMaybe:
		return VerdictMaybe
	default:
		return VerdictPivot
	}
}

// Recompute re-derives the overall score and verdict from the sub-scores,
// overwriting whatever the model claimed. The arithmetic invariants are
// enforced here rather than trusted from upstream output.
func (c *Scorecard) Recompute() {
	c.OverallScore = DeriveOverall(c.Scores)
	c.Verdict = VerdictFor(c.OverallScore)
}

// Validate checks structural invariants after Recompute: each sub-score in
// [1,10] and pivot suggestions present exactly when the overall score falls
// below the pivot cutoff.
func (c *Scorecard) Validate() error {
	for _, d := range []struct {
		name   string
		detail ScoreDetail
	}{
		{"marketNeed", c.Scores.MarketNeed},
		{"competition", c.Scores.Competition},
		{"monetization", c.Scores.Monetization},
		{"feasibility", c.Scores.Feasibility},
	} {
		if d.detail.Score < 1 || d.detail.Score > 10 {
			return eris.Errorf("scorecard: %s score %.2f outside [1,10]", d.name, d.detail.Score)
		}
	}
	if c.OverallScore < PivotCutoff && len(c.PivotSuggestions) == 0 {
		return eris.Errorf("scorecard: overall %d requires pivot suggestions", c.OverallScore)
	}
	return nil
}

// DedupeCompetitors removes competitors whose names collapse to the same
// canonical form (unicode-normalized, case-folded), keeping first occurrence.
func (c *Scorecard) DedupeCompetitors() {
	seen := make(map[string]struct{}, len(c.Competitors))
	out := c.Competitors[:0]
	for _, comp := range c.Competitors {
		key := CanonicalName(comp.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, comp)
	}
	c.Competitors = out
}

// CanonicalName normalizes a product name for comparison: NFKC normalization,
// case folding, and whitespace collapse.
func CanonicalName(name string) string {
	folded := cases.Fold().String(norm.NFKC.String(name))
	return strings.Join(strings.Fields(folded), " ")
}
