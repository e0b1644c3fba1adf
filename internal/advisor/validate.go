package advisor

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/pkg/anthropic"
)

// degradedResearchNote stands in for web research when the grounding call
// fails or no research client is configured. The analyst prompt still gets
// the section; the note tells the model to fall back to training data.
const degradedResearchNote = "Web research unavailable. Proceeding with training data analysis."

// Validate scores an idea against live web research. Research is
// best-effort: a failed grounding call degrades to a note rather than
// failing the validation. Scoring runs at temperature 0; the returned
// scorecard has its overall and verdict recomputed server-side.
func (a *Advisor) Validate(ctx context.Context, idea model.Idea) (*model.Scorecard, error) {
	if !idea.HasContent() {
		return nil, eris.Wrap(ErrInvalidInput, "advisor: at least app name or purpose is required")
	}

	research := a.runResearch(ctx, idea)

	req := a.ValidationRequest(idea, research)
	return callParsed(ctx, a, "validate", req, ParseScorecard)
}

// ValidationRequest builds the deterministic scoring request for an idea
// with the given research context. Exposed so bulk validation can assemble
// batch items from the same request shape.
func (a *Advisor) ValidationRequest(idea model.Idea, research string) anthropic.MessageRequest {
	if research == "" {
		research = degradedResearchNote
	}

	userMessage := fmt.Sprintf(`## LIVE WEB RESEARCH
The following research was gathered from the web specifically for this analysis. Use it to ground your scores and findings in real, current data:

%s

---

## APP IDEA TO VALIDATE

%s

Using the web research above as your primary source of truth, provide a thorough, honest analysis with specific competitor names, real pain points, and current market trends.`,
		research, idea.Brief())

	return anthropic.MessageRequest{
		Model:       a.scoringModel,
		MaxTokens:   maxTokensValidate,
		System:      anthropic.CachedSystemBlocks(a.prompts.Validate),
		Temperature: temp(0),
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: userMessage,
		}},
	}
}

// Research gathers grounding research for one idea so callers assembling
// batch validation requests can pair each idea with its own context.
func (a *Advisor) Research(ctx context.Context, idea model.Idea) string {
	return a.runResearch(ctx, idea)
}

// runResearch gathers grounding research for an idea. Any failure returns
// the degraded note; validation must not fail because research did.
func (a *Advisor) runResearch(ctx context.Context, idea model.Idea) string {
	if a.research == nil {
		return degradedResearchNote
	}

	ctx, cancel := context.WithTimeout(ctx, a.researchTimeout)
	defer cancel()

	result, err := a.research.Search(ctx, researchQuery(idea))
	if err != nil {
		zap.L().Warn("grounding research failed, proceeding degraded",
			zap.String("idea", idea.Name),
			zap.Error(err))
		return degradedResearchNote
	}

	answer := result.Answer
	if len(result.Citations) > 0 {
		answer += "\n\nSources:\n"
		for _, c := range result.Citations {
			answer += "- " + c + "\n"
		}
	}
	return answer
}

// researchQuery renders the market-intelligence query sent to the research
// provider for one idea.
func researchQuery(idea model.Idea) string {
	return fmt.Sprintf(`Research the following app idea and provide comprehensive market intelligence:

%s

Please search the web and find:
1. TOP COMPETITORS: What are the leading existing apps/tools solving this problem? Include their names, websites, approximate pricing, user reviews, and notable weaknesses.
2. COMMUNITY PAIN POINTS: What are real users complaining about with current solutions? Look for Reddit discussions, forums, and review sites.
3. MARKET TRENDS: What are the current market trends, growth signals, and industry direction for this space? Any recent news or funding activity?
4. PRICING BENCHMARKS: What do similar apps typically charge? What are users willing to pay?
5. MARKET SIZE: Any data on the market size or total addressable market for this category?

Be specific with names, URLs, and data points. This research will be used to validate the app idea.`, idea.Summary())
}
