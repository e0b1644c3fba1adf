package advisor

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/brightloop/ideaforge/internal/model"
)

// cleanJSON strips markdown fences and extracts the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// ParseEnhanceResult parses and validates the model's tagged enhancement
// response. A parse or validation failure is a malformed-response error,
// never a false success.
func ParseEnhanceResult(text string) (model.EnhanceResult, error) {
	var res model.EnhanceResult
	if err := json.Unmarshal([]byte(cleanJSON(text)), &res); err != nil {
		return res, eris.Wrapf(ErrMalformedResponse, "advisor: parse enhance result: %v", err)
	}
	if err := res.Validate(); err != nil {
		return res, eris.Wrapf(ErrMalformedResponse, "advisor: %v", err)
	}
	return res, nil
}

// ParseScorecard parses the model's validation JSON, recomputes the overall
// score and verdict server-side, dedupes competitors, and enforces the
// scorecard invariants. The model's own overallScore and verdict are never
// trusted.
func ParseScorecard(text string) (*model.Scorecard, error) {
	var card model.Scorecard
	if err := json.Unmarshal([]byte(cleanJSON(text)), &card); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "advisor: parse scorecard: %v", err)
	}

	card.Recompute()
	card.DedupeCompetitors()

	if err := card.Validate(); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "advisor: %v", err)
	}

	// Validation time, not model time: the model's generated_at, if any,
	// is as untrusted as its overall score.
	card.GeneratedAt = time.Now().UTC()
	return &card, nil
}

// parseIdea parses a generated idea and checks every intake field is present.
func parseIdea(text string) (*model.Idea, error) {
	var idea model.Idea
	if err := json.Unmarshal([]byte(cleanJSON(text)), &idea); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "advisor: parse idea: %v", err)
	}

	missing := func(field string) error {
		return eris.Wrapf(ErrMalformedResponse, "advisor: generated idea missing %s", field)
	}
	switch {
	case strings.TrimSpace(idea.Name) == "":
		return nil, missing("name")
	case strings.TrimSpace(idea.Purpose) == "":
		return nil, missing("purpose")
	case strings.TrimSpace(idea.TargetAudience) == "":
		return nil, missing("target_audience")
	case strings.TrimSpace(idea.MainFeatures) == "":
		return nil, missing("main_features")
	case strings.TrimSpace(idea.DesignNotes) == "":
		return nil, missing("design_notes")
	case strings.TrimSpace(idea.Monetization) == "":
		return nil, missing("monetization")
	}

	return &idea, nil
}
