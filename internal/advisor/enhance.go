package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/pkg/anthropic"
)

// Analyze runs the first enhancement phase: the model reads the original
// prompt and asks targeted questions. The transcript is empty at this point.
func (a *Advisor) Analyze(ctx context.Context, originalPrompt string) (model.EnhanceResult, error) {
	if strings.TrimSpace(originalPrompt) == "" {
		return model.EnhanceResult{}, eris.Wrap(ErrInvalidInput, "advisor: original prompt is required")
	}

	req := anthropic.MessageRequest{
		Model:       a.creativeModel,
		MaxTokens:   maxTokensEnhance,
		System:      anthropic.CachedSystemBlocks(a.prompts.Analyze),
		Temperature: temp(0.7),
		Messages: []anthropic.Message{{
			Role: "user",
			Content: fmt.Sprintf("Here is the original app prompt I want to enhance:\n\n---\n%s\n---\n\nPlease analyze it deeply and ask me targeted questions about the most critical gaps.",
				originalPrompt),
		}},
	}

	return callParsed(ctx, a, "enhance_analyze", req, ParseEnhanceResult)
}

// Continue runs a follow-up enhancement phase: the original prompt plus the
// full transcript so far. The model either asks more questions or returns
// the terminal enhanced prompt.
func (a *Advisor) Continue(ctx context.Context, originalPrompt string, transcript model.Transcript) (model.EnhanceResult, error) {
	if strings.TrimSpace(originalPrompt) == "" {
		return model.EnhanceResult{}, eris.Wrap(ErrInvalidInput, "advisor: original prompt is required")
	}
	if len(transcript) == 0 {
		return model.EnhanceResult{}, eris.Wrap(ErrInvalidInput, "advisor: continue phase requires a transcript")
	}

	msgs := make([]anthropic.Message, 0, len(transcript)+1)
	msgs = append(msgs, anthropic.Message{
		Role:    "user",
		Content: fmt.Sprintf("Original prompt:\n\n---\n%s\n---", originalPrompt),
	})
	for _, turn := range transcript {
		msgs = append(msgs, anthropic.Message{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	req := anthropic.MessageRequest{
		Model:       a.creativeModel,
		MaxTokens:   maxTokensEnhance,
		System:      anthropic.CachedSystemBlocks(a.prompts.Continue),
		Temperature: temp(0.7),
		Messages:    msgs,
	}

	return callParsed(ctx, a, "enhance_continue", req, ParseEnhanceResult)
}
