package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/pkg/anthropic"
)

// GenerateName produces a short app name for a purpose description.
func (a *Advisor) GenerateName(ctx context.Context, purpose string) (string, error) {
	if strings.TrimSpace(purpose) == "" {
		return "", eris.Wrap(ErrInvalidInput, "advisor: purpose is required")
	}

	req := anthropic.MessageRequest{
		Model:       a.creativeModel,
		MaxTokens:   maxTokensName,
		System:      []anthropic.SystemBlock{{Text: a.prompts.Name}},
		Temperature: temp(0.9),
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: "Generate a catchy, trendy app name for an app that: " + purpose,
		}},
	}

	resp, err := a.call(ctx, "generate_name", req)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(resp.Text())
	if name == "" {
		return "", eris.Wrap(ErrMalformedResponse, "advisor: empty name")
	}
	return strings.Trim(name, `"'`), nil
}

// GenerateIdea produces a complete structured app idea. With empty
// userResponses it generates a random idea; otherwise the idea is
// personalized to the responses (conversational mode).
func (a *Advisor) GenerateIdea(ctx context.Context, userResponses string) (*model.Idea, error) {
	var userMessage string
	if strings.TrimSpace(userResponses) != "" {
		userMessage = fmt.Sprintf("Based on these user responses, generate a personalized app idea that matches their interests and needs:\n\n%s\n\nProvide a simple, achievable app idea in the specified JSON format.", userResponses)
	} else {
		userMessage = "Generate a random simple app idea that would be fun or useful to build. Make it creative but achievable for beginners. Provide it in the specified JSON format."
	}

	req := anthropic.MessageRequest{
		Model:       a.creativeModel,
		MaxTokens:   maxTokensIdea,
		System:      []anthropic.SystemBlock{{Text: a.prompts.Idea}},
		Temperature: temp(0.8),
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: userMessage,
		}},
	}

	return callParsed(ctx, a, "generate_idea", req, parseIdea)
}

// GeneratePrompt turns a full idea form into a single comprehensive
// builder prompt.
func (a *Advisor) GeneratePrompt(ctx context.Context, idea model.Idea) (string, error) {
	if !idea.HasContent() {
		return "", eris.Wrap(ErrInvalidInput, "advisor: at least app name or purpose is required")
	}

	userMessage := fmt.Sprintf(`Please create a comprehensive Bolt.new prompt for the following app idea:

%s

Remember:
- DO NOT include any image generation requests
- Use Unsplash or placeholder images for any visual needs
- Focus on creating a functional, production-ready web application
- Be specific and comprehensive about all features and interactions`, idea.Brief())

	req := anthropic.MessageRequest{
		Model:       a.creativeModel,
		MaxTokens:   maxTokensPrompt,
		System:      []anthropic.SystemBlock{{Text: a.prompts.BuildPrompt}},
		Temperature: temp(0.7),
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: userMessage,
		}},
	}

	resp, err := a.call(ctx, "generate_prompt", req)
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(resp.Text())
	if prompt == "" {
		return "", eris.Wrap(ErrMalformedResponse, "advisor: empty prompt")
	}
	return prompt, nil
}
