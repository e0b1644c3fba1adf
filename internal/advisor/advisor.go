// Package advisor is the model-backed core of the service: prompt
// enhancement, idea validation against live web research, and the
// name/idea/prompt generators. It owns the error taxonomy for upstream
// calls and never trusts model output without parse-and-validate.
package advisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/config"
	"github.com/brightloop/ideaforge/internal/resilience"
	"github.com/brightloop/ideaforge/pkg/anthropic"
	"github.com/brightloop/ideaforge/pkg/perplexity"
)

// Output token ceilings per operation, sized to the largest expected
// response for each.
const (
	maxTokensEnhance  = 6000
	maxTokensValidate = 3000
	maxTokensName     = 50
	maxTokensIdea     = 1000
	maxTokensPrompt   = 2000
)

// Advisor executes model-backed operations with bounded retries and a
// circuit breaker around the provider. It is stateless and safe for
// concurrent use.
type Advisor struct {
	client   anthropic.Client
	research perplexity.Client

	scoringModel  string
	creativeModel string

	requestTimeout  time.Duration
	researchTimeout time.Duration
	retry           resilience.Policy
	breaker         *resilience.Breaker

	prompts Prompts
}

// New builds an advisor from configuration. The research client may be nil;
// validation then proceeds without web grounding.
func New(client anthropic.Client, research perplexity.Client, cfg config.Config) (*Advisor, error) {
	prompts, err := LoadPromptPack(cfg.Advisor.PromptPack)
	if err != nil {
		return nil, err
	}

	requestTimeout := time.Duration(cfg.Advisor.RequestTimeoutSecs) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 90 * time.Second
	}
	researchTimeout := time.Duration(cfg.Advisor.ResearchTimeoutSecs) * time.Second
	if researchTimeout <= 0 {
		researchTimeout = 45 * time.Second
	}

	return &Advisor{
		client:          client,
		research:        research,
		scoringModel:    cfg.Anthropic.Model,
		creativeModel:   cfg.Anthropic.CreativeModel,
		requestTimeout:  requestTimeout,
		researchTimeout: researchTimeout,
		retry: resilience.DefaultPolicy().
			WithRetries(cfg.Advisor.MaxRetries),
		breaker: resilience.NewBreaker("anthropic", resilience.BreakerConfig{
			ShouldTrip: resilience.IsTransient,
		}),
		prompts: prompts,
	}, nil
}

// call runs a single message request through the breaker with the advisor's
// retry policy, classifying upstream errors into the taxonomy and logging
// token cost per completed call.
func (a *Advisor) call(ctx context.Context, operation string, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	p := a.retry
	p.ShouldRetry = retryable

	return resilience.Retry(ctx, p, operation, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
		defer cancel()

		resp, err := resilience.Guard(ctx, a.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return a.client.CreateMessage(ctx, req)
		})
		if err != nil {
			return nil, classifyUpstream(err)
		}

		resp.Usage.LogCost(req.Model, operation)
		return resp, nil
	})
}

// callParsed is call plus a parse step; a malformed response counts as a
// failed attempt so the retry policy covers unparseable output too.
func callParsed[T any](ctx context.Context, a *Advisor, operation string, req anthropic.MessageRequest, parse func(text string) (T, error)) (T, error) {
	p := a.retry
	p.ShouldRetry = retryable

	return resilience.Retry(ctx, p, operation, func(ctx context.Context) (T, error) {
		var zero T

		callCtx, cancel := context.WithTimeout(ctx, a.requestTimeout)
		defer cancel()

		resp, err := resilience.Guard(callCtx, a.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return a.client.CreateMessage(ctx, req)
		})
		if err != nil {
			return zero, classifyUpstream(err)
		}

		resp.Usage.LogCost(req.Model, operation)

		out, err := parse(resp.Text())
		if err != nil {
			zap.L().Warn("discarding malformed model response",
				zap.String("operation", operation),
				zap.Error(err))
			return zero, err
		}
		return out, nil
	})
}

func temp(v float64) *float64 {
	return &v
}
