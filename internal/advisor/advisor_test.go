package advisor

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/brightloop/ideaforge/internal/config"
	"github.com/brightloop/ideaforge/internal/resilience"
	"github.com/brightloop/ideaforge/pkg/anthropic"
	"github.com/brightloop/ideaforge/pkg/perplexity"
)

// stubClient is a scripted anthropic.Client: call i returns errs[i] if set,
// otherwise responses[i], otherwise an empty object response.
type stubClient struct {
	mu        sync.Mutex
	requests  []anthropic.MessageRequest
	responses []*anthropic.MessageResponse
	errs      []error
}

func (s *stubClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return textResponse("{}"), nil
}

func (s *stubClient) CreateBatch(context.Context, anthropic.BatchRequest) (*anthropic.BatchResponse, error) {
	panic("not scripted")
}

func (s *stubClient) GetBatch(context.Context, string) (*anthropic.BatchResponse, error) {
	panic("not scripted")
}

func (s *stubClient) GetBatchResults(context.Context, string) (anthropic.BatchResultIterator, error) {
	panic("not scripted")
}

func (s *stubClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubClient) request(i int) anthropic.MessageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:    "msg_test",
		Model: "claude-sonnet-4-5-20250929",
		Content: []anthropic.ContentBlock{
			{Type: "text", Text: text},
		},
		StopReason: "end_turn",
	}
}

// stubResearch is a scripted perplexity.Client.
type stubResearch struct {
	result *perplexity.SearchResult
	err    error
	query  string
}

func (s *stubResearch) ChatCompletion(context.Context, perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	panic("not scripted")
}

func (s *stubResearch) Search(_ context.Context, query string) (*perplexity.SearchResult, error) {
	s.query = query
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	cfg.Anthropic.CreativeModel = "claude-sonnet-4-5-20250929"
	cfg.Advisor.RequestTimeoutSecs = 5
	cfg.Advisor.ResearchTimeoutSecs = 5
	cfg.Advisor.MaxRetries = 2
	cfg.Advisor.MaxRounds = 8
	return cfg
}

// newTestAdvisor wires an advisor with a fast retry policy so retry tests
// do not sleep.
func newTestAdvisor(client anthropic.Client, research perplexity.Client, retries int) *Advisor {
	cfg := testConfig()
	cfg.Advisor.MaxRetries = retries
	a, err := New(client, research, cfg)
	if err != nil {
		panic(err)
	}
	a.retry = resilience.Policy{
		MaxAttempts:    retries + 1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
	return a
}

// apiError fabricates a provider error carrying an HTTP status.
func apiError(status int) error {
	return &sdk.Error{
		StatusCode: status,
		Request: &http.Request{
			Method: "POST",
			URL:    &url.URL{Scheme: "https", Host: "api.anthropic.com", Path: "/v1/messages"},
		},
		Response: &http.Response{StatusCode: status},
	}
}
