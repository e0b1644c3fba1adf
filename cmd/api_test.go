package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloop/ideaforge/internal/advisor"
	"github.com/brightloop/ideaforge/internal/ledger"
	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/internal/resilience"
	"github.com/brightloop/ideaforge/internal/store"
)

type stubAdvisor struct {
	enhanceRes model.EnhanceResult
	card       *model.Scorecard
	name       string
	idea       *model.Idea
	prompt     string
	err        error

	// hook runs before each result is returned, e.g. to cancel the
	// request context mid-call.
	hook func()

	analyzeCalls  int
	continueCalls int
}

func (s *stubAdvisor) fire() {
	if s.hook != nil {
		s.hook()
	}
}

func (s *stubAdvisor) Analyze(_ context.Context, _ string) (model.EnhanceResult, error) {
	s.analyzeCalls++
	s.fire()
	return s.enhanceRes, s.err
}

func (s *stubAdvisor) Continue(_ context.Context, _ string, _ model.Transcript) (model.EnhanceResult, error) {
	s.continueCalls++
	s.fire()
	return s.enhanceRes, s.err
}

func (s *stubAdvisor) Validate(_ context.Context, _ model.Idea) (*model.Scorecard, error) {
	s.fire()
	return s.card, s.err
}

func (s *stubAdvisor) GenerateName(_ context.Context, _ string) (string, error) {
	return s.name, s.err
}

func (s *stubAdvisor) GenerateIdea(_ context.Context, _ string) (*model.Idea, error) {
	return s.idea, s.err
}

func (s *stubAdvisor) GeneratePrompt(_ context.Context, _ model.Idea) (string, error) {
	return s.prompt, s.err
}

type stubQuota struct {
	checkErr  error
	recordErr error
	statuses  []ledger.Status
	statusErr error

	checks  int
	records int

	// recordCtxErr captures the state of the context Record ran under.
	recordCtxErr error
}

func (q *stubQuota) Check(_ context.Context, _ string, kind model.UsageKind) (ledger.Status, error) {
	q.checks++
	if q.checkErr != nil {
		return ledger.Status{}, q.checkErr
	}
	return ledger.Status{Kind: kind, Limit: 10, Remaining: 5}, nil
}

func (q *stubQuota) Record(ctx context.Context, subject string, kind model.UsageKind) (*model.UsageRecord, error) {
	q.records++
	q.recordCtxErr = ctx.Err()
	if q.recordErr != nil {
		return nil, q.recordErr
	}
	return &model.UsageRecord{ID: "rec-1", Subject: subject, Kind: kind, CreatedAt: time.Now().UTC()}, nil
}

func (q *stubQuota) StatusAll(_ context.Context, _ string) ([]ledger.Status, error) {
	return q.statuses, q.statusErr
}

func newTestAPI(t *testing.T, adv *stubAdvisor, quota *stubQuota) *api {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "ideas.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	return &api{advisor: adv, quota: quota, store: st}
}

func newTestServer(t *testing.T, adv *stubAdvisor, quota *stubQuota) (*httptest.Server, store.Store) {
	t.Helper()

	a := newTestAPI(t, adv, quota)
	srv := httptest.NewServer(newRouter(a, nil))
	t.Cleanup(srv.Close)
	return srv, a.store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubAdvisor{}, &stubQuota{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])
}

func TestEnhance_AnalyzeChecksQuota(t *testing.T) {
	adv := &stubAdvisor{enhanceRes: model.EnhanceResult{Done: false, Message: "What platforms do you target?"}}
	quota := &stubQuota{}
	srv, _ := newTestServer(t, adv, quota)

	resp := postJSON(t, srv.URL+"/api/enhance", map[string]any{
		"originalPrompt": "Build me a recipe app",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["done"])
	assert.Equal(t, "What platforms do you target?", body["message"])
	assert.Equal(t, 1, quota.checks)
	assert.Equal(t, 0, quota.records)
	assert.Equal(t, 1, adv.analyzeCalls)
}

func TestEnhance_QuotaDenied(t *testing.T) {
	adv := &stubAdvisor{}
	quota := &stubQuota{checkErr: eris.Wrap(ledger.ErrQuotaExceeded, "ledger: enhancement quota reached")}
	srv, _ := newTestServer(t, adv, quota)

	resp := postJSON(t, srv.URL+"/api/enhance", map[string]any{
		"originalPrompt": "Build me a recipe app",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 0, adv.analyzeCalls)
}

func TestEnhance_ContinueDoneRecordsUsage(t *testing.T) {
	adv := &stubAdvisor{enhanceRes: model.EnhanceResult{Done: true, EnhancedPrompt: "# RecipeBox\n\nBuild a recipe app."}}
	quota := &stubQuota{}
	srv, _ := newTestServer(t, adv, quota)

	resp := postJSON(t, srv.URL+"/api/enhance", map[string]any{
		"originalPrompt": "Build me a recipe app",
		"phase":          "continue",
		"messages": []model.Turn{
			{Role: model.RoleAssistant, Content: "Who is it for?"},
			{Role: model.RoleUser, Content: "Home cooks"},
		},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["done"])
	assert.Equal(t, 0, quota.checks)
	assert.Equal(t, 1, quota.records)
	assert.Equal(t, 1, adv.continueCalls)
}

func TestEnhance_RecordSurvivesClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adv := &stubAdvisor{
		enhanceRes: model.EnhanceResult{Done: true, EnhancedPrompt: "# RecipeBox"},
		hook:       cancel,
	}
	quota := &stubQuota{}
	a := newTestAPI(t, adv, quota)

	raw, err := json.Marshal(map[string]any{
		"originalPrompt": "Build me a recipe app",
		"phase":          "continue",
		"messages": []model.Turn{
			{Role: model.RoleAssistant, Content: "Who is it for?"},
			{Role: model.RoleUser, Content: "Home cooks"},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/enhance", bytes.NewReader(raw)).WithContext(ctx)
	a.handleEnhance(httptest.NewRecorder(), req)

	require.Equal(t, 1, quota.records)
	assert.NoError(t, quota.recordCtxErr)
}

func TestValidate_RecordSurvivesClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adv := &stubAdvisor{
		card: &model.Scorecard{OverallScore: 71, Verdict: model.VerdictGo},
		hook: cancel,
	}
	quota := &stubQuota{}
	a := newTestAPI(t, adv, quota)

	raw, err := json.Marshal(map[string]any{"name": "PocketChef"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/validate", bytes.NewReader(raw)).WithContext(ctx)
	a.handleValidate(httptest.NewRecorder(), req)

	require.Equal(t, 1, quota.records)
	assert.NoError(t, quota.recordCtxErr)
}

func TestEnhance_MissingPrompt(t *testing.T) {
	srv, _ := newTestServer(t, &stubAdvisor{}, &stubQuota{})

	resp := postJSON(t, srv.URL+"/api/enhance", map[string]any{"originalPrompt": "  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEnhance_UnknownPhase(t *testing.T) {
	srv, _ := newTestServer(t, &stubAdvisor{}, &stubQuota{})

	resp := postJSON(t, srv.URL+"/api/enhance", map[string]any{
		"originalPrompt": "Build me a recipe app",
		"phase":          "summarize",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidate_PersistsScorecard(t *testing.T) {
	card := &model.Scorecard{
		OverallScore: 63,
		Verdict:      model.VerdictMaybe,
		Scores: model.SubScores{
			MarketNeed:   model.ScoreDetail{Score: 7, Reason: "real need"},
			Competition:  model.ScoreDetail{Score: 4, Reason: "crowded"},
			Monetization: model.ScoreDetail{Score: 6, Reason: "subscriptions work"},
			Feasibility:  model.ScoreDetail{Score: 8, Reason: "standard stack"},
		},
		YourEdge:    "pantry-first planning",
		BiggestRisk: "incumbent moats",
		QuickWin:    "launch a waitlist",
	}
	adv := &stubAdvisor{card: card}
	quota := &stubQuota{}
	srv, st := newTestServer(t, adv, quota)

	resp := postJSON(t, srv.URL+"/api/validate", map[string]any{
		"name":    "PocketChef",
		"purpose": "Plan meals from what is already in the pantry",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 63, body["overallScore"])
	assert.Equal(t, string(model.VerdictMaybe), body["verdict"])

	ideaID, _ := body["ideaId"].(string)
	require.NotEmpty(t, ideaID)

	got, err := st.GetScorecard(context.Background(), ideaID)
	require.NoError(t, err)
	assert.Equal(t, card.OverallScore, got.OverallScore)

	assert.Equal(t, 1, quota.checks)
	assert.Equal(t, 1, quota.records)
}

func TestValidate_RequiresContent(t *testing.T) {
	quota := &stubQuota{}
	srv, _ := newTestServer(t, &stubAdvisor{}, quota)

	resp := postJSON(t, srv.URL+"/api/validate", map[string]any{"design_notes": "dark mode"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, quota.checks)
}

func TestValidate_UpstreamErrorMapsToStatus(t *testing.T) {
	adv := &stubAdvisor{err: eris.Wrap(advisor.ErrMalformedResponse, "advisor: scorecard did not parse")}
	quota := &stubQuota{}
	srv, _ := newTestServer(t, adv, quota)

	resp := postJSON(t, srv.URL+"/api/validate", map[string]any{"name": "PocketChef"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 0, quota.records)
}

func TestGenerateName(t *testing.T) {
	srv, _ := newTestServer(t, &stubAdvisor{name: "PantryPilot"}, &stubQuota{})

	resp := postJSON(t, srv.URL+"/api/generate/name", map[string]any{"purpose": "meal planning"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PantryPilot", decodeBody(t, resp)["name"])
}

func TestGenerateIdea(t *testing.T) {
	idea := &model.Idea{Name: "PantryPilot", Purpose: "Plan meals from leftovers"}
	srv, _ := newTestServer(t, &stubAdvisor{idea: idea}, &stubQuota{})

	resp := postJSON(t, srv.URL+"/api/generate/idea", map[string]any{"userResponses": "cooking, busy parents"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	got, ok := body["idea"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PantryPilot", got["name"])
}

func TestGeneratePrompt(t *testing.T) {
	srv, _ := newTestServer(t, &stubAdvisor{prompt: "Create a web app called PantryPilot."}, &stubQuota{})

	resp := postJSON(t, srv.URL+"/api/generate/prompt", map[string]any{"name": "PantryPilot"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["prompt"], "PantryPilot")
}

func TestUsageEndpoint(t *testing.T) {
	reset := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	quota := &stubQuota{statuses: []ledger.Status{
		{Kind: model.UsageEnhancement, Used: 2, Limit: 10, Remaining: 8, ResetsAt: reset},
		{Kind: model.UsageValidation, Used: 1, Limit: 5, Remaining: 4, ResetsAt: reset},
	}}
	srv, _ := newTestServer(t, &stubAdvisor{}, quota)

	resp, err := http.Get(srv.URL + "/api/usage/alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "alice", body["subject"])
	usage, ok := body["usage"].([]any)
	require.True(t, ok)
	assert.Len(t, usage, 2)
}

func TestSubjectFrom(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/enhance", nil)
	assert.Equal(t, "anonymous", subjectFrom(r))

	r.Header.Set("X-Subject-ID", "  alice  ")
	assert.Equal(t, "alice", subjectFrom(r))
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"quota", eris.Wrap(ledger.ErrQuotaExceeded, "ledger: out of validations"), http.StatusTooManyRequests},
		{"invalid input", eris.Wrap(advisor.ErrInvalidInput, "advisor: prompt required"), http.StatusBadRequest},
		{"upstream rate limit", eris.Wrap(advisor.ErrUpstreamRateLimited, "advisor: 429"), http.StatusTooManyRequests},
		{"configuration", eris.Wrap(advisor.ErrConfiguration, "advisor: bad key"), http.StatusInternalServerError},
		{"malformed", eris.Wrap(advisor.ErrMalformedResponse, "advisor: bad json"), http.StatusBadGateway},
		{"breaker open", resilience.ErrBreakerOpen, http.StatusServiceUnavailable},
		{"transient", resilience.NewTransientError(eris.New("upstream 503"), 503), http.StatusBadGateway},
		{"unknown", eris.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errorStatus(tc.err))
		})
	}
}
