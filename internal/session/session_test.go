package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightloop/ideaforge/internal/ledger"
	"github.com/brightloop/ideaforge/internal/model"
)

// scriptedEnhancer returns canned results in order, optionally blocking on
// a gate channel to simulate a slow upstream call.
type scriptedEnhancer struct {
	mu      sync.Mutex
	results []model.EnhanceResult
	errs    []error
	gate    chan struct{}
	calls   int
}

func (e *scriptedEnhancer) next(ctx context.Context) (model.EnhanceResult, error) {
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return model.EnhanceResult{}, ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.calls
	e.calls++
	if i < len(e.errs) && e.errs[i] != nil {
		return model.EnhanceResult{}, e.errs[i]
	}
	if i < len(e.results) {
		return e.results[i], nil
	}
	return model.EnhanceResult{Message: "more questions"}, nil
}

func (e *scriptedEnhancer) Analyze(ctx context.Context, _ string) (model.EnhanceResult, error) {
	return e.next(ctx)
}

func (e *scriptedEnhancer) Continue(ctx context.Context, _ string, _ model.Transcript) (model.EnhanceResult, error) {
	return e.next(ctx)
}

func (e *scriptedEnhancer) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// fakeQuota counts checks and records; either can be scripted to fail.
type fakeQuota struct {
	mu        sync.Mutex
	checkErr  error
	recordErr error
	checks    int
	records   int
}

func (q *fakeQuota) Check(_ context.Context, _ string, _ model.UsageKind) (ledger.Status, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.checks++
	return ledger.Status{}, q.checkErr
}

func (q *fakeQuota) Record(_ context.Context, _ string, _ model.UsageKind) (*model.UsageRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records++
	return &model.UsageRecord{}, q.recordErr
}

func (q *fakeQuota) recorded() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.records
}

func continuing(msg string) model.EnhanceResult {
	return model.EnhanceResult{Message: msg}
}

func done(artifact string) model.EnhanceResult {
	return model.EnhanceResult{Done: true, EnhancedPrompt: artifact}
}

func TestFullConversation(t *testing.T) {
	enhancer := &scriptedEnhancer{results: []model.EnhanceResult{
		continuing("1. **Sharing**: Public or private?"),
		done("# RecipeBox\n\n## Overview\n..."),
	}}
	quota := &fakeQuota{}
	s := New("subject-1", enhancer, quota, 8)

	assert.Equal(t, StateIdle, s.State())

	res, err := s.Start(context.Background(), "A recipe box app")
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.Equal(t, StateAwaitingUserInput, s.State())

	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, model.RoleAssistant, transcript[0].Role)

	res, err = s.Submit(context.Background(), "Private with share links")
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, StateTerminal, s.State())

	artifact, err := s.Artifact()
	require.NoError(t, err)
	assert.Contains(t, artifact, "# RecipeBox")

	// Usage recorded exactly once, on the verified Done.
	assert.Equal(t, 1, quota.recorded())

	s.Close()
	assert.Equal(t, StateClosed, s.State())
	assert.Empty(t, s.Transcript())
}

func TestStart_QuotaDeniedBeforeModelCall(t *testing.T) {
	enhancer := &scriptedEnhancer{}
	quota := &fakeQuota{checkErr: ledger.ErrQuotaExceeded}
	s := New("subject-1", enhancer, quota, 8)

	_, err := s.Start(context.Background(), "A recipe box app")
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrQuotaExceeded)
	assert.Equal(t, 0, enhancer.callCount())
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmit_BeforeStart(t *testing.T) {
	s := New("subject-1", &scriptedEnhancer{}, &fakeQuota{}, 8)

	_, err := s.Submit(context.Background(), "answer")
	assert.ErrorIs(t, err, ErrBadState)
}

func TestSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	enhancer := &scriptedEnhancer{
		gate:    gate,
		results: []model.EnhanceResult{continuing("questions")},
	}
	quota := &fakeQuota{}
	s := New("subject-1", enhancer, quota, 8)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background(), "A recipe box app")
		errCh <- err
	}()

	// Wait for the in-flight request to take hold.
	require.Eventually(t, func() bool {
		return s.State() == StateAnalyzing
	}, time.Second, time.Millisecond)

	_, err := s.Submit(context.Background(), "too soon")
	assert.ErrorIs(t, err, ErrBusy)

	close(gate)
	require.NoError(t, <-errCh)
	assert.Equal(t, StateAwaitingUserInput, s.State())
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	gate := make(chan struct{})
	enhancer := &scriptedEnhancer{
		gate:    gate,
		results: []model.EnhanceResult{done("# App")},
	}
	quota := &fakeQuota{}
	s := New("subject-1", enhancer, quota, 8)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background(), "A recipe box app")
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return s.State() == StateAnalyzing
	}, time.Second, time.Millisecond)

	s.Close()
	close(gate)

	err := <-errCh
	assert.ErrorIs(t, err, ErrClosed)
	// The discarded Done must not spend quota.
	assert.Equal(t, 0, quota.recorded())
}

func TestRoundLimit(t *testing.T) {
	enhancer := &scriptedEnhancer{} // always asks more questions
	quota := &fakeQuota{}
	s := New("subject-1", enhancer, quota, 2)

	_, err := s.Start(context.Background(), "A recipe box app")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = s.Submit(context.Background(), "answer")
		require.NoError(t, err)
	}

	_, err = s.Submit(context.Background(), "answer")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoundLimit)
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 0, quota.recorded())
}

func TestFailedAnalyzeReturnsToIdle(t *testing.T) {
	enhancer := &scriptedEnhancer{errs: []error{eris.New("upstream down")}}
	quota := &fakeQuota{}
	s := New("subject-1", enhancer, quota, 8)

	_, err := s.Start(context.Background(), "A recipe box app")
	require.Error(t, err)
	assert.Equal(t, StateIdle, s.State())

	// A retry from idle is allowed.
	enhancer.mu.Lock()
	enhancer.errs = nil
	enhancer.results = []model.EnhanceResult{continuing("questions")}
	enhancer.calls = 0
	enhancer.mu.Unlock()

	_, err = s.Start(context.Background(), "A recipe box app")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingUserInput, s.State())
}

func TestRecordFailureDoesNotFailResult(t *testing.T) {
	enhancer := &scriptedEnhancer{results: []model.EnhanceResult{done("# App")}}
	quota := &fakeQuota{recordErr: eris.New("ledger down")}
	s := New("subject-1", enhancer, quota, 8)

	res, err := s.Start(context.Background(), "A recipe box app")
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, StateTerminal, s.State())
}
