package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/ledger"
	"github.com/brightloop/ideaforge/internal/model"
	"github.com/brightloop/ideaforge/internal/store"
)

// advisorAPI is the slice of the advisor the handlers use. Satisfied by
// *advisor.Advisor.
type advisorAPI interface {
	Analyze(ctx context.Context, originalPrompt string) (model.EnhanceResult, error)
	Continue(ctx context.Context, originalPrompt string, transcript model.Transcript) (model.EnhanceResult, error)
	Validate(ctx context.Context, idea model.Idea) (*model.Scorecard, error)
	GenerateName(ctx context.Context, purpose string) (string, error)
	GenerateIdea(ctx context.Context, userResponses string) (*model.Idea, error)
	GeneratePrompt(ctx context.Context, idea model.Idea) (string, error)
}

// quotaAPI is the slice of the ledger the handlers use.
type quotaAPI interface {
	Check(ctx context.Context, subject string, kind model.UsageKind) (ledger.Status, error)
	Record(ctx context.Context, subject string, kind model.UsageKind) (*model.UsageRecord, error)
	StatusAll(ctx context.Context, subject string) ([]ledger.Status, error)
}

type api struct {
	advisor advisorAPI
	quota   quotaAPI
	store   store.Store
}

// subjectFrom reads the caller identity header. Auth mechanics are out of
// scope; callers without the header share one anonymous bucket.
func subjectFrom(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get("X-Subject-ID")); s != "" {
		return s
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ideaRequest is the intake form shared by validate and generate/prompt.
type ideaRequest struct {
	Name           string `json:"name"`
	Purpose        string `json:"purpose"`
	TargetAudience string `json:"target_audience"`
	MainFeatures   string `json:"main_features"`
	DesignNotes    string `json:"design_notes"`
	Monetization   string `json:"monetization"`
}

func (r ideaRequest) idea() model.Idea {
	return model.Idea{
		Name:           r.Name,
		Purpose:        r.Purpose,
		TargetAudience: r.TargetAudience,
		MainFeatures:   r.MainFeatures,
		DesignNotes:    r.DesignNotes,
		Monetization:   r.Monetization,
	}
}

func (a *api) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OriginalPrompt string       `json:"originalPrompt"`
		Phase          string       `json:"phase"`
		Messages       []model.Turn `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.OriginalPrompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Original prompt is required"})
		return
	}

	subject := subjectFrom(r)
	ctx := r.Context()

	var res model.EnhanceResult
	var err error
	switch req.Phase {
	case "", "analyze":
		// Quota gates the first round trip of a conversation.
		if _, err = a.quota.Check(ctx, subject, model.UsageEnhancement); err != nil {
			writeError(w, err)
			return
		}
		res, err = a.advisor.Analyze(ctx, req.OriginalPrompt)
	case "continue":
		res, err = a.advisor.Continue(ctx, req.OriginalPrompt, model.Transcript(req.Messages))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phase must be analyze or continue"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	// Usage is spent only on a verified terminal artifact. The record is
	// detached from the request context so a client disconnect after the
	// model call cannot skip it.
	if res.Done {
		if _, recErr := a.quota.Record(context.WithoutCancel(ctx), subject, model.UsageEnhancement); recErr != nil {
			zap.L().Error("failed to record enhancement usage",
				zap.String("subject", subject),
				zap.Error(recErr))
		}
	}

	writeJSON(w, http.StatusOK, res)
}

func (a *api) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	idea := req.idea()
	if !idea.HasContent() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "At least app name or purpose is required"})
		return
	}

	subject := subjectFrom(r)
	ctx := r.Context()

	if _, err := a.quota.Check(ctx, subject, model.UsageValidation); err != nil {
		writeError(w, err)
		return
	}

	card, err := a.advisor.Validate(ctx, idea)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, recErr := a.quota.Record(context.WithoutCancel(ctx), subject, model.UsageValidation); recErr != nil {
		zap.L().Error("failed to record validation usage",
			zap.String("subject", subject),
			zap.Error(recErr))
	}

	// Cache the scorecard; the latest validation for an idea wins.
	if saveErr := a.store.SaveIdea(ctx, &idea); saveErr != nil {
		zap.L().Warn("failed to save validated idea", zap.Error(saveErr))
	} else if putErr := a.store.PutScorecard(ctx, idea.ID, card); putErr != nil {
		zap.L().Warn("failed to cache scorecard", zap.String("idea", idea.ID), zap.Error(putErr))
	}

	writeJSON(w, http.StatusOK, struct {
		IdeaID string `json:"ideaId,omitempty"`
		*model.Scorecard
	}{IdeaID: idea.ID, Scorecard: card})
}

func (a *api) handleGenerateName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	name, err := a.advisor.GenerateName(r.Context(), req.Purpose)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (a *api) handleGenerateIdea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserResponses string `json:"userResponses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	idea, err := a.advisor.GenerateIdea(r.Context(), req.UserResponses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Idea{"idea": idea})
}

func (a *api) handleGeneratePrompt(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	prompt, err := a.advisor.GeneratePrompt(r.Context(), req.idea())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (a *api) handleUsage(w http.ResponseWriter, r *http.Request) {
	subject := strings.TrimSpace(chi.URLParam(r, "subject"))
	if subject == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subject is required"})
		return
	}

	statuses, err := a.quota.StatusAll(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subject": subject,
		"usage":   statuses,
	})
}
