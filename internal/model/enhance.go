package model

import "github.com/rotisserie/eris"

// EnhancePhase selects the system instruction set for an enhancement request.
type EnhancePhase string

const (
	// PhaseAnalyze is the first turn: no history, the model asks questions.
	PhaseAnalyze EnhancePhase = "analyze"
	// PhaseContinue carries the transcript: the model asks more or finalizes.
	PhaseContinue EnhancePhase = "continue"
)

// EnhanceResult is the tagged response from an enhancement call. Exactly one
// variant is populated: a Continuing result carries the next assistant
// message, a Done result carries the terminal enhanced prompt.
type EnhanceResult struct {
	Done           bool   `json:"done"`
	Message        string `json:"message,omitempty"`
	EnhancedPrompt string `json:"enhancedPrompt,omitempty"`
}

// Validate enforces that exactly one variant is populated.
func (r EnhanceResult) Validate() error {
	if r.Done {
		if r.EnhancedPrompt == "" {
			return eris.New("enhance result: done without enhanced prompt")
		}
		if r.Message != "" {
			return eris.New("enhance result: done must not carry a next message")
		}
		return nil
	}
	if r.Message == "" {
		return eris.New("enhance result: continuing without a next message")
	}
	if r.EnhancedPrompt != "" {
		return eris.New("enhance result: continuing must not carry an artifact")
	}
	return nil
}
