// Package session holds the conversation orchestrator for interactive
// prompt enhancement. A session walks Idle → Analyzing → AwaitingUserInput
// → Submitting → (AwaitingUserInput | Terminal) → Closed, keeping the
// transcript in memory only and discarding it on close.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/ledger"
	"github.com/brightloop/ideaforge/internal/model"
)

// State is the orchestrator state.
type State string

const (
	StateIdle              State = "idle"
	StateAnalyzing         State = "analyzing"
	StateAwaitingUserInput State = "awaiting_user_input"
	StateSubmitting        State = "submitting"
	StateTerminal          State = "terminal"
	StateClosed            State = "closed"
)

// Orchestrator-level errors.
var (
	// ErrBusy is returned when a request arrives while another is in
	// flight. Sessions are single-flight.
	ErrBusy = eris.New("session: request already in flight")

	// ErrBadState is returned when an operation does not apply to the
	// current state.
	ErrBadState = eris.New("session: operation not valid in current state")

	// ErrRoundLimit is returned when the model keeps asking questions
	// past the configured round ceiling.
	ErrRoundLimit = eris.New("session: round limit reached")

	// ErrClosed is returned for any operation on a closed session.
	ErrClosed = eris.New("session: closed")
)

// Enhancer is the model-backed collaborator. Satisfied by *advisor.Advisor.
type Enhancer interface {
	Analyze(ctx context.Context, originalPrompt string) (model.EnhanceResult, error)
	Continue(ctx context.Context, originalPrompt string, transcript model.Transcript) (model.EnhanceResult, error)
}

// Quota gates session starts and records completed enhancements.
// Satisfied by *ledger.Ledger.
type Quota interface {
	Check(ctx context.Context, subject string, kind model.UsageKind) (ledger.Status, error)
	Record(ctx context.Context, subject string, kind model.UsageKind) (*model.UsageRecord, error)
}

// Session is one enhancement conversation. All methods are safe for
// concurrent use; requests are single-flight per session.
type Session struct {
	ID      string
	subject string

	enhancer  Enhancer
	quota     Quota
	maxRounds int

	mu             sync.Mutex
	state          State
	inFlight       bool
	originalPrompt string
	transcript     model.Transcript
	rounds         int
	artifact       string
	recorded       bool
}

// New creates an idle session for a subject.
func New(subject string, enhancer Enhancer, quota Quota, maxRounds int) *Session {
	if maxRounds < 1 {
		maxRounds = 8
	}
	return &Session{
		ID:        uuid.NewString(),
		subject:   subject,
		enhancer:  enhancer,
		quota:     quota,
		maxRounds: maxRounds,
		state:     StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the transcript so far.
func (s *Session) Transcript() model.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.Transcript, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Artifact returns the enhanced prompt once the session is terminal.
func (s *Session) Artifact() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTerminal {
		return "", eris.Wrap(ErrBadState, "session: no artifact before terminal state")
	}
	return s.artifact, nil
}

// Start runs the analyze phase. The quota is checked before any model call;
// a subject over quota gets an error without spending tokens. On success
// the session is awaiting the user's answers (or, if the model finalized
// immediately, terminal).
func (s *Session) Start(ctx context.Context, originalPrompt string) (model.EnhanceResult, error) {
	if err := s.begin(StateIdle, StateAnalyzing, func() {
		s.originalPrompt = originalPrompt
	}); err != nil {
		return model.EnhanceResult{}, err
	}

	if _, err := s.quota.Check(ctx, s.subject, model.UsageEnhancement); err != nil {
		s.settle(StateIdle, func() {})
		return model.EnhanceResult{}, err
	}

	res, err := s.enhancer.Analyze(ctx, originalPrompt)
	return s.finish(res, err)
}

// Submit sends the user's answer and runs a continue phase. Exceeding the
// round ceiling closes the loop with ErrRoundLimit instead of another model
// call.
func (s *Session) Submit(ctx context.Context, answer string) (model.EnhanceResult, error) {
	var prompt string
	var transcript model.Transcript
	if err := s.begin(StateAwaitingUserInput, StateSubmitting, func() {
		s.transcript = s.transcript.Append(model.RoleUser, answer)
		s.rounds++
		prompt = s.originalPrompt
		transcript = make(model.Transcript, len(s.transcript))
		copy(transcript, s.transcript)
	}); err != nil {
		return model.EnhanceResult{}, err
	}

	if s.roundsExceeded() {
		// The model never finalized; discard the session rather than
		// letting it loop forever.
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
		s.Close()
		return model.EnhanceResult{}, eris.Wrapf(ErrRoundLimit, "session: %d rounds", s.maxRounds)
	}

	res, err := s.enhancer.Continue(ctx, prompt, transcript)
	return s.finish(res, err)
}

// Close discards the session and its transcript. Any in-flight result is
// dropped when it lands. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.transcript = nil
	s.originalPrompt = ""
	s.artifact = ""
}

// begin transitions from→to under single-flight, running prepare while the
// lock is held.
func (s *Session) begin(from, to State, prepare func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrClosed
	}
	if s.inFlight {
		return ErrBusy
	}
	if s.state != from {
		return eris.Wrapf(ErrBadState, "session: state %s", s.state)
	}

	s.inFlight = true
	s.state = to
	prepare()
	return nil
}

// finish lands a model result. Results arriving after Close are discarded.
// A validated Done records usage exactly once and goes terminal; a
// continuing result appends the assistant turn and awaits the next answer.
func (s *Session) finish(res model.EnhanceResult, err error) (model.EnhanceResult, error) {
	if err != nil {
		s.settle(StateAwaitingUserInput, func() {
			// A failed analyze leaves nothing to await; fall back to idle.
			if len(s.transcript) == 0 && s.rounds == 0 {
				s.state = StateIdle
				return
			}
			// Drop the unanswered user turn so a retried submit keeps
			// the transcript alternating.
			if s.transcript.LastRole() == model.RoleUser {
				s.transcript = s.transcript[:len(s.transcript)-1]
				s.rounds--
			}
		})
		return model.EnhanceResult{}, err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		zap.L().Debug("discarding result for closed session", zap.String("session", s.ID))
		return model.EnhanceResult{}, ErrClosed
	}

	s.inFlight = false
	if res.Done {
		s.state = StateTerminal
		s.artifact = res.EnhancedPrompt
		shouldRecord := !s.recorded
		s.recorded = true
		s.mu.Unlock()

		if shouldRecord {
			if _, recErr := s.quota.Record(context.Background(), s.subject, model.UsageEnhancement); recErr != nil {
				zap.L().Error("failed to record enhancement usage",
					zap.String("session", s.ID),
					zap.String("subject", s.subject),
					zap.Error(recErr))
			}
		}
		return res, nil
	}

	s.state = StateAwaitingUserInput
	s.transcript = s.transcript.Append(model.RoleAssistant, res.Message)
	s.mu.Unlock()
	return res, nil
}

// settle clears the in-flight flag and moves to the given state unless the
// session was closed meanwhile.
func (s *Session) settle(to State, adjust func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.state == StateClosed {
		return
	}
	s.state = to
	adjust()
}

// roundsExceeded reports whether the just-incremented round count passed
// the ceiling.
func (s *Session) roundsExceeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds > s.maxRounds
}
