package advisor

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/brightloop/ideaforge/internal/resilience"
	"github.com/brightloop/ideaforge/pkg/anthropic"
)

// Sentinel errors for the endpoint taxonomy. Callers map these to HTTP
// statuses; the CLI prints them as-is.
var (
	// ErrInvalidInput marks a request the caller can fix (empty prompt,
	// idea with neither name nor purpose).
	ErrInvalidInput = eris.New("invalid input")

	// ErrConfiguration marks a deployment problem (missing or rejected
	// API key). Never retried.
	ErrConfiguration = eris.New("provider configuration error")

	// ErrUpstreamRateLimited marks a 429 from the model provider.
	ErrUpstreamRateLimited = eris.New("upstream rate limited")

	// ErrMalformedResponse marks model output that failed parse or
	// validation. Retried a bounded number of times, never surfaced as
	// success.
	ErrMalformedResponse = eris.New("malformed model response")
)

// classifyUpstream maps a provider error into the taxonomy. Auth failures
// become configuration errors, 429 becomes a rate-limit error, and
// retryable statuses are marked transient for the retry policy.
func classifyUpstream(err error) error {
	if err == nil {
		return nil
	}

	if code, ok := anthropic.StatusCode(err); ok {
		switch {
		case code == 401 || code == 403:
			return eris.Wrapf(ErrConfiguration, "advisor: upstream returned %d: %v", code, err)
		case code == 429:
			return eris.Wrapf(ErrUpstreamRateLimited, "advisor: %v", err)
		case resilience.IsTransientHTTPStatus(code):
			return resilience.NewTransientError(err, code)
		default:
			return eris.Wrapf(err, "advisor: upstream returned %d", code)
		}
	}

	if resilience.IsTransient(err) {
		return err
	}

	return eris.Wrap(err, "advisor: upstream call")
}

// retryable reports whether a classified error is worth another attempt:
// transient network trouble, provider backpressure, or unparseable output.
// Configuration and input errors are terminal.
func retryable(err error) bool {
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	return resilience.IsTransient(err) ||
		errors.Is(err, ErrUpstreamRateLimited) ||
		errors.Is(err, ErrMalformedResponse)
}
