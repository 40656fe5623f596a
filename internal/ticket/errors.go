package ticket

import "fmt"

// ValidationError reports a missing required draft field. It is returned
// before any billed model call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ticket: required field %q is empty", e.Field)
}

// LimitReachedError reports an exhausted generation quota.
type LimitReachedError struct {
	Reason string
	Limit  int
	Usage  int
}

func (e *LimitReachedError) Error() string {
	if e.Reason != "" {
		return "ticket: " + e.Reason
	}
	return "ticket: generation limit reached"
}

// ProviderError wraps an upstream model/network failure. Transient;
// callers may retry with backoff, the orchestrators never do.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "ticket: provider: " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedResponseError reports model output that violates the response
// schema even after repair. Raw carries the original payload for
// diagnostics and is never shown to end users.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "ticket: malformed model response: " + e.Err.Error()
}
func (e *MalformedResponseError) Unwrap() error { return e.Err }

// RefinementError wraps a provider or malformed-response failure during
// refinement. The current ticket and history are untouched when it is
// returned.
type RefinementError struct {
	Err error
}

func (e *RefinementError) Error() string { return "ticket: refine: " + e.Err.Error() }
func (e *RefinementError) Unwrap() error { return e.Err }
