package providers

import (
	"errors"
	"fmt"
)

// ErrUpstream matches every *UpstreamError via errors.Is.
var ErrUpstream = errors.New("upstream provider call failed")

// Operation names the adapter call that failed.
type Operation string

const (
	OpGenerate   Operation = "generate"
	OpListModels Operation = "list_models"
)

// UpstreamError is the single normalized failure an adapter returns.
// Error() is stable and safe to show to clients; Cause holds the raw detail for server-side logs only.
type UpstreamError struct {
	Provider string // display name, e.g. "OpenAI"
	Op       Operation
	Cause    error
}

func (e *UpstreamError) Error() string {
	if e.Op == OpListModels {
		return fmt.Sprintf("Failed to fetch %s models", e.Provider)
	}
	return fmt.Sprintf("Failed to generate response from %s", e.Provider)
}

// Is lets callers test for ErrUpstream without unwrapping to the provider payload.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func newUpstreamError(provider string, op Operation, cause error) *UpstreamError {
	return &UpstreamError{Provider: provider, Op: op, Cause: cause}
}

// statusError records a non-2xx upstream response.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}
