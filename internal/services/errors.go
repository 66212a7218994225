package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Handlers map them to status codes with errors.Is.
var (
	ErrValidation = errors.New("input validation failed") // Generic validation error
	// ErrInvalidProvider wraps ErrValidation, so an unknown provider is reported as a bad request.
	ErrInvalidProvider      = fmt.Errorf("%w: invalid model provider", ErrValidation)
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationConflict = errors.New("conversation was modified by another request")
	ErrUpstream             = errors.New("model provider request failed")
	ErrPersistence          = errors.New("failed to save conversation")
)
