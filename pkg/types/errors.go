package types

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("auth error")
	ErrProvider   = errors.New("provider error")
)

// ValidationError reports input that cannot be translated, e.g. text that
// produced no segments.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthError reports a failure to obtain an access token from the provider.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// ProviderError reports a failed translate request. Batch is the zero-based
// ordinal of the batch that failed; Status is the HTTP status when known.
type ProviderError struct {
	Batch   int
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("provider batch_%d: status %d: %s", e.Batch, e.Status, msg)
	}
	return fmt.Sprintf("provider batch_%d: %s", e.Batch, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }
