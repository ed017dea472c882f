package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for the rate-shopping core.
var (
	// ErrUnknownProvider indicates a provider id that is not in the
	// static catalog. Always a caller bug, never retried.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoProvidersConfigured indicates an orchestration attempt with
	// zero usable providers. No network calls are made.
	ErrNoProvidersConfigured = errors.New("no shipping providers configured")

	// ErrCredentialNotFound indicates a provider has no stored credential.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrInvalidCredential indicates the provider rejected the API key.
	ErrInvalidCredential = errors.New("invalid credential")
)

// CallError wraps a failure from a specific provider's label-generation
// or credential-validation call. Under the strict-fail policy the first
// one observed aborts the whole orchestration.
type CallError struct {
	Provider   string
	Op         string
	StatusCode int
	Cause      error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (HTTP %d): %v", e.Provider, e.Op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *CallError) Unwrap() error {
	return e.Cause
}

// NewCallError creates a CallError for the given provider and operation.
func NewCallError(providerID, op string, cause error) *CallError {
	return &CallError{Provider: providerID, Op: op, Cause: cause}
}

// WithStatusCode records the HTTP status that produced the error.
func (e *CallError) WithStatusCode(code int) *CallError {
	e.StatusCode = code
	return e
}

// ValidationFailedError carries the field-keyed messages of a request
// that failed validation. Surfaced directly to the caller; no network
// call is made.
type ValidationFailedError struct {
	Fields ValidationErrors
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("shipment validation failed: %d invalid field(s)", len(e.Fields))
}
