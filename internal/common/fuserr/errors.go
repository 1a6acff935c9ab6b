// Package fuserr provides standardized error handling for the fusion pipeline.
package fuserr

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// One producer exceeded the shared deadline. Recovered locally via the
	// degraded fallback path, never surfaced to the caller on its own.
	ErrCodeProducerTimeout ErrorCode = "PRODUCER_TIMEOUT"

	// One producer returned an error. Same local recovery as a timeout.
	ErrCodeProducerError ErrorCode = "PRODUCER_ERROR"

	// Both producers timed out or errored. The request fails.
	ErrCodeBothProducersFailed ErrorCode = "BOTH_PRODUCERS_FAILED"

	// A producer answered with out-of-range confidence or category.
	ErrCodeProducerBadResponse ErrorCode = "PRODUCER_BAD_RESPONSE"

	// Configuration rejected at orchestrator construction.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match on code-level sentinels.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is checks against structured errors.
var (
	ErrProducerTimeout     = &StandardError{Code: ErrCodeProducerTimeout}
	ErrProducerError       = &StandardError{Code: ErrCodeProducerError}
	ErrBothProducersFailed = &StandardError{Code: ErrCodeBothProducersFailed}
	ErrInvalidConfig       = &StandardError{Code: ErrCodeInvalidConfig}
)

// NewProducerTimeoutError marks a single producer as having missed the deadline.
func NewProducerTimeoutError(producer string, deadline time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeProducerTimeout,
		Message:   fmt.Sprintf("Producer '%s' exceeded deadline", producer),
		Details:   fmt.Sprintf("deadline: %s", deadline),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProducerError wraps an error raised by a single producer.
func NewProducerError(producer string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProducerError,
		Message:   fmt.Sprintf("Producer '%s' failed", producer),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBothProducersFailedError is the only producer failure surfaced to callers.
func NewBothProducersFailedError(primaryDetail, secondaryDetail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBothProducersFailed,
		Message:   "Both producers failed or timed out",
		Retryable: true,
		Metadata: map[string]interface{}{
			"primary":   primaryDetail,
			"secondary": secondaryDetail,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewProducerBadResponseError marks a response that violates the producer contract.
func NewProducerBadResponseError(producer, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProducerBadResponse,
		Message:   fmt.Sprintf("Producer '%s' returned an invalid result", producer),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidConfigError fails fast at orchestrator construction, never at request time.
func NewInvalidConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidConfig,
		Message:   "Invalid fusion configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether the error is worth retrying from the caller side.
func IsRetryable(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Retryable
	}
	return false
}
