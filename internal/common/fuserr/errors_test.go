package fuserr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardError_IsMatchesOnCode(t *testing.T) {
	err := NewProducerTimeoutError("primary", 0)

	assert.True(t, errors.Is(err, ErrProducerTimeout))
	assert.False(t, errors.Is(err, ErrBothProducersFailed))

	wrapped := fmt.Errorf("process: %w", err)
	assert.True(t, errors.Is(wrapped, ErrProducerTimeout))
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryable(NewProducerError("secondary", errors.New("boom"))))
	assert.True(t, IsRetryable(NewBothProducersFailedError("timeout", "timeout")))
	assert.False(t, IsRetryable(NewInvalidConfigError("bad")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	err := NewInvalidConfigError("unknown algorithm")
	assert.Equal(t, "StandardError[INVALID_CONFIG]: Invalid fusion configuration", err.Error())
	assert.Equal(t, "unknown algorithm", err.Details)
}
