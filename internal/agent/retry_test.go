package agent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("RESOURCE_EXHAUSTED: Rate limit exceeded"), true},
		{"quota", errors.New("quota exceeded for model"), true},
		{"http 429", errors.New("request failed with status 429"), true},
		{"http 503", errors.New("503 Service Unavailable"), true},
		{"unavailable", errors.New("model temporarily unavailable"), true},
		{"timeout", errors.New("context deadline exceeded: timeout"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"wrapped", fmt.Errorf("calling model: %w", errors.New("502 Bad Gateway")), true},
		{"bad request", errors.New("400 invalid request"), false},
		{"auth", errors.New("401 unauthorized: bad API key"), false},
		{"safety block", errors.New("response blocked by safety settings"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Positive(t, cfg.InitialInterval)
	assert.Greater(t, cfg.MaxInterval, cfg.InitialInterval)
}
