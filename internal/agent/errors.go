package agent

import "errors"

// Sentinel errors returned by the orchestration loop.
var (
	// ErrEmptyInput indicates the user message was empty after trimming.
	ErrEmptyInput = errors.New("empty input")
)
