package session

import "errors"

// Sentinel errors for session operations, checked with errors.Is.
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")
)

// History limits applied when loading messages for the model.
const (
	// DefaultHistoryLimit is the default number of messages included in
	// the model's context window.
	DefaultHistoryLimit = 50

	// MaxHistoryLimit is the absolute maximum to prevent unbounded loads.
	MaxHistoryLimit = 1000
)

// NormalizeHistoryLimit clamps a configured history limit to sane bounds.
func NormalizeHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
