package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid values.
// Returns a sentinel-wrapped error for the first violation found.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (expected gemini, ollama or openai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	if c.Provider == ProviderOllama && strings.TrimSpace(c.OllamaHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidOllamaHost)
	}

	if c.MaxTurns < 1 || c.MaxTurns > MaxAllowedTurns {
		return fmt.Errorf("%w: %d (expected 1..%d)", ErrInvalidMaxTurns, c.MaxTurns, MaxAllowedTurns)
	}

	if c.HistoryLimit < 1 || c.HistoryLimit > MaxAllowedHistory {
		return fmt.Errorf("%w: %d (expected 1..%d)", ErrInvalidHistoryLimit, c.HistoryLimit, MaxAllowedHistory)
	}

	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendPostgres:
		if strings.TrimSpace(c.PostgresHost) == "" {
			return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
		}
	default:
		return fmt.Errorf("%w: %q (expected memory or postgres)", ErrInvalidSessionBackend, c.SessionBackend)
	}

	return nil
}
