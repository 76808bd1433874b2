package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Provider:        ProviderGemini,
		ModelName:       "gemini-2.5-flash",
		Language:        "auto",
		MaxTurns:        DefaultMaxTurns,
		HistoryLimit:    DefaultHistory,
		SessionBackend:  SessionBackendMemory,
		PostgresHost:    "localhost",
		PostgresPort:    5432,
		PostgresSSLMode: "disable",
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider = "watson"
		err := cfg.Validate()
		require.ErrorIs(t, err, ErrInvalidProvider)
	})

	t.Run("empty model name", func(t *testing.T) {
		cfg := validConfig()
		cfg.ModelName = "  "
		require.ErrorIs(t, cfg.Validate(), ErrInvalidModelName)
	})

	t.Run("max turns out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.MaxTurns = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidMaxTurns)

		cfg.MaxTurns = MaxAllowedTurns + 1
		require.ErrorIs(t, cfg.Validate(), ErrInvalidMaxTurns)
	})

	t.Run("history limit out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.HistoryLimit = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidHistoryLimit)
	})

	t.Run("unknown session backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionBackend = "redis"
		require.ErrorIs(t, cfg.Validate(), ErrInvalidSessionBackend)
	})

	t.Run("postgres backend requires host", func(t *testing.T) {
		cfg := validConfig()
		cfg.SessionBackend = SessionBackendPostgres
		cfg.PostgresHost = ""
		require.ErrorIs(t, cfg.Validate(), ErrInvalidPostgresHost)
	})

	t.Run("ollama provider requires host", func(t *testing.T) {
		cfg := validConfig()
		cfg.Provider = ProviderOllama
		cfg.OllamaHost = ""
		require.ErrorIs(t, cfg.Validate(), ErrInvalidOllamaHost)
	})
}

func TestFullModelName(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"gemini qualified as googleai", ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"ollama", ProviderOllama, "llama3.3", "ollama/llama3.3"},
		{"openai", ProviderOpenAI, "gpt-4o", "openai/gpt-4o"},
		{"already qualified passes through", ProviderGemini, "ollama/mistral", "ollama/mistral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Provider: tt.provider, ModelName: tt.model}
			assert.Equal(t, tt.want, cfg.FullModelName())
		})
	}
}

func TestMarshalJSONMasksPassword(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "super_secret_password"

	data, err := cfg.MarshalJSON()
	require.NoError(t, err)

	assert.NotContains(t, string(data), "super_secret_password")
	assert.Contains(t, string(data), maskedValue)
}

func TestMaskSecret(t *testing.T) {
	assert.Empty(t, maskSecret(""))
	assert.Equal(t, maskedValue, maskSecret("short"))

	long := maskSecret("my_long_secret_key_123")
	assert.True(t, strings.HasPrefix(long, "my"))
	assert.True(t, strings.HasSuffix(long, "23"))
	assert.NotContains(t, long, "long_secret")
}

func TestPostgresURL(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresUser = "apotek"
	cfg.PostgresPassword = "pw"
	cfg.PostgresDBName = "apotek"

	assert.Equal(t,
		"postgres://apotek:pw@localhost:5432/apotek?sslmode=disable",
		cfg.PostgresURL())
}
