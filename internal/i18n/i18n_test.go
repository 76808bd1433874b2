package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		prev Language
		want Language
	}{
		{"english sentence", "Do you have Nurofen in stock?", LangUnknown, LangEN},
		{"hebrew sentence", "יש לכם נורופן במלאי?", LangUnknown, LangHE},
		{"hebrew wins over latin brand name", "כמה עולה Advil?", LangEN, LangHE},
		{"digits only keep previous", "100?", LangHE, LangHE},
		{"digits only default on first turn", "100?", LangUnknown, LangEN},
		{"switch mid conversation", "ומה לגבי אקמול?", LangEN, LangHE},
		{"switch back to english", "thanks, reserve two boxes", LangHE, LangEN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text, tt.prev))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, LangEN, Normalize("EN"))
	assert.Equal(t, LangHE, Normalize("hebrew"))
	assert.Equal(t, LangHE, Normalize("iw"))
	assert.Equal(t, LangUnknown, Normalize("auto"))
	assert.Equal(t, LangUnknown, Normalize("fr"))
}

func TestT(t *testing.T) {
	t.Run("translated key", func(t *testing.T) {
		en := T(LangEN, "agent.refusal")
		he := T(LangHE, "agent.refusal")
		assert.NotEqual(t, en, he)
		assert.NotEmpty(t, he)
	})

	t.Run("unknown language falls back to english", func(t *testing.T) {
		assert.Equal(t, T(LangEN, "agent.exhausted"), T(Language("fr"), "agent.exhausted"))
	})

	t.Run("unknown key returns key", func(t *testing.T) {
		assert.Equal(t, "no.such.key", T(LangEN, "no.such.key"))
	})
}

func TestMessageTablesAligned(t *testing.T) {
	en := englishMessages()
	he := hebrewMessages()
	for key := range en {
		assert.Contains(t, he, key, "missing Hebrew translation")
	}
	for key := range he {
		assert.Contains(t, en, key, "missing English translation")
	}
}
