// Package i18n provides bilingual message lookup and deterministic language
// detection for user turns.
//
// The assistant answers in the language of the most recent user message.
// Detection is script-based rather than model-based so that canned strings
// (fallbacks, refusals) stay correct even when the reasoning provider fails.
package i18n

import (
	"fmt"
	"strings"
	"unicode"
)

// Language identifies a supported response language.
type Language string

// Supported languages.
const (
	LangEN Language = "en"
	LangHE Language = "he"

	// LangUnknown means detection found no script evidence; callers keep the
	// previous language.
	LangUnknown Language = ""
)

// DefaultLanguage is used for the first turn when detection is inconclusive.
const DefaultLanguage = LangEN

// messages stores all translations, keyed by language then message key.
var messages = map[Language]map[string]string{}

// Detect classifies the language of a user turn.
// Any Hebrew-script rune wins; otherwise Latin letters mean English.
// Text with neither (numbers, punctuation, emoji) yields prev, so a bare
// "100?" follow-up keeps the conversation's language.
func Detect(text string, prev Language) Language {
	hasLatin := false
	for _, r := range text {
		if unicode.Is(unicode.Hebrew, r) {
			return LangHE
		}
		if r < 128 && unicode.IsLetter(r) {
			hasLatin = true
		}
	}
	if hasLatin {
		return LangEN
	}
	if prev == LangUnknown {
		return DefaultLanguage
	}
	return prev
}

// Normalize maps a configured language string to a Language.
// "auto" and unknown values return LangUnknown, meaning per-turn detection.
func Normalize(lang string) Language {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "en-us", "english":
		return LangEN
	case "he", "he-il", "iw", "hebrew":
		return LangHE
	default:
		return LangUnknown
	}
}

// T returns the translated message for the given key.
// Falls back to English, then to the key itself.
func T(lang Language, key string) string {
	if msg, ok := messages[lang][key]; ok {
		return msg
	}
	if msg, ok := messages[LangEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf returns the translated and formatted message.
func Sprintf(lang Language, key string, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}

// Name returns the English name of the language, for prompt instructions.
func (l Language) Name() string {
	switch l {
	case LangHE:
		return "Hebrew"
	default:
		return "English"
	}
}

func init() {
	messages[LangEN] = englishMessages()
	messages[LangHE] = hebrewMessages()
}
