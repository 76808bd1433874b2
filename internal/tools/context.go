package tools

import (
	"context"

	"github.com/apotek/apotek/internal/i18n"
)

// languageKey uses an empty struct for a zero-allocation context key.
type languageKey struct{}

// ContextWithLanguage stores the conversation language in the context so
// tool handlers can localize catalog fields per request.
func ContextWithLanguage(ctx context.Context, lang i18n.Language) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFromContext returns the conversation language, or the default
// when none was set.
func LanguageFromContext(ctx context.Context) i18n.Language {
	if lang, ok := ctx.Value(languageKey{}).(i18n.Language); ok {
		return lang
	}
	return i18n.DefaultLanguage
}
