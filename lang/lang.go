package lang

import "context"

type ctxKey struct{}

// Default is used when no language was attached to the context.
const Default = "en"

// WithLanguage attaches a request language to ctx.
func WithLanguage(ctx context.Context, language string) context.Context {
	return context.WithValue(ctx, ctxKey{}, language)
}

// LanguageFromContext reads a request language from ctx.
func LanguageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKey{})
	s, ok := v.(string)
	return s, ok && s != ""
}

// Resolve returns the context language or Default.
func Resolve(ctx context.Context) string {
	if s, ok := LanguageFromContext(ctx); ok {
		return s
	}
	return Default
}
