package identity

import (
	"context"

	"golang.org/x/text/language"
)

type ctxKey string

const (
	ctxSessionIDKey ctxKey = "session_id"
	ctxLocaleKey    ctxKey = "locale"
)

func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxSessionIDKey, sessionID)
}

func SessionID(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxSessionIDKey)
	id, ok := v.(string)
	return id, ok && id != ""
}

func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxLocaleKey, tag)
}

// Locale returns the language resolved for the request.
func Locale(ctx context.Context) (language.Tag, bool) {
	v := ctx.Value(ctxLocaleKey)
	tag, ok := v.(language.Tag)
	return tag, ok
}
