package httpapi

import (
	"context"
	"net/http"

	"github.com/PabloPavan/data_explorer/internal/i18n"
	"github.com/PabloPavan/data_explorer/internal/identity"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// localeMiddleware resolves the request language and persists an explicit
// ?lang= choice in a cookie.
func localeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, persist := i18n.ResolveTag(r)
		if persist {
			i18n.SetLanguageCookie(w, tag)
		}
		next.ServeHTTP(w, r.WithContext(identity.WithLocale(r.Context(), tag)))
	})
}

func localizer(ctx context.Context) (*message.Printer, language.Tag) {
	tag, ok := identity.Locale(ctx)
	if !ok {
		tag = i18n.Default()
	}
	return i18n.Printer(tag), tag
}
