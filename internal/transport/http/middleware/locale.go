package middleware

import (
	"net/http"

	"emsconsole/internal/requestctx"
)

// LocaleMatcher is the part of the message catalog locale negotiation needs.
type LocaleMatcher interface {
	Supports(locale string) bool
	Match(acceptLanguage string) string
}

// Locale picks the UI language: an explicit ?lang, then the session's
// choice, then Accept-Language.
func Locale(catalog LocaleMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := ""
			if lang := r.URL.Query().Get("lang"); lang != "" && catalog.Supports(lang) {
				locale = lang
			} else if sess, ok := GetSession(r.Context()); ok && sess.Locale != "" && catalog.Supports(sess.Locale) {
				locale = sess.Locale
			} else {
				locale = catalog.Match(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLocale(r.Context(), locale)))
		})
	}
}
