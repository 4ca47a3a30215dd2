package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"

	"emsconsole/internal/transport/http/api"
)

const CSRFFieldName = "csrf_token"

// CSRF protects every unsafe console request with a masked token carried in
// the csrf_token form field or the X-CSRF-Token header. Without TLS the
// request is marked plaintext so the referer check does not demand https.
// Browsers get onFailure, which writes the 403 itself.
func CSRF(authKey []byte, secure bool, onFailure http.Handler) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.CookieName("ems_csrf"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if api.WantsJSON(r) || onFailure == nil {
				api.Fail(w, http.StatusForbidden, "csrf_failed", "invalid or missing csrf token", GetRequestID(r.Context()))
				return
			}
			onFailure.ServeHTTP(w, r)
		})),
	}
	protect := csrf.Protect(authKey, opts...)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// CSRFToken is the token to embed in forms rendered for r.
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}
