package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"emsconsole/internal/transport/http/api"
)

// Recoverer turns a panic into a logged event and a generic error response.
// Pages get fallback, which writes the 500 itself; JSON callers get an
// envelope.
func Recoverer(fallback http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(r.Context(), "panic recovered",
					"error", fmt.Sprint(rec),
					"path", r.URL.Path,
					"requestId", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				if api.WantsJSON(r) || fallback == nil {
					api.Fail(w, http.StatusInternalServerError, "internal_error", "something went wrong", GetRequestID(r.Context()))
					return
				}
				fallback.ServeHTTP(w, r)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
