package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"emsconsole/internal/requestctx"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses a sane inbound id (so one id follows a request through a
// proxy) and otherwise mints a uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
