package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/session"
	"emsconsole/internal/transport/http/api"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// SessionLoader resolves the console session named by a request.
type SessionLoader interface {
	FromRequest(r *http.Request) (*session.Session, error)
}

// Session attaches the caller's console session (when there is one) and the
// upstream credentials it holds. It never rejects a request.
func Session(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := loader.FromRequest(r)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					slog.WarnContext(r.Context(), "session lookup failed", "error", err, "requestId", GetRequestID(r.Context()))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func WithSession(ctx context.Context, sess *session.Session) context.Context {
	ctx = context.WithValue(ctx, ctxKeySession, sess)
	return emsapi.WithCredentials(ctx, emsapi.Credentials(sess.Credentials))
}

func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(ctxKeySession).(*session.Session)
	return sess, ok && sess != nil
}

// RequireRole lets signed-in users with one of roles through. Anonymous page
// requests go to loginPath; a signed-in user with the wrong role lands on
// their own home page.
func RequireRole(loginPath string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok {
				if api.WantsJSON(r) {
					api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
					return
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			for _, role := range roles {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			if api.WantsJSON(r) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			http.Redirect(w, r, HomePath(sess.Role), http.StatusSeeOther)
		})
	}
}

// HomePath is the landing page for a role.
func HomePath(role string) string {
	if role == RoleAdmin {
		return "/admin/dashboard"
	}
	return "/employee/dashboard"
}
