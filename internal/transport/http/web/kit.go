package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/i18n"
	"emsconsole/internal/platform/session"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/transport/http/api"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/ui"
)

// Kit bundles what every page controller needs besides its upstream client.
type Kit struct {
	*Renderer
	Catalog  *i18n.Catalog
	Toasts   *ui.ToastHub
	Sessions *session.Manager
	Guard    *ui.SubmitGuard
	Clock    ui.Clock
}

func NewKit(renderer *Renderer, catalog *i18n.Catalog, toasts *ui.ToastHub, sessions *session.Manager, clock ui.Clock) *Kit {
	if clock == nil {
		clock = ui.SystemClock
	}
	return &Kit{
		Renderer: renderer,
		Catalog:  catalog,
		Toasts:   toasts,
		Sessions: sessions,
		Guard:    ui.NewSubmitGuard(),
		Clock:    clock,
	}
}

// T translates for the request locale.
func (k *Kit) T(r *http.Request, id string, data ...map[string]any) string {
	return k.Catalog.T(r.Context(), id, data...)
}

// Toast queues a translated toast for the signed-in user.
func (k *Kit) Toast(r *http.Request, severity ui.Severity, id string, data ...map[string]any) {
	k.Flash(r, severity, k.T(r, id, data...))
}

// Flash queues message as is.
func (k *Kit) Flash(r *http.Request, severity ui.Severity, message string) {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		k.Toasts.Show(sess.ID, severity, message)
	}
}

// ToastFromError shows err as an error toast: the upstream message when it
// sent one, fallbackID otherwise. A lost upstream session ends the console
// session and redirects to the login page; it reports true when it did so
// and the caller must stop.
func (k *Kit) ToastFromError(w http.ResponseWriter, r *http.Request, err error, fallbackID string) bool {
	if emsapi.IsUnauthorized(err) {
		k.Expire(w, r)
		return true
	}
	attrs := []any{"error", err, "path", r.URL.Path, "requestId", requestctx.GetRequestID(r.Context())}
	var httpErr *emsapi.HTTPError
	var apiErr *emsapi.APIError
	switch {
	case errors.As(err, &apiErr):
		slog.InfoContext(r.Context(), "upstream rejected request", attrs...)
	case errors.As(err, &httpErr):
		slog.WarnContext(r.Context(), "upstream request failed", append(attrs, "status", httpErr.Status)...)
	default:
		slog.ErrorContext(r.Context(), "upstream unreachable", attrs...)
		if fallbackID == "" {
			fallbackID = "error.network"
		}
	}
	if fallbackID == "" {
		fallbackID = "error.generic"
	}
	k.Flash(r, ui.SeverityError, emsapi.UserMessage(err, k.T(r, fallbackID)))
	return false
}

// FailJSON is ToastFromError for JSON endpoints.
func (k *Kit) FailJSON(w http.ResponseWriter, r *http.Request, err error, fallbackID string) {
	reqID := requestctx.GetRequestID(r.Context())
	if emsapi.IsUnauthorized(err) {
		k.endSession(w, r)
		api.Fail(w, http.StatusUnauthorized, "session_expired", k.T(r, "error.session_expired"), reqID)
		return
	}
	slog.WarnContext(r.Context(), "upstream request failed", "error", err, "path", r.URL.Path, "requestId", reqID)
	api.Fail(w, http.StatusBadGateway, "upstream_error", emsapi.UserMessage(err, k.T(r, fallbackID)), reqID)
}

// Expire ends the console session and sends the browser to the login page.
func (k *Kit) Expire(w http.ResponseWriter, r *http.Request) {
	k.endSession(w, r)
	if api.WantsJSON(r) {
		api.Fail(w, http.StatusUnauthorized, "session_expired", k.T(r, "error.session_expired"), requestctx.GetRequestID(r.Context()))
		return
	}
	http.Redirect(w, r, "/login?notice=session_expired", http.StatusSeeOther)
}

func (k *Kit) endSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	if sess != nil {
		k.Toasts.Drop(sess.ID)
	}
	if err := k.Sessions.Destroy(r.Context(), w, sess); err != nil {
		slog.WarnContext(r.Context(), "session destroy failed", "error", err)
	}
}

// Acquire takes the submit guard for form in the caller's session. When a
// submission of the same form is still running it queues a warning toast
// and reports false.
func (k *Kit) Acquire(r *http.Request, form string) (func(), bool) {
	key := form
	if sess, ok := middleware.GetSession(r.Context()); ok {
		key = sess.ID + ":" + form
	}
	release, ok := k.Guard.TryAcquire(key)
	if !ok {
		k.Toast(r, ui.SeverityWarning, "error.duplicate_submit")
	}
	return release, ok
}

// SaveSession persists page state kept on the session, logging failures.
func (k *Kit) SaveSession(r *http.Request, sess *session.Session) {
	if err := k.Sessions.Save(r.Context(), sess); err != nil {
		slog.WarnContext(r.Context(), "session save failed", "error", err, "requestId", requestctx.GetRequestID(r.Context()))
	}
}

// SeeOther finishes a POST with a redirect (POST/redirect/GET).
func SeeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Back redirects to a same-origin "next" form value or fallback.
func Back(w http.ResponseWriter, r *http.Request, fallback string) {
	SeeOther(w, r, LocalPath(r.FormValue("next"), fallback))
}

// LocalPath accepts only site-relative paths so a crafted next cannot leave
// the console.
func LocalPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}

// CurrentSession is the session attached by the Session middleware. Routes
// behind RequireRole always have one.
func CurrentSession(r *http.Request) *session.Session {
	sess, _ := middleware.GetSession(r.Context())
	return sess
}
