package authhandler

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/platform/session"
	"emsconsole/internal/transport/http/handlers/handlertest"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/ui"
)

func setup(t *testing.T) (*handlertest.Env, func(chi.Router)) {
	t.Helper()
	env := handlertest.New(t)
	h := NewHandler(env.Client, env.Kit)
	return env, h.RegisterRoutes
}

func upstreamLogin(env *handlertest.Env, role string) {
	env.Upstream.Handle(http.MethodPost, "/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostFormValue("password") != "secret1" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<form>login</form>"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "upstream-" + role})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	env.Upstream.JSON(http.MethodGet, "/employee/profile-data", http.StatusOK, map[string]any{
		"success": true,
		"employee": map[string]any{
			"id": 12, "full_name": "Ana Lopez", "email": "ana@example.com", "role": role,
		},
	})
}

func TestLoginValidationBlocksUpstream(t *testing.T) {
	cases := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"missing email", url.Values{"password": {"secret1"}}, "email"},
		{"bad email", url.Values{"email": {"ana@"}, "password": {"secret1"}}, "email"},
		{"missing password", url.Values{"email": {"ana@example.com"}}, "password"},
		{"short password", url.Values{"email": {"ana@example.com"}, "password": {"123"}}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, routes := setup(t)
			rec := env.Serve(routes, handlertest.PostForm("/login", tc.form), nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
			if len(env.Upstream.Calls()) != 0 {
				t.Fatalf("expected no upstream call, got %v", env.Upstream.Calls())
			}
			doc := handlertest.Document(t, rec)
			input := doc.Find(`input[name="` + tc.field + `"]`)
			if input.Length() == 0 || input.NextAllFiltered(".field-error").Length() == 0 {
				t.Fatalf("expected inline error for %s", tc.field)
			}
		})
	}
}

func TestLoginRedirectsByRole(t *testing.T) {
	for _, role := range []string{middleware.RoleAdmin, middleware.RoleEmployee} {
		t.Run(role, func(t *testing.T) {
			env, routes := setup(t)
			upstreamLogin(env, role)

			form := url.Values{"email": {"ana@example.com"}, "password": {"secret1"}}
			rec := env.Serve(routes, handlertest.PostForm("/login", form), nil)
			handlertest.ExpectRedirect(t, rec, middleware.HomePath(role))

			var cookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == session.CookieName {
					cookie = c
				}
			}
			if cookie == nil || cookie.Value == "" {
				t.Fatalf("expected session cookie")
			}
			req := handlertest.Get("/")
			req.AddCookie(cookie)
			sess, err := env.Kit.Sessions.FromRequest(req)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			if sess.Role != role || sess.Name != "Ana Lopez" || sess.UserID != "12" {
				t.Fatalf("unexpected session %+v", sess)
			}
			if sess.Credentials["session"] != "upstream-"+role {
				t.Fatalf("expected upstream cookie kept, got %v", sess.Credentials)
			}
			if !env.HasToast(sess, ui.SeveritySuccess, "Welcome back, Ana Lopez") {
				t.Fatalf("expected welcome toast, got %v", env.Messages(sess))
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env, routes := setup(t)
	upstreamLogin(env, middleware.RoleEmployee)

	form := url.Values{"email": {"ana@example.com"}, "password": {"wrong-pass"}}
	rec := env.Serve(routes, handlertest.PostForm("/login", form), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	doc := handlertest.Document(t, rec)
	if got := doc.Find(".alert-danger").Text(); !strings.Contains(got, "Invalid email or password") {
		t.Fatalf("expected credentials error, got %q", got)
	}
	if got, _ := doc.Find(`input[name="email"]`).Attr("value"); got != "ana@example.com" {
		t.Fatalf("expected email kept, got %q", got)
	}
	if env.Upstream.Called(http.MethodGet, "/employee/profile-data") {
		t.Fatalf("profile must not be fetched after a failed login")
	}
}

func TestLoginPageNotices(t *testing.T) {
	env, routes := setup(t)
	rec := env.Serve(routes, handlertest.Get("/login?notice=session_expired"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := handlertest.Document(t, rec)
	if got := doc.Find(".alert-info").Text(); !strings.Contains(got, "session has expired") {
		t.Fatalf("expected expiry notice, got %q", got)
	}

	sess := env.SignIn(t, middleware.RoleAdmin)
	rec = env.Serve(routes, handlertest.Get("/login"), sess)
	handlertest.ExpectRedirect(t, rec, "/admin/dashboard")
}

func TestLogoutDestroysSession(t *testing.T) {
	env, routes := setup(t)
	env.Upstream.Handle(http.MethodGet, "/logout", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "upstream-cookie" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	sess := env.SignIn(t, middleware.RoleEmployee)

	rec := env.Serve(routes, handlertest.PostForm("/logout", url.Values{}), sess)
	handlertest.ExpectRedirect(t, rec, "/login?notice=logged_out")
	if !env.Upstream.Called(http.MethodGet, "/logout") {
		t.Fatalf("expected upstream logout")
	}
	if _, err := env.Kit.Sessions.Store.Load(t.Context(), sess.ID); err == nil {
		t.Fatalf("expected session removed")
	}
}
