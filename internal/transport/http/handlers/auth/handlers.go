package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/session"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/shared"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
)

// Upstream is the part of the EMS API sign-in needs.
type Upstream interface {
	Login(ctx context.Context, email, password string) (emsapi.Credentials, error)
	Logout(ctx context.Context) error
	ProfileData(ctx context.Context) (emsapi.Profile, error)
}

type Handler struct {
	API Upstream
	Kit *web.Kit
}

func NewHandler(api Upstream, kit *web.Kit) *Handler {
	return &Handler{API: api, Kit: kit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.HandleLoginPage)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
}

var notices = map[string]string{
	"logged_out":      "auth.logged_out",
	"session_expired": "error.session_expired",
}

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := web.CurrentSession(r); sess != nil {
		web.SeeOther(w, r, middleware.HomePath(sess.Role))
		return
	}
	p := h.Kit.Page(r, "Sign in")
	if id, ok := notices[r.URL.Query().Get("notice")]; ok {
		p.Notice = h.Kit.T(r, id)
	}
	h.Kit.Render(w, r, http.StatusOK, "login", p)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := shared.ParseForm(r); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "", map[string]string{"form": h.Kit.T(r, "error.generic")})
		return
	}
	email := shared.Field(r, "email")
	password := r.PostFormValue("password")

	v := shared.NewValidator()
	if v.Required("email", email, "Email is required") {
		v.Email("email", email)
	}
	if v.Required("password", password, "Password is required") {
		v.MinLength("password", password, 6, "Password must be at least 6 characters")
	}
	if v.HasIssues() {
		h.renderError(w, r, http.StatusUnprocessableEntity, email, v.FieldErrors())
		return
	}

	release, ok := h.Kit.Guard.TryAcquire("login:" + strings.ToLower(email))
	if !ok {
		h.renderError(w, r, http.StatusConflict, email, map[string]string{"form": h.Kit.T(r, "error.duplicate_submit")})
		return
	}
	defer release()

	creds, err := h.API.Login(r.Context(), email, password)
	if errors.Is(err, emsapi.ErrInvalidCredentials) {
		h.renderError(w, r, http.StatusUnauthorized, email, map[string]string{"form": h.Kit.T(r, "auth.invalid_credentials")})
		return
	}
	if err != nil {
		slog.WarnContext(r.Context(), "upstream login failed", "error", err, "requestId", requestctx.GetRequestID(r.Context()))
		h.renderError(w, r, http.StatusBadGateway, email, map[string]string{"form": h.Kit.T(r, "error.network")})
		return
	}

	profile, err := h.API.ProfileData(emsapi.WithCredentials(r.Context(), creds))
	if err != nil {
		slog.WarnContext(r.Context(), "profile lookup after login failed", "error", err, "requestId", requestctx.GetRequestID(r.Context()))
		h.renderError(w, r, http.StatusBadGateway, email, map[string]string{"form": emsapi.UserMessage(err, h.Kit.T(r, "error.generic"))})
		return
	}

	if previous := web.CurrentSession(r); previous != nil {
		h.Kit.Toasts.Drop(previous.ID)
		if err := h.Kit.Sessions.Store.Delete(r.Context(), previous.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.WarnContext(r.Context(), "previous session delete failed", "error", err)
		}
	}

	user := session.User{
		ID:    profile.ID.String(),
		Name:  displayName(profile, email),
		Email: firstNonEmpty(profile.Email, email),
		Role:  middleware.RoleEmployee,
	}
	if profile.Role == middleware.RoleAdmin {
		user.Role = middleware.RoleAdmin
	}
	sess, err := h.Kit.Sessions.Start(r.Context(), w, user, creds)
	if err != nil {
		slog.ErrorContext(r.Context(), "session start failed", "error", err, "requestId", requestctx.GetRequestID(r.Context()))
		h.renderError(w, r, http.StatusInternalServerError, email, map[string]string{"form": h.Kit.T(r, "error.generic")})
		return
	}
	if locale := requestctx.GetLocale(r.Context()); locale != "" {
		sess.Locale = locale
		h.Kit.SaveSession(r, sess)
	}

	r = r.WithContext(middleware.WithSession(r.Context(), sess))
	h.Kit.Toast(r, ui.SeveritySuccess, "auth.welcome", map[string]any{"Name": user.Name})
	slog.InfoContext(r.Context(), "user signed in", "userId", user.ID, "role", user.Role)
	web.SeeOther(w, r, middleware.HomePath(user.Role))
}

// HandleLogout always ends the console session; an upstream failure is only
// logged.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := web.CurrentSession(r)
	if sess != nil {
		if err := h.API.Logout(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "upstream logout failed", "error", err)
		}
		h.Kit.Toasts.Drop(sess.ID)
	}
	if err := h.Kit.Sessions.Destroy(r.Context(), w, sess); err != nil {
		slog.WarnContext(r.Context(), "session destroy failed", "error", err)
	}
	web.SeeOther(w, r, "/login?notice=logged_out")
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, email string, errs map[string]string) {
	p := h.Kit.Page(r, "Sign in")
	p.Errors = errs
	p.Form = map[string]string{"email": email}
	h.Kit.Render(w, r, status, "login", p)
}

func displayName(p emsapi.Profile, email string) string {
	if name := firstNonEmpty(p.FullName, p.Name, strings.TrimSpace(p.FirstName+" "+p.LastName)); name != "" {
		return name
	}
	return email
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
