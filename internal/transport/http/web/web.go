// Package web renders console pages: one layout, shared partials and a
// template per page, all embedded in the binary.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"emsconsole/internal/domain/employee"
	"emsconsole/internal/platform/i18n"
	"emsconsole/internal/platform/session"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every page template receives. Data carries the
// page-specific view model.
type Page struct {
	Title     string
	Path      string
	Locale    string
	User      *session.Session
	Nav       []ui.NavLink
	Menu      ui.NavState
	Toasts    []ToastView
	CSRFToken string
	Errors    map[string]string
	Form      map[string]string
	Notice    string
	Modal     template.HTML
	Data      any
	Now       time.Time
}

// ToastView is a live toast plus the time it has left on screen.
type ToastView struct {
	ui.Toast
	RemainingMs int64
}

// FieldError is the inline error for one form field.
func (p *Page) FieldError(field string) string {
	return p.Errors[field]
}

// Value is the submitted value of a field when a form is re-rendered.
func (p *Page) Value(field string) string {
	return p.Form[field]
}

type Renderer struct {
	catalog  *i18n.Catalog
	toasts   *ui.ToastHub
	clock    ui.Clock
	pages    map[string]*template.Template
	partials *template.Template
}

func New(catalog *i18n.Catalog, toasts *ui.ToastHub, clock ui.Clock) (*Renderer, error) {
	if clock == nil {
		clock = ui.SystemClock
	}
	r := &Renderer{catalog: catalog, toasts: toasts, clock: clock, pages: map[string]*template.Template{}}
	funcs := r.funcs()

	partials, err := template.New("partials").Funcs(funcs).ParseFS(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}
	r.partials = partials

	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	for _, file := range pages {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials/*.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = tpl
	}
	return r, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"T": func(locale, id string, kv ...any) string {
			return r.catalog.Localize(locale, id, pairs(kv))
		},
		"badge":    func(status string) string { return "badge " + view.BadgeClass(status) },
		"label":    view.Label,
		"initials": employee.Initials,
		"orNA":     func(v string) string { return employee.OrDefault(v, "N/A") },
		"num":      func(v float64) string { return trimNumber(v) },
		"rowStyle": func(i int) template.CSS { return view.Row{Index: i}.Style() },
		"imageURL": imageURL,
		"dict": func(kv ...any) map[string]any {
			return pairs(kv)
		},
	}
}

func pairs(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			out[key] = kv[i+1]
		}
	}
	return out
}

// imageURL lets image data URLs and http(s) links through to src
// attributes. Anything else renders as an empty source.
func imageURL(src string) template.URL {
	switch {
	case strings.HasPrefix(src, "data:image/"),
		strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "http://"):
		return template.URL(src)
	default:
		return ""
	}
}

func trimNumber(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}

// Page builds the chrome for r: signed-in user, navigation, overlay state,
// live toasts and the CSRF token.
func (r *Renderer) Page(req *http.Request, title string) *Page {
	now := r.clock.Now()
	p := &Page{
		Title:     title,
		Path:      req.URL.Path,
		Locale:    r.locale(req),
		Menu:      ui.NavFromQuery(req.URL.Query().Get("menu")),
		CSRFToken: middleware.CSRFToken(req),
		Now:       now,
	}
	if sess, ok := middleware.GetSession(req.Context()); ok {
		p.User = sess
		p.Nav = ui.MarkActive(req.URL.Path, LinksFor(sess.Role))
		for _, toast := range r.toasts.For(sess.ID).Active() {
			p.Toasts = append(p.Toasts, ToastView{Toast: toast, RemainingMs: toast.Remaining(now).Milliseconds()})
		}
	}
	return p
}

func (r *Renderer) locale(req *http.Request) string {
	if loc := requestctx.GetLocale(req.Context()); loc != "" {
		return loc
	}
	return r.catalog.Default()
}

// Render executes page into a buffer first so a template error still yields
// a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, page string, p *Page) {
	tpl, ok := r.pages[page]
	if !ok {
		slog.ErrorContext(req.Context(), "unknown page template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, p); err != nil {
		slog.ErrorContext(req.Context(), "render page failed", "page", page, "error", err,
			"requestId", middleware.GetRequestID(req.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
	}
	_, _ = buf.WriteTo(w)
}

// Fragment renders one partial to a string.
func (r *Renderer) Fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Modal renders the modal partial "modal-<name>" and prepares its focus trap.
func (r *Renderer) Modal(name string, p *Page) (template.HTML, error) {
	fragment, err := r.Fragment("modal-"+name, p)
	if err != nil {
		return "", err
	}
	html, _, err := ui.PrepareModal(fragment, ".modal-dialog")
	if err != nil {
		return "", err
	}
	return template.HTML(html), nil
}

// ErrorPage renders the generic error page. The status must already be
// written by the caller when used as a middleware fallback.
func (r *Renderer) ErrorPage(messageID string, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		p := r.Page(req, "Error")
		p.Notice = r.catalog.Localize(p.Locale, messageID)
		tpl := r.pages["error"]
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := tpl.Execute(w, p); err != nil {
			slog.ErrorContext(req.Context(), "render error page failed", "error", err)
		}
	})
}

// NotFound renders the error page with a 404.
func (r *Renderer) NotFound(w http.ResponseWriter, req *http.Request) {
	r.ErrorPage("error.not_found", http.StatusNotFound).ServeHTTP(w, req)
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	files := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}
