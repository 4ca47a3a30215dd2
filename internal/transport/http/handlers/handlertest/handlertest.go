// Package handlertest wires page controllers to a fake EMS API so their
// tests exercise the real client, renderer and session plumbing.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/i18n"
	"emsconsole/internal/platform/session"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
)

const secret = "handlertest-secret-0123456789abcdef"

// Upstream is a fake EMS API keyed by "METHOD /path". Unknown routes answer
// 404 with a failure envelope.
type Upstream struct {
	Server *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []string
	bodies map[string][]byte
	query  map[string]url.Values
}

func (u *Upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	u.mu.Lock()
	u.calls = append(u.calls, key)
	u.bodies[key] = body
	u.query[key] = r.URL.Query()
	handler, ok := u.routes[key]
	u.mu.Unlock()
	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "not found"})
		return
	}
	handler(w, r)
}

func (u *Upstream) Handle(method, path string, h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[method+" "+path] = h
}

// JSON answers method path with payload.
func (u *Upstream) JSON(method, path string, status int, payload any) {
	u.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, payload)
	})
}

func (u *Upstream) Calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

func (u *Upstream) Called(method, path string) bool {
	for _, call := range u.Calls() {
		if call == method+" "+path {
			return true
		}
	}
	return false
}

// Body is the last JSON body sent to method path.
func (u *Upstream) Body(t *testing.T, method, path string) map[string]any {
	t.Helper()
	u.mu.Lock()
	raw := u.bodies[method+" "+path]
	u.mu.Unlock()
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode upstream body of %s %s: %v", method, path, err)
	}
	return out
}

// Query is the last query string sent to method path.
func (u *Upstream) Query(method, path string) url.Values {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.query[method+" "+path]
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type Env struct {
	Kit      *web.Kit
	Client   *emsapi.Client
	Upstream *Upstream
}

// NewUpstream starts a fake EMS API that lives until t ends.
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()
	up := &Upstream{routes: map[string]http.HandlerFunc{}, bodies: map[string][]byte{}, query: map[string]url.Values{}}
	up.Server = httptest.NewServer(up)
	t.Cleanup(up.Server.Close)
	return up
}

func New(t *testing.T) *Env {
	t.Helper()
	up := NewUpstream(t)
	client, err := emsapi.New(up.Server.URL, emsapi.Options{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	catalog, err := i18n.New("en")
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	hub := ui.NewToastHub(ui.ToastOptions{})
	renderer, err := web.New(catalog, hub, nil)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	codec, err := session.NewCodec(secret)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	signer, err := session.NewSigner(secret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	manager := session.NewManager(session.NewMemoryStore(codec), signer, time.Hour, false)
	return &Env{
		Kit:      web.NewKit(renderer, catalog, hub, manager, nil),
		Client:   client,
		Upstream: up,
	}
}

// SignIn stores a session for role and returns it.
func (e *Env) SignIn(t *testing.T, role string) *session.Session {
	t.Helper()
	sess := session.New(session.User{ID: "7", Name: "Ana Lopez", Email: "ana@example.com", Role: role},
		map[string]string{"session": "upstream-cookie"}, time.Now(), time.Hour)
	if err := e.Kit.Sessions.Save(context.Background(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return sess
}

// Serve routes req through the routes register mounts, with sess attached
// the way the Session middleware would (nil for an anonymous request).
func (e *Env) Serve(register func(chi.Router), req *http.Request, sess *session.Session) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestctx.WithLocale(req.Context(), "en")
			if sess != nil {
				ctx = middleware.WithSession(ctx, sess)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// Messages lists the toasts queued for sess.
func (e *Env) Messages(sess *session.Session) []string {
	var out []string
	for _, toast := range e.Kit.Toasts.For(sess.ID).Active() {
		out = append(out, string(toast.Severity)+": "+toast.Message)
	}
	return out
}

// HasToast reports whether a toast of severity containing text is queued.
func (e *Env) HasToast(sess *session.Session, severity ui.Severity, text string) bool {
	for _, toast := range e.Kit.Toasts.For(sess.ID).Active() {
		if toast.Severity == severity && strings.Contains(toast.Message, text) {
			return true
		}
	}
	return false
}

func Get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func PostForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func Document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// ExpectRedirect fails unless rec is a 303 to location.
func ExpectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}
