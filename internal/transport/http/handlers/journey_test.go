package handlers_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"emsconsole/internal/app/server"
	"emsconsole/internal/platform/config"
	"emsconsole/internal/transport/http/handlers/handlertest"
)

type console struct {
	t        *testing.T
	app      *server.App
	upstream *handlertest.Upstream
	base     string
	client   *http.Client
}

func startConsole(t *testing.T) *console {
	t.Helper()
	up := handlertest.NewUpstream(t)
	cfg := config.Config{
		Environment:              "test",
		APIBaseURL:               up.Server.URL,
		APITimeout:               2 * time.Second,
		SessionBackend:           config.SessionBackendMemory,
		SessionSecret:            "journey-secret-0123456789abcdefghij",
		SessionTTL:               time.Hour,
		ToastDuration:            5 * time.Second,
		DashboardRefreshInterval: time.Minute,
		MaxBodyBytes:             1 << 20,
		RateLimitPerMinute:       1000,
		DefaultLocale:            "en",
		MetricsEnabled:           true,
	}
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := ts.Client()
	client.Jar = jar
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &console{t: t, app: app, upstream: up, base: ts.URL, client: client}
}

func (c *console) get(path string) (*http.Response, *goquery.Document) {
	c.t.Helper()
	resp, err := c.client.Get(c.base + path)
	if err != nil {
		c.t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.t.Fatalf("parse %s: %v", path, err)
	}
	return resp, doc
}

func (c *console) post(path string, form url.Values) *http.Response {
	c.t.Helper()
	resp, err := c.client.PostForm(c.base+path, form)
	if err != nil {
		c.t.Fatalf("POST %s: %v", path, err)
	}
	_ = resp.Body.Close()
	return resp
}

func csrfToken(t *testing.T, doc *goquery.Document) string {
	t.Helper()
	token, ok := doc.Find(`input[name="csrf_token"]`).First().Attr("value")
	if !ok || token == "" {
		t.Fatalf("page carries no csrf token")
	}
	return token
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func fakeAdminUpstream(up *handlertest.Upstream) {
	up.Handle(http.MethodPost, "/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "upstream-admin"})
		http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
	})
	up.JSON(http.MethodGet, "/employee/profile-data", http.StatusOK, map[string]any{
		"success":  true,
		"employee": map[string]any{"id": 1, "full_name": "Grace Admin", "email": "admin@example.com", "role": "admin"},
	})
	up.JSON(http.MethodGet, "/admin/dashboard/api/data", http.StatusOK, map[string]any{
		"total_employees":         14,
		"attendance_today":        9,
		"pending_leave_requests":  3,
		"overall_attendance_rate": 91.25,
		"attendance_trends":       []map[string]any{{"day": "Mon", "rate": 90}},
		"monthly_leave_trends":    []map[string]any{{"day": "1", "count": 2}},
		"current_month":           "March 2025",
	})
}

func TestAdminSignInJourney(t *testing.T) {
	c := startConsole(t)
	fakeAdminUpstream(c.upstream)

	resp, _ := c.get("/")
	expectRedirect(t, resp, "/login")

	resp, doc := c.get("/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page, got %d", resp.StatusCode)
	}
	token := csrfToken(t, doc)

	creds := url.Values{"email": {"admin@example.com"}, "password": {"secret1"}}
	resp = c.post("/login", creds)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected csrf rejection, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected csrf page served as html, got %q", ct)
	}
	if c.upstream.Called(http.MethodPost, "/login") {
		t.Fatalf("upstream must not see a forged sign-in")
	}

	creds.Set("csrf_token", token)
	resp = c.post("/login", creds)
	expectRedirect(t, resp, "/admin/dashboard")

	resp, doc = c.get("/admin/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected dashboard, got %d", resp.StatusCode)
	}
	if got := strings.TrimSpace(doc.Find(`[data-kpi="total_employees"] .kpi-value`).Text()); got != "14" {
		t.Fatalf("expected 14 employees, got %q", got)
	}
	toast := doc.Find(".toast")
	if !strings.Contains(toast.Text(), "Welcome back, Grace Admin") {
		t.Fatalf("expected welcome toast, got %q", toast.Text())
	}
	action, _ := toast.Find("form").Attr("action")

	resp = c.post(action, url.Values{"csrf_token": {csrfToken(t, doc)}, "next": {"/admin/dashboard"}})
	expectRedirect(t, resp, "/admin/dashboard")
	if _, doc = c.get("/admin/dashboard"); doc.Find(".toast").Length() != 0 {
		t.Fatalf("expected toast closed")
	}

	resp, _ = c.get("/employee/dashboard")
	expectRedirect(t, resp, "/admin/dashboard")

	resp, _ = c.get("/")
	expectRedirect(t, resp, "/admin/dashboard")
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	c := startConsole(t)
	resp, doc := c.get("/payroll")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("expected html content type, got %q", ct)
	}
	if !strings.Contains(doc.Text(), "does not exist") {
		t.Fatalf("expected not-found page")
	}
}

func TestProtectedPagesSendAnonymousUsersToLogin(t *testing.T) {
	c := startConsole(t)
	for _, path := range []string{"/admin/dashboard", "/admin/employees", "/admin/attendance", "/admin/leave-requests", "/employee/dashboard", "/employee/leave"} {
		resp, _ := c.get(path)
		if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(resp.Header.Get("Location"), "/login") {
			t.Fatalf("%s: expected login redirect, got %d %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}
}

func TestReadinessFollowsUpstreamProbe(t *testing.T) {
	c := startConsole(t)

	resp, _ := c.get("/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", resp.StatusCode)
	}
	resp, _ = c.get("/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected not ready before the first probe, got %d", resp.StatusCode)
	}

	if err := c.app.Health.Check(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}
	resp, _ = c.get("/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ready after probe, got %d", resp.StatusCode)
	}

	resp, doc := c.get("/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(doc.Text(), "ems_upstream_up 1") {
		t.Fatalf("expected upstream gauge in metrics")
	}
}
