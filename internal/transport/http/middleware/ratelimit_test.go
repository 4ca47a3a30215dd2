package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"emsconsole/internal/platform/session"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func loginRequest(email, remote string) *http.Request {
	form := url.Values{"email": {email}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = remote
	return req
}

func withUser(req *http.Request, userID string) *http.Request {
	sess := session.New(session.User{ID: userID, Role: RoleAdmin}, nil, time.Now(), time.Hour)
	return req.WithContext(WithSession(req.Context(), sess))
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(okHandler())

	first := withUser(httptest.NewRequest(http.MethodPost, "/admin/attendance/bulk-mark", nil), "user-1")
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := withUser(httptest.NewRequest(http.MethodPost, "/admin/attendance/bulk-mark", nil), "user-1")
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(okHandler())

	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, loginRequest("a@example.com", "203.0.113.10:4444"))
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, loginRequest("b@example.com", "203.0.113.10:5555"))
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip key, got %d", secondRec.Code)
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	limited := RateLimit(1, time.Minute, WithClock(func() time.Time { return now }))(okHandler())

	rec1 := httptest.NewRecorder()
	limited.ServeHTTP(rec1, loginRequest("a@example.com", "192.0.2.20:1111"))
	if rec1.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec1.Code)
	}

	rec2 := httptest.NewRecorder()
	limited.ServeHTTP(rec2, loginRequest("a@example.com", "192.0.2.20:1111"))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
	if rec2.Header().Get("Retry-After") == "" || rec2.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected retry metadata headers")
	}

	now = now.Add(61 * time.Second)
	rec3 := httptest.NewRecorder()
	limited.ServeHTTP(rec3, loginRequest("a@example.com", "192.0.2.20:1111"))
	if rec3.Code != http.StatusNoContent {
		t.Fatalf("expected third request after window reset to pass, got %d", rec3.Code)
	}
}

func TestRateLimitRendersPageForBrowsers(t *testing.T) {
	page := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	})
	limited := RateLimit(1, time.Minute, WithLimitedHandler(page))(okHandler())
	limited.ServeHTTP(httptest.NewRecorder(), loginRequest("a@example.com", "192.0.2.40:1"))

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, loginRequest("a@example.com", "192.0.2.40:1"))
	if rec.Code != http.StatusTooManyRequests || rec.Body.String() != "slow down" {
		t.Fatalf("expected rendered page with 429, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(okHandler())

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected read route request %d to bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	for i := 0; i < 3; i++ {
		req := withUser(httptest.NewRequest(http.MethodPost, "/admin/employees/e1/delete", nil), "admin-1")
		req.RemoteAddr = "198.51.100.41:9999"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("expected sensitive request %d to pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected third sensitive request to be throttled, got %d", rec.Code)
		}
	}
}

func TestLoginLimitedPerEmailAcrossIPs(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(okHandler())
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, loginRequest("target@example.com", "10.0.0.1:1"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first attempt should pass, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	req := loginRequest("target@example.com", "10.0.0.2:1")
	limited.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt on the same email should be throttled, got %d", rec.Code)
	}
	if got := req.PostFormValue("password"); got != "secret" {
		t.Fatalf("form should stay readable downstream, got %q", got)
	}
}
