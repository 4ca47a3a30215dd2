package session

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"emsconsole/internal/domain/leave"
	"emsconsole/internal/platform/db"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func sample(now time.Time) *Session {
	sess := New(User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "admin"},
		map[string]string{"session": "upstream-secret-cookie"}, now, time.Hour)
	sess.Draft = leave.Draft{LeaveType: "vacation", Reason: "family trip"}
	return sess
}

func TestCodecSealsCredentials(t *testing.T) {
	codec := newCodec(t)
	sealed, err := codec.Seal(sample(time.Now()))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("upstream-secret-cookie")) {
		t.Fatalf("sealed payload leaks the upstream cookie")
	}
	opened, err := codec.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.Credentials["session"] != "upstream-secret-cookie" || opened.Draft.Reason != "family trip" {
		t.Fatalf("round trip lost data: %+v", opened)
	}

	other, err := NewCodec("another-secret-another-secret-xx")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if _, err := other.Open(sealed); err == nil {
		t.Fatalf("a different secret must not open the session")
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	sess := sample(time.Now())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.UserID != "u1" || loaded.Role != "admin" {
		t.Fatalf("unexpected session %+v", loaded)
	}
	loaded.Selection = []string{"e1", "e2"}
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	again, err := store.Load(ctx, sess.ID)
	if err != nil || len(again.Selection) != 2 {
		t.Fatalf("update not persisted: %+v, %v", again, err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(newCodec(t)))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(newCodec(t))
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	sess := sample(now)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := store.Load(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session should not load, got %v", err)
	}
	removed, err := store.Sweep(ctx, now)
	if err != nil || removed != 1 {
		t.Fatalf("Sweep = %d, %v", removed, err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := NewRedisClient(addr, "", 0)
	defer client.Close()
	exerciseStore(t, NewRedisStore(client, newCodec(t)))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := NewPostgresStore(pool, newCodec(t))
	exerciseStore(t, store)

	old := sample(time.Now().Add(-2 * time.Hour))
	if err := store.Save(ctx, old); err != nil {
		t.Fatalf("Save: %v", err)
	}
	removed, err := store.Sweep(ctx, time.Now())
	if err != nil || removed < 1 {
		t.Fatalf("Sweep = %d, %v", removed, err)
	}
}

func TestSignerRejectsTampering(t *testing.T) {
	signer, err := NewSigner(testSecret)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	sess := sample(time.Now())
	token, err := signer.Sign(sess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.SessionID != sess.ID || claims.Subject != "u1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	other, _ := NewSigner("another-secret-another-secret-xx")
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key should be rejected, got %v", err)
	}
	if _, err := signer.Parse(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token should be rejected, got %v", err)
	}
}

func TestManagerCookieFlow(t *testing.T) {
	signer, _ := NewSigner(testSecret)
	mgr := NewManager(NewMemoryStore(newCodec(t)), signer, time.Hour, true)

	rec := httptest.NewRecorder()
	sess, err := mgr.Start(context.Background(), rec, User{ID: "u1", Role: "employee"}, map[string]string{"session": "x"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/employee/dashboard", nil)
	req.AddCookie(cookies[0])
	loaded, err := mgr.FromRequest(req)
	if err != nil || loaded.ID != sess.ID {
		t.Fatalf("FromRequest = %+v, %v", loaded, err)
	}

	rec = httptest.NewRecorder()
	if err := mgr.Destroy(context.Background(), rec, loaded); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := mgr.FromRequest(req); !errors.Is(err, ErrNotFound) {
		t.Fatalf("destroyed session still resolves: %v", err)
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Fatalf("logout should expire the cookie: %+v", c)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := mgr.FromRequest(bare); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing cookie should be ErrNotFound, got %v", err)
	}
}
