package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Manager ties the store to the signed browser cookie.
type Manager struct {
	Store  Store
	signer *Signer
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, signer *Signer, ttl time.Duration, secureCookie bool) *Manager {
	return &Manager{Store: store, signer: signer, ttl: ttl, secure: secureCookie, now: time.Now}
}

// Start persists a fresh session for user and sets its cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, user User, credentials map[string]string) (*Session, error) {
	sess := New(user, credentials, m.now(), m.ttl)
	if err := m.Store.Save(ctx, sess); err != nil {
		return nil, err
	}
	token, err := m.signer.Sign(sess)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, newCookie(token, sess.ExpiresAt, m.secure))
	return sess, nil
}

// FromRequest resolves the session named by the request cookie. Missing,
// forged and expired cookies all yield ErrNotFound.
func (m *Manager) FromRequest(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNotFound
	}
	claims, err := m.signer.Parse(cookie.Value)
	if err != nil {
		return nil, ErrNotFound
	}
	sess, err := m.Store.Load(r.Context(), claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (m *Manager) Save(ctx context.Context, sess *Session) error {
	return m.Store.Save(ctx, sess)
}

// Destroy deletes the session (when there is one) and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	http.SetCookie(w, newCookie("", time.Time{}, m.secure))
	if sess == nil {
		return nil
	}
	if err := m.Store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
