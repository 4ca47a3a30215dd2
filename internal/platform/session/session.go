// Package session keeps console sessions: who is signed in, the upstream
// cookies acting on their behalf and the small amount of page state that
// has to survive a redirect.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"emsconsole/internal/domain/leave"
	"emsconsole/internal/platform/crypto"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID          string            `json:"id"`
	UserID      string            `json:"uid"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        string            `json:"role"`
	Credentials map[string]string `json:"credentials"`
	Locale      string            `json:"locale,omitempty"`
	Draft       leave.Draft       `json:"draft"`
	Selection   []string          `json:"selection,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}

type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

func New(user User, credentials map[string]string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Credentials: credentials,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL is the time left before expiry, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Store persists sessions. Load returns ErrNotFound for unknown or expired ids.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// Sweep removes sessions expired at now and reports how many it removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	Ping(ctx context.Context) error
}

// Codec seals sessions at rest; the upstream cookies in them are bearer
// credentials.
type Codec struct {
	crypto *crypto.Service
}

func NewCodec(secret string) (*Codec, error) {
	svc, err := crypto.New(secret)
	if err != nil {
		return nil, fmt.Errorf("session codec: %w", err)
	}
	return &Codec{crypto: svc}, nil
}

func (c *Codec) Seal(s *Session) ([]byte, error) {
	plain, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	sealed, err := c.crypto.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("seal session: %w", err)
	}
	return sealed, nil
}

func (c *Codec) Open(sealed []byte) (*Session, error) {
	plain, err := c.crypto.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
