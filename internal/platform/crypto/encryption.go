package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	PurposeSessionSeal = "ems-console/session-seal/v1"
	PurposeCookieSign  = "ems-console/cookie-sign/v1"
	PurposeCSRF        = "ems-console/csrf/v1"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey expands the application secret into an independent key per purpose.
func DeriveKey(secret, purpose string, size int) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid key size %d", size)
	}
	out := make([]byte, size)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return out, nil
}

// RandomSecret is used for development runs started without SESSION_SECRET.
// Sessions do not survive a restart then.
func RandomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

type Service struct {
	aead cipher.AEAD
}

func New(secret string) (*Service, error) {
	key, err := DeriveKey(secret, PurposeSessionSeal, 32)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: gcm}, nil
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := s.aead.Seal(nil, nonce, plain, nil)
	return append(nonce, ciphertext...), nil
}

func (s *Service) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, nil
	}
	if len(ciphertext) < s.aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce := ciphertext[:s.aead.NonceSize()]
	data := ciphertext[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, data, nil)
}
