package crypto

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New("console-secret-for-tests")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	plain := []byte(`{"session":"upstream-cookie"}`)
	sealed, err := svc.Encrypt(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed payload must not contain the plaintext")
	}
	opened, err := svc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("expected %q, got %q", plain, opened)
	}
}

func TestDecryptRejectsOtherSecret(t *testing.T) {
	a, _ := New("secret-a")
	b, _ := New("secret-b")
	sealed, err := a.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := b.Decrypt(sealed); err == nil {
		t.Fatal("expected decrypt with another secret to fail")
	}
	if _, err := a.Decrypt([]byte{1, 2}); err != ErrCiphertextTooShort {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestDeriveKeySeparatesPurposes(t *testing.T) {
	seal, err := DeriveKey("shared", PurposeSessionSeal, 32)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	sign, err := DeriveKey("shared", PurposeCookieSign, 32)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if bytes.Equal(seal, sign) {
		t.Fatal("expected distinct keys per purpose")
	}
	again, _ := DeriveKey("shared", PurposeSessionSeal, 32)
	if !bytes.Equal(seal, again) {
		t.Fatal("expected derivation to be deterministic")
	}
	if _, err := DeriveKey("", PurposeSessionSeal, 32); err == nil {
		t.Fatal("expected empty secret to be rejected")
	}
}
