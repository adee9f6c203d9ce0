package security

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-streamone/core"
)

func TestAppKeyCipherRoundTrip(t *testing.T) {
	c, err := NewAppKeyCipherFromString("super-secret-test-key", WithKeyID("streamone-v1"), WithVersion(3))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	plaintext := []byte("session-key-123")
	encrypted, err := c.Encrypt(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Fatalf("expected plaintext to be hidden")
	}
	if !IsEnvelope(encrypted) {
		t.Fatalf("expected envelope prefix")
	}
	meta, err := ParseEnvelopeMetadata(encrypted)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.KeyID != "streamone-v1" || meta.Version != 3 || meta.Algorithm != "aes-256-gcm" {
		t.Fatalf("unexpected metadata %#v", meta)
	}

	decrypted, err := c.Decrypt(context.Background(), encrypted)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("expected round trip, got %q", decrypted)
	}
}

func TestAppKeyCipherRejectsMismatchAndTampering(t *testing.T) {
	issuer, _ := NewAppKeyCipherFromString("super-secret-test-key", WithKeyID("v1"), WithVersion(1))
	receiver, _ := NewAppKeyCipherFromString("super-secret-test-key", WithKeyID("v2"), WithVersion(2))
	otherKey, _ := NewAppKeyCipherFromString("another-key", WithKeyID("v1"), WithVersion(1))
	ctx := context.Background()

	encrypted, err := issuer.Encrypt(ctx, []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := receiver.Decrypt(ctx, encrypted); err == nil {
		t.Fatalf("expected metadata mismatch error")
	}
	if _, err := otherKey.Decrypt(ctx, encrypted); err == nil {
		t.Fatalf("expected authentication failure with a different key")
	}
	if _, err := issuer.Decrypt(ctx, []byte("plain")); err == nil {
		t.Fatalf("expected prefix error")
	}
	if _, err := issuer.Encrypt(ctx, nil); err == nil {
		t.Fatalf("expected empty plaintext to be rejected")
	}
	if _, err := NewAppKeyCipher([]byte("  ")); err == nil {
		t.Fatalf("expected empty key material to be rejected")
	}
}

func TestSealedSessionStoreEncryptsKeyAtRest(t *testing.T) {
	inner := core.NewMemorySessionStore()
	c, _ := NewAppKeyCipherFromString("app-key")
	store, err := NewSealedSessionStore(inner, c)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.SetSession(ctx, core.SessionIdentity{ID: "sid", Key: "skey", UserID: "u"}, time.Hour); err != nil {
		t.Fatalf("set session: %v", err)
	}
	raw, err := inner.Key(ctx)
	if err != nil {
		t.Fatalf("inner key: %v", err)
	}
	if raw == "skey" || !strings.HasPrefix(raw, envelopePrefix) {
		t.Fatalf("expected sealed key at rest, got %q", raw)
	}
	key, err := store.Key(ctx)
	if err != nil || key != "skey" {
		t.Fatalf("expected opened key, got %q %v", key, err)
	}
	if id, _ := store.ID(ctx); id != "sid" {
		t.Fatalf("expected id to pass through, got %q", id)
	}

	_ = inner.SetSession(ctx, core.SessionIdentity{ID: "sid", Key: "legacy", UserID: "u"}, time.Hour)
	if key, _ := store.Key(ctx); key != "legacy" {
		t.Fatalf("expected unsealed values to pass through, got %q", key)
	}
}

type failingCipher struct{}

func (failingCipher) Encrypt(context.Context, []byte) ([]byte, error) {
	return nil, errors.New("kms unavailable")
}

func (failingCipher) Decrypt(context.Context, []byte) ([]byte, error) {
	return nil, errors.New("kms unavailable")
}

func TestSealedSessionStoreReportsCipherFailures(t *testing.T) {
	store, _ := NewSealedSessionStore(core.NewMemorySessionStore(), failingCipher{})
	err := store.SetSession(context.Background(), core.SessionIdentity{ID: "sid", Key: "skey", UserID: "u"}, time.Hour)
	if !core.HasTextCode(err, core.ErrorStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
	if store.HasSession(context.Background()) {
		t.Fatalf("expected nothing to be stored")
	}
	if _, err := NewSealedSessionStore(nil, failingCipher{}); err == nil {
		t.Fatalf("expected missing store to be rejected")
	}
}

func TestSealedSessionStoreSignsWithOpenedKey(t *testing.T) {
	c, _ := NewAppKeyCipherFromString("app-key")
	store, _ := NewSealedSessionStore(core.NewMemorySessionStore(), c)
	platform, err := core.NewPlatform(core.Config{
		APIURL:             "https://api.example.test",
		AuthenticationType: core.AuthenticationTypeApplication,
		AuthenticatorID:    "app",
		AuthenticatorPSK:   "psk",
	}, core.WithSessionStore(store))
	if err != nil {
		t.Fatalf("new platform: %v", err)
	}
	ctx := context.Background()
	_ = store.SetSession(ctx, core.SessionIdentity{ID: "sid", Key: "skey", UserID: "u"}, time.Hour)

	req, err := platform.NewSession().NewRequest(ctx, "session", "delete")
	if err != nil {
		t.Fatalf("session request: %v", err)
	}
	prepared, err := req.Prepare(ctx, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if prepared.Signature != "bec0f5c886c22eb8d62f5558e496f99584c75ebb" {
		t.Fatalf("expected signature with the opened session key, got %q", prepared.Signature)
	}
}
