package security

import (
	"context"
	"time"

	"github.com/goliatone/go-streamone/core"
)

// SealedSessionStore encrypts the session key before it reaches the wrapped
// store. Every other value passes through unchanged.
type SealedSessionStore struct {
	core.SessionStore
	cipher Cipher
}

func NewSealedSessionStore(store core.SessionStore, cipher Cipher) (*SealedSessionStore, error) {
	if store == nil {
		return nil, core.InternalError("security: session store is required")
	}
	if cipher == nil {
		return nil, core.InternalError("security: cipher is required")
	}
	return &SealedSessionStore{SessionStore: store, cipher: cipher}, nil
}

func (s *SealedSessionStore) SetSession(ctx context.Context, identity core.SessionIdentity, timeout time.Duration) error {
	sealed, err := s.cipher.Encrypt(ctx, []byte(identity.Key))
	if err != nil {
		return core.StoreFailure(err, "security: seal session key")
	}
	identity.Key = string(sealed)
	return s.SessionStore.SetSession(ctx, identity, timeout)
}

// Key opens the stored key. Values written before sealing was enabled are
// returned as stored.
func (s *SealedSessionStore) Key(ctx context.Context) (string, error) {
	stored, err := s.SessionStore.Key(ctx)
	if err != nil {
		return "", err
	}
	if !IsEnvelope([]byte(stored)) {
		return stored, nil
	}
	opened, err := s.cipher.Decrypt(ctx, []byte(stored))
	if err != nil {
		return "", core.StoreFailure(err, "security: open session key")
	}
	return string(opened), nil
}

var _ core.SessionStore = (*SealedSessionStore)(nil)
