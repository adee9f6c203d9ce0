package core

import (
	"context"
	"testing"
	"time"
)

func TestMemorySessionStoreLifecycle(t *testing.T) {
	clock := newFakeClock()
	store := NewMemorySessionStore(WithSessionStoreClock(clock))
	ctx := context.Background()

	if store.HasSession(ctx) {
		t.Fatalf("expected empty store")
	}
	if _, err := store.ID(ctx); !IsNoActiveSession(err) {
		t.Fatalf("expected no active session, got %v", err)
	}
	if err := store.SetCacheValue(ctx, "k", []byte("v")); !IsNoActiveSession(err) {
		t.Fatalf("expected cache writes to need a session, got %v", err)
	}

	if err := store.SetSession(ctx, SessionIdentity{ID: "sid", Key: "skey", UserID: "u"}, 30*time.Second); err != nil {
		t.Fatalf("set session: %v", err)
	}
	clock.Advance(10 * time.Second)
	if timeout, _ := store.Timeout(ctx); timeout != 20*time.Second {
		t.Fatalf("expected remaining timeout, got %v", timeout)
	}
	if err := store.SetTimeout(ctx, time.Minute); err != nil {
		t.Fatalf("set timeout: %v", err)
	}
	clock.Advance(45 * time.Second)
	if !store.HasSession(ctx) {
		t.Fatalf("expected refreshed session to survive")
	}

	clock.Advance(16 * time.Second)
	if store.HasSession(ctx) {
		t.Fatalf("expected session to expire")
	}
	if err := store.SetTimeout(ctx, time.Minute); !IsNoActiveSession(err) {
		t.Fatalf("expected expired session to refuse refresh, got %v", err)
	}
}

func TestMemorySessionStoreRequiresCompleteIdentity(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	_ = store.SetSession(ctx, SessionIdentity{ID: "sid", Key: "skey"}, time.Hour)
	if store.HasSession(ctx) {
		t.Fatalf("expected a session without user id to be inactive")
	}
}

func TestMemorySessionStoreCacheValues(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	_ = store.SetSession(ctx, SessionIdentity{ID: "sid", Key: "skey", UserID: "u"}, time.Hour)

	if _, err := store.CacheValue(ctx, "missing"); !IsNoSuchCacheKey(err) {
		t.Fatalf("expected no such cache key, got %v", err)
	}
	value := []byte("v1")
	if err := store.SetCacheValue(ctx, "k", value); err != nil {
		t.Fatalf("set cache value: %v", err)
	}
	value[0] = 'x'
	got, err := store.CacheValue(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("expected stored copy, got %q %v", got, err)
	}
	if ok, _ := store.HasCacheKey(ctx, "k"); !ok {
		t.Fatalf("expected cache key")
	}
	if err := store.UnsetCacheKey(ctx, "k"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if ok, _ := store.HasCacheKey(ctx, "k"); ok {
		t.Fatalf("expected cache key to be removed")
	}

	_ = store.SetCacheValue(ctx, "k", []byte("v"))
	_ = store.ClearSession(ctx)
	_ = store.SetSession(ctx, SessionIdentity{ID: "sid2", Key: "skey", UserID: "u"}, time.Hour)
	if ok, _ := store.HasCacheKey(ctx, "k"); ok {
		t.Fatalf("expected cache to be dropped with the session")
	}
}
