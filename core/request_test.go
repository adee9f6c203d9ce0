package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRequestPrepareSignsWithPSK(t *testing.T) {
	platform := newTestPlatform(t, applicationConfig())
	req := platform.NewRequest("item", "view").SetArgument("id", "abc def")

	prepared, err := req.Prepare(context.Background(), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	expectedCanonical := "/api/item/view?api=3&application=app&authentication_type=application&format=json&timestamp=1700000000&id=abc+def"
	if prepared.CanonicalString != expectedCanonical {
		t.Fatalf("unexpected canonical string %q", prepared.CanonicalString)
	}
	if prepared.Signature != "2f553e485e346cd5212f36d95aed98d7a1fbaaf6" {
		t.Fatalf("unexpected signature %q", prepared.Signature)
	}
	expectedURL := "https://api.example.test/api/item/view?api=3&application=app&authentication_type=application&format=json&signature=2f553e485e346cd5212f36d95aed98d7a1fbaaf6&timestamp=1700000000"
	if prepared.URL != expectedURL {
		t.Fatalf("unexpected url %q", prepared.URL)
	}
	if string(prepared.Body) != "id=abc+def" {
		t.Fatalf("unexpected body %q", prepared.Body)
	}
	if _, ok := req.Parameters()["signature"]; ok {
		t.Fatalf("signing must not mutate request parameters")
	}
}

func TestSessionRequestSignsWithSessionKey(t *testing.T) {
	platform := newTestPlatform(t, applicationConfig())
	store := platform.SessionStore()
	if err := store.SetSession(context.Background(), SessionIdentity{ID: "sid", Key: "skey", UserID: "u"}, time.Hour); err != nil {
		t.Fatalf("set session: %v", err)
	}
	req, err := platform.NewSession().NewRequest(context.Background(), "session", "delete")
	if err != nil {
		t.Fatalf("session request: %v", err)
	}
	prepared, err := req.Prepare(context.Background(), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if prepared.Parameters["session"] != "sid" {
		t.Fatalf("expected session parameter, got %#v", prepared.Parameters)
	}
	if prepared.Signature != "bec0f5c886c22eb8d62f5558e496f99584c75ebb" {
		t.Fatalf("unexpected session signature %q", prepared.Signature)
	}
}

func TestRequestScopeIsMutuallyExclusive(t *testing.T) {
	platform := newTestPlatform(t, applicationConfig())
	req := platform.NewRequest("item", "list")

	req.SetCustomer("c1")
	req.SetAccounts([]string{"a1", "a2"})
	if _, ok := req.Customer(); ok {
		t.Fatalf("expected accounts to clear customer")
	}
	if got := strings.Join(req.Accounts(), "|"); got != "a1|a2" {
		t.Fatalf("unexpected accounts %q", got)
	}
	req.SetCustomer("c2")
	if _, ok := req.Account(); ok {
		t.Fatalf("expected customer to clear account")
	}
	req.ClearCustomer()
	if len(req.Parameters()) != 3 {
		t.Fatalf("expected only base parameters, got %#v", req.Parameters())
	}
}

func TestRequestDefaultAccountAndHelpers(t *testing.T) {
	cfg := applicationConfig()
	cfg.DefaultAccountID = "acc-default"
	platform := newTestPlatform(t, cfg)
	req := platform.NewRequest("item", "list")

	if account, ok := req.Account(); !ok || account != "acc-default" {
		t.Fatalf("expected default account, got %q", account)
	}
	req.ClearAccount()
	if _, ok := req.Account(); ok {
		t.Fatalf("expected account to be cleared")
	}

	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}
	req.SetTimezone(loc)
	if got, ok := req.Timezone(); !ok || got.String() != "Europe/Amsterdam" {
		t.Fatalf("unexpected timezone %v", got)
	}
	req.SetTimezone(nil)
	if _, ok := req.Timezone(); ok {
		t.Fatalf("expected timezone to be removed")
	}

	req.SetArgument("flag", true).
		SetArgument("count", 3).
		SetArgument("empty", nil).
		SetArgumentList("ids", []any{"a", 2, false})
	args := req.Arguments()
	if args["flag"] != "true" || args["count"] != "3" || args["empty"] != "" || args["ids"] != "a,2,false" {
		t.Fatalf("unexpected arguments %#v", args)
	}
}

func TestRequestProtocolResolution(t *testing.T) {
	cases := []struct {
		apiURL   string
		override string
		expected string
	}{
		{apiURL: "https://api.example.test", expected: "https://"},
		{apiURL: "http://localhost:8080/prefix", expected: "http://"},
		{apiURL: "api.example.test", expected: "https://"},
		{apiURL: "http://api.example.test", override: "https", expected: "https://"},
	}
	for _, tc := range cases {
		cfg := applicationConfig()
		cfg.APIURL = tc.apiURL
		req := newTestPlatform(t, cfg).NewRequest("item", "view")
		if tc.override != "" {
			req.SetProtocol(tc.override)
		}
		if got := req.Protocol(); got != tc.expected {
			t.Fatalf("%s: expected %q, got %q", tc.apiURL, tc.expected, got)
		}
	}

	protocol, host, prefix := SplitAPIURL("http://localhost:8080/prefix")
	if protocol != "http" || host != "localhost:8080" || prefix != "/prefix" {
		t.Fatalf("unexpected split %q %q %q", protocol, host, prefix)
	}
}

func TestRequestExecuteUsesCacheForCacheableResponses(t *testing.T) {
	executor := newRecordingExecutor().
		respond("item/view", `{"header":{"status":0,"statusmessage":"OK","cacheable":true},"body":{"id":"1"}}`).
		respond("item/list", okEnvelope(`[]`))
	cache := newMemoryCache()
	platform := newTestPlatform(t, applicationConfig(), WithHTTPExecutor(executor), WithRequestCache(cache))
	ctx := context.Background()

	first := platform.NewRequest("item", "view").SetArgument("id", "1").Execute(ctx)
	if !first.Success() || first.FromCache {
		t.Fatalf("expected fresh success, got %#v", first)
	}
	second := platform.NewRequest("item", "view").SetArgument("id", "1").Execute(ctx)
	if !second.Success() || !second.FromCache {
		t.Fatalf("expected cached success, got %#v", second)
	}
	if second.CacheAge != 0 {
		t.Fatalf("expected cache age from cache, got %v", second.CacheAge)
	}
	if executor.calls("item/view") != 1 {
		t.Fatalf("expected one network call, got %d", executor.calls("item/view"))
	}

	platform.NewRequest("item", "view").SetArgument("id", "2").Execute(ctx)
	if executor.calls("item/view") != 2 {
		t.Fatalf("expected different arguments to miss the cache")
	}

	platform.NewRequest("item", "list").Execute(ctx)
	platform.NewRequest("item", "list").Execute(ctx)
	if executor.calls("item/list") != 2 {
		t.Fatalf("expected non-cacheable responses to hit the network every time")
	}
	if cache.sets != 2 {
		t.Fatalf("expected only cacheable responses to be stored, got %d sets", cache.sets)
	}
}

func TestRequestExecuteReportsFailures(t *testing.T) {
	executor := newRecordingExecutor().
		fail("item/view", errors.New("connection refused")).
		respond("item/broken", `not json`).
		respond("item/denied", `{"header":{"status":4,"statusmessage":"access denied"},"body":null}`).
		respond("item/headerless", `{"body":{}}`)
	platform := newTestPlatform(t, applicationConfig(), WithHTTPExecutor(executor))
	ctx := context.Background()

	resp := platform.NewRequest("item", "view").Execute(ctx)
	if !IsNetworkFailure(ResponseError(resp)) {
		t.Fatalf("expected network failure, got %v", ResponseError(resp))
	}
	resp = platform.NewRequest("item", "broken").Execute(ctx)
	if !IsNetworkFailure(ResponseError(resp)) {
		t.Fatalf("expected invalid json to be a network failure, got %v", ResponseError(resp))
	}
	resp = platform.NewRequest("item", "denied").Execute(ctx)
	status, ok := APIStatus(ResponseError(resp))
	if !ok || status != StatusAccessDenied {
		t.Fatalf("expected access denied api error, got %v", ResponseError(resp))
	}
	resp = platform.NewRequest("item", "headerless").Execute(ctx)
	if resp.Valid() || ResponseError(resp) == nil {
		t.Fatalf("expected headerless response to be invalid")
	}
}

func TestRequestExecuteSendsFormBodyAndSignedQuery(t *testing.T) {
	executor := newRecordingExecutor().respond("item/create", okEnvelope(`{"id":"1"}`))
	clock := newFakeClock()
	platform := newTestPlatform(t, applicationConfig(), WithHTTPExecutor(executor), WithClock(clock))

	platform.NewRequest("item", "create").SetArgument("title", "hello world").Execute(context.Background())

	sent := executor.last()
	if sent.Body.Get("title") != "hello world" {
		t.Fatalf("unexpected form body %#v", sent.Body)
	}
	if sent.Query.Get("timestamp") != "1700000000" {
		t.Fatalf("expected clock timestamp, got %q", sent.Query.Get("timestamp"))
	}
	if len(sent.Query.Get("signature")) != 40 || sent.Query.Get("application") != "app" {
		t.Fatalf("unexpected query %#v", sent.Query)
	}
	if sent.Query.Get("title") != "" {
		t.Fatalf("arguments must not leak into the query string")
	}
}

func TestSessionRequestRefreshesTimeoutFromHeader(t *testing.T) {
	executor := newRecordingExecutor().
		respond("item/view", `{"header":{"status":0,"statusmessage":"OK","sessiontimeout":600},"body":{}}`)
	clock := newFakeClock()
	platform := newTestPlatform(t, applicationConfig(), WithHTTPExecutor(executor), WithClock(clock))
	ctx := context.Background()
	store := platform.SessionStore()
	if err := store.SetSession(ctx, SessionIdentity{ID: "sid", Key: "skey", UserID: "u"}, 10*time.Second); err != nil {
		t.Fatalf("set session: %v", err)
	}

	req, err := platform.NewSession().NewRequest(ctx, "item", "view")
	if err != nil {
		t.Fatalf("session request: %v", err)
	}
	req.Execute(ctx)
	timeout, err := store.Timeout(ctx)
	if err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if timeout != 600*time.Second {
		t.Fatalf("expected refreshed timeout, got %v", timeout)
	}
}

func TestRequestCacheKeyFormat(t *testing.T) {
	platform := newTestPlatform(t, applicationConfig())
	req := platform.NewRequest("item", "view").SetArgument("id", "1")
	expected := "s1:request:/api/item/view?api=3&authentication_type=application&format=json#id=1"
	if got := req.CacheKey(); got != expected {
		t.Fatalf("unexpected cache key %q", got)
	}
}
