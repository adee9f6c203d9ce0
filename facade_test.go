package streamone

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-streamone/adapters/gocommand"
	streamonecommand "github.com/goliatone/go-streamone/command"
	"github.com/goliatone/go-streamone/core"
	streamonequery "github.com/goliatone/go-streamone/query"
)

const okHeader = `{"header":{"status":0,"statusmessage":"OK"},`

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := New(testConfig(), WithHTTPExecutor(newFakeAPI(t)))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.StartSession == nil || commands.EndSession == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.HasToken == nil || queries.MyTokens == nil || queries.Roles == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if facade.Session() == nil || facade.Platform() == nil {
		t.Fatalf("expected platform and session")
	}
}

func TestNewFacade_RequiresPlatform(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil platform error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

func TestNew_PropagatesConfigValidation(t *testing.T) {
	if _, err := New(Config{AuthenticationType: AuthenticationTypeApplication}); err == nil {
		t.Fatalf("expected missing credentials to fail")
	}
}

func TestFacade_ActorFollowsSessionState(t *testing.T) {
	api := newFakeAPI(t)
	facade, err := New(testConfig(), WithHTTPExecutor(api))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()

	if facade.Actor(ctx).Session() != nil {
		t.Fatalf("expected application actor without a session")
	}
	if err := facade.Commands().StartSession.Execute(ctx, streamonecommand.StartSessionMessage{
		Username: "user",
		Password: "password",
		IP:       "127.0.0.1",
	}); err != nil {
		t.Fatalf("start session: %v", err)
	}
	actor := facade.Actor(ctx)
	if actor.Session() == nil || actor.Type() != core.ActorTypeUser {
		t.Fatalf("expected session actor, got type %q", actor.Type())
	}

	roles, err := facade.Queries().Roles.Query(ctx, streamonequery.RolesMessage{})
	if err != nil {
		t.Fatalf("roles query: %v", err)
	}
	if len(roles) != 1 || roles[0].Role.ID != "r1" {
		t.Fatalf("unexpected roles: %#v", roles)
	}
	if api.count("/user/getmyroles") != 1 {
		t.Fatalf("expected user roles call, got %v", api.paths())
	}
}

func TestFacade_RegisterDispatchesThroughGoCommand(t *testing.T) {
	api := newFakeAPI(t)
	facade, err := New(testConfig(), WithHTTPExecutor(api))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	adapter := gocommand.NewRegistryAdapter(nil)
	subscriptions, err := facade.Register(adapter)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer subscriptions.Unsubscribe()
	if len(subscriptions) != 5 {
		t.Fatalf("expected five subscriptions, got %d", len(subscriptions))
	}
	if types := adapter.MessageTypes(); len(types) != 5 {
		t.Fatalf("expected five bound message types, got %v", types)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	collector := gocmd.NewResult[streamonecommand.StartSessionResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := gocommand.Dispatch(ctx, streamonecommand.StartSessionMessage{
		Username: "user",
		Password: "password",
		IP:       "127.0.0.1",
	}); err != nil {
		t.Fatalf("dispatch start session: %v", err)
	}
	result, ok := collector.Load()
	if !ok || result.UserID != "user-1" {
		t.Fatalf("unexpected start result %#v", result)
	}

	allowed, err := gocommand.Query[streamonequery.HasTokenMessage, bool](context.Background(), streamonequery.HasTokenMessage{
		Token: "item-view",
		Scope: streamonequery.Scope{Accounts: []string{"acc1"}},
	})
	if err != nil {
		t.Fatalf("query has token: %v", err)
	}
	if !allowed {
		t.Fatalf("expected item-view on acc1")
	}

	if err := gocommand.Dispatch(context.Background(), streamonecommand.EndSessionMessage{}); err != nil {
		t.Fatalf("dispatch end session: %v", err)
	}
	if facade.Session().IsActive(context.Background()) {
		t.Fatalf("expected session to be ended")
	}
	if api.count("/session/delete") != 1 {
		t.Fatalf("expected one delete call, got %v", api.paths())
	}
}

func TestWithConfigFile_LoadsCredentials(t *testing.T) {
	t.Setenv("STREAMONE_DEFAULT_ACCOUNT_ID", "acc-env")
	path := filepath.Join(t.TempDir(), "streamone.yaml")
	content := "authentication_type: application\nauthenticator_id: file-app\nauthenticator_psk: file-psk\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	platform, err := NewPlatform(Config{}, WithConfigFile(path), WithHTTPExecutor(newFakeAPI(t)))
	if err != nil {
		t.Fatalf("new platform: %v", err)
	}
	cfg := platform.Config()
	if cfg.AuthenticatorID != "file-app" || cfg.AuthenticatorPSK != "file-psk" {
		t.Fatalf("unexpected credentials: %#v", cfg)
	}
	if cfg.DefaultAccountID != "acc-env" {
		t.Fatalf("expected env override for default account, got %q", cfg.DefaultAccountID)
	}
	if cfg.APIURL != core.DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
}

func testConfig() Config {
	return Config{
		APIURL:             "https://api.example.test",
		AuthenticationType: AuthenticationTypeApplication,
		AuthenticatorID:    "app-1",
		AuthenticatorPSK:   "psk-1",
	}
}

// fakeAPI answers the calls made by the session and actor flows.
type fakeAPI struct {
	t     *testing.T
	mu    sync.Mutex
	calls []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{t: t}
}

func (a *fakeAPI) Send(_ context.Context, rawURL string, _ []byte) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		a.t.Errorf("invalid url %q: %v", rawURL, err)
		return nil, err
	}
	path := strings.TrimPrefix(parsed.Path, "/api")
	a.mu.Lock()
	a.calls = append(a.calls, path)
	a.mu.Unlock()

	switch path {
	case "/session/initialize":
		return []byte(okHeader + `"body":{"challenge":"OTzt9VSAQHQSFuEf03PZT6e5P4OoS1sw","salt":"$2y$04$jyhye3p43mjoxvtfxflfkv","needsv2hash":true}}`), nil
	case "/session/create":
		return []byte(okHeader + `"body":{"id":"session-1","key":"session-key","timeout":3600,"user":"user-1"}}`), nil
	case "/session/delete":
		return []byte(okHeader + `"body":null}`), nil
	case "/user/getmyroles", "/application/getmyroles":
		return []byte(okHeader + `"body":[{"role":{"id":"r1","name":"editor","tokens":["item-view"]},"account":{"id":"acc1","name":"Account 1"}}]}`), nil
	case "/api/mytokens":
		return []byte(okHeader + `"body":["item-view"]}`), nil
	}
	a.t.Errorf("unexpected api call %q", rawURL)
	return []byte(`{"header":{"status":1,"statusmessage":"unknown"},"body":null}`), nil
}

func (a *fakeAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, call := range a.calls {
		if call == path {
			n++
		}
	}
	return n
}

func (a *fakeAPI) paths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}
