package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	apiVersion      = "3"
	defaultProtocol = "https"
	requestCacheTag = "s1:request:"
)

var apiURLPattern = regexp.MustCompile(`^(?:([a-zA-Z0-9+.-]+):/?/?)?([^/]*)(.*)$`)

// SplitAPIURL breaks an endpoint into protocol, host and path prefix. The
// protocol is empty when the URL carries none.
func SplitAPIURL(apiURL string) (protocol string, host string, prefix string) {
	match := apiURLPattern.FindStringSubmatch(apiURL)
	if match == nil {
		return "", apiURL, ""
	}
	return match[1], match[2], match[3]
}

// Request is a single use call to command/action. It is not safe for
// concurrent mutation.
type Request struct {
	platform   *Platform
	command    string
	action     string
	parameters map[string]string
	arguments  map[string]string
	protocol   string
	auth       AuthStrategy
}

func newRequest(platform *Platform, command string, action string, auth AuthStrategy) *Request {
	cfg := platform.Config()
	r := &Request{
		platform: platform,
		command:  command,
		action:   action,
		parameters: map[string]string{
			"api":                 apiVersion,
			"format":              "json",
			"authentication_type": cfg.AuthenticationType.String(),
		},
		arguments: map[string]string{},
		auth:      auth,
	}
	if cfg.HasDefaultAccount() {
		r.parameters["account"] = cfg.DefaultAccountID
	}
	return r
}

func (r *Request) Command() string { return r.command }

func (r *Request) Action() string { return r.action }

func (r *Request) Path() string {
	return "/api/" + r.command + "/" + r.action
}

// Parameters returns a copy of the query parameters, excluding signing
// fields.
func (r *Request) Parameters() map[string]string {
	return copyStringMap(r.parameters)
}

func (r *Request) Arguments() map[string]string {
	return copyStringMap(r.arguments)
}

func (r *Request) SetParameter(key string, value string) *Request {
	r.parameters[key] = value
	return r
}

func (r *Request) Account() (string, bool) {
	value, ok := r.parameters["account"]
	return value, ok
}

// SetAccount scopes the request to one account and drops any customer.
func (r *Request) SetAccount(id string) *Request {
	r.parameters["account"] = id
	delete(r.parameters, "customer")
	return r
}

// ClearAccount removes the account scope, including the configured default.
func (r *Request) ClearAccount() *Request {
	delete(r.parameters, "account")
	return r
}

func (r *Request) Accounts() []string {
	value, ok := r.parameters["account"]
	if !ok {
		return nil
	}
	return strings.Split(value, ",")
}

func (r *Request) SetAccounts(ids []string) *Request {
	return r.SetAccount(strings.Join(ids, ","))
}

func (r *Request) Customer() (string, bool) {
	value, ok := r.parameters["customer"]
	return value, ok
}

// SetCustomer scopes the request to a customer and drops any account.
func (r *Request) SetCustomer(id string) *Request {
	r.parameters["customer"] = id
	delete(r.parameters, "account")
	return r
}

func (r *Request) ClearCustomer() *Request {
	delete(r.parameters, "customer")
	return r
}

func (r *Request) Timezone() (*time.Location, bool) {
	name, ok := r.parameters["timezone"]
	if !ok {
		return nil, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	return loc, true
}

func (r *Request) SetTimezone(loc *time.Location) *Request {
	if loc == nil {
		delete(r.parameters, "timezone")
		return r
	}
	r.parameters["timezone"] = loc.String()
	return r
}

// SetArgument stores value in its string form; nil becomes an empty string.
func (r *Request) SetArgument(key string, value any) *Request {
	r.arguments[key] = formatArgument(value)
	return r
}

// SetArgumentList joins the values with commas.
func (r *Request) SetArgumentList(key string, values []any) *Request {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, formatArgument(value))
	}
	r.arguments[key] = strings.Join(parts, ",")
	return r
}

func formatArgument(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		if typed {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

// SetProtocol overrides the protocol taken from the API URL.
func (r *Request) SetProtocol(protocol string) *Request {
	r.protocol = strings.TrimSpace(protocol)
	return r
}

// Protocol returns the scheme prefix used for the request, such as
// "https://".
func (r *Request) Protocol() string {
	if r.protocol != "" {
		return r.protocol + "://"
	}
	protocol, _, _ := SplitAPIURL(r.platform.Config().APIURL)
	if protocol == "" {
		protocol = defaultProtocol
	}
	return protocol + "://"
}

func (r *Request) CacheKey() string {
	return requestCacheTag + r.Path() + "?" + EncodeValues(r.parameters) + "#" + EncodeValues(r.arguments)
}

// PreparedRequest is a signed request ready to be sent.
type PreparedRequest struct {
	URL             string
	Body            []byte
	Parameters      map[string]string
	CanonicalString string
	Signature       string
}

// Prepare signs the request for the given instant.
func (r *Request) Prepare(ctx context.Context, at time.Time) (PreparedRequest, error) {
	if r.auth == nil {
		return PreparedRequest{}, InternalError("core: request has no authentication strategy")
	}
	signing := r.Parameters()
	signing["timestamp"] = strconv.FormatInt(at.Unix(), 10)
	if err := r.auth.SigningParameters(ctx, signing); err != nil {
		return PreparedRequest{}, err
	}
	key, err := r.auth.SigningKey(ctx)
	if err != nil {
		return PreparedRequest{}, err
	}

	canonical := CanonicalString(r.Path(), signing, r.arguments)
	signature := Signature(canonical, key)
	signing["signature"] = signature

	_, host, prefix := SplitAPIURL(r.platform.Config().APIURL)
	return PreparedRequest{
		URL:             r.Protocol() + host + prefix + r.Path() + "?" + EncodeValues(signing),
		Body:            []byte(EncodeValues(r.arguments)),
		Parameters:      signing,
		CanonicalString: canonical,
		Signature:       signature,
	}, nil
}

// Execute runs the request, serving it from the request cache when possible.
// It always returns a response; failures are reported on Response.Err.
func (r *Request) Execute(ctx context.Context) *Response {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	p := r.platform
	fields := map[string]any{
		"request_id": uuid.NewString(),
		"command":    r.command,
		"action":     r.action,
	}

	key := r.CacheKey()
	if resp, ok := r.fromCache(ctx, key); ok {
		fields["from_cache"] = true
		fields["cache_age_ms"] = resp.CacheAge.Milliseconds()
		p.observeRequest(ctx, startedAt, resp, fields)
		return resp
	}

	limitKey := r.rateLimitKey()
	if p.rateLimit != nil {
		if err := p.rateLimit.BeforeRequest(ctx, limitKey); err != nil {
			resp := ErrorResponse(MapError(err))
			p.observeRequest(ctx, startedAt, resp, fields)
			return resp
		}
	}

	prepared, err := r.Prepare(ctx, p.clock.Now())
	if err != nil {
		resp := ErrorResponse(err)
		p.observeRequest(ctx, startedAt, resp, fields)
		return resp
	}

	var resp *Response
	if p.executor == nil {
		resp = ErrorResponse(NetworkFailure(nil, "core: http executor is not configured"))
	} else {
		raw, sendErr := p.executor.Send(ctx, prepared.URL, prepared.Body)
		resp = ParseResponse(raw, sendErr)
	}
	r.auth.OnResponse(ctx, resp)
	if p.rateLimit != nil {
		if err := p.rateLimit.AfterResponse(ctx, limitKey, resp); err != nil {
			p.logger.Warn("rate limit state update failed", "error", err)
		}
	}

	if resp.Cacheable() {
		p.requestCache.Set(ctx, key, resp.Raw())
	}
	fields["from_cache"] = false
	p.observeRequest(ctx, startedAt, resp, fields)
	return resp
}

func (r *Request) rateLimitKey() RateLimitKey {
	return RateLimitKey{
		AuthenticatorID: r.platform.Config().AuthenticatorID,
		Command:         r.command,
		Action:          r.action,
	}
}

func (r *Request) fromCache(ctx context.Context, key string) (*Response, bool) {
	raw, ok := r.platform.requestCache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	resp := ParseResponse(raw, nil)
	resp.FromCache = true
	resp.CacheAge = r.platform.requestCache.Age(ctx, key)
	return resp, true
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
