package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	defaultClientTimeout           = 30 * time.Second
	defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB
	formContentType                = "application/x-www-form-urlencoded"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPExecutor posts form bodies to the API and returns the raw payload.
type HTTPExecutor struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
	Timeout              time.Duration
}

type Option func(*HTTPExecutor)

func WithTimeout(timeout time.Duration) Option {
	return func(e *HTTPExecutor) {
		if timeout > 0 {
			e.Timeout = timeout
		}
	}
}

func WithHeader(key string, value string) Option {
	return func(e *HTTPExecutor) {
		if strings.TrimSpace(key) != "" {
			e.DefaultHeaders[strings.TrimSpace(key)] = value
		}
	}
}

func WithMaxResponseBodyBytes(limit int64) Option {
	return func(e *HTTPExecutor) {
		if limit > 0 {
			e.MaxResponseBodyBytes = limit
		}
	}
}

func NewHTTPExecutor(client HTTPDoer, opts ...Option) *HTTPExecutor {
	executor := &HTTPExecutor{
		Client:               client,
		DefaultHeaders:       map[string]string{"Accept": "application/json"},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
		Timeout:              defaultClientTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(executor)
		}
	}
	if executor.Client == nil {
		executor.Client = &http.Client{Timeout: executor.Timeout}
	}
	return executor
}

// Send posts body to rawURL. Any HTTP status is accepted; the API reports
// failures inside the JSON envelope.
func (e *HTTPExecutor) Send(ctx context.Context, rawURL string, body []byte) ([]byte, error) {
	if e == nil || e.Client == nil {
		return nil, sendFailure(
			nil,
			goerrors.CategoryInternal,
			"transport: http executor requires an http client",
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, sendFailure(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			map[string]any{"url": rawURL},
		)
	}
	if parsedURL.Host == "" {
		return nil, sendFailure(
			nil,
			goerrors.CategoryBadInput,
			"transport: request url has no host",
			map[string]any{"url": rawURL},
		)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, parsedURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, sendFailure(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			map[string]any{"url": parsedURL.Redacted()},
		)
	}
	for key, value := range e.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Content-Type", formContentType)

	httpRes, err := e.Client.Do(httpReq)
	if err != nil {
		return nil, sendFailure(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			map[string]any{"path": parsedURL.Path},
		)
	}
	defer httpRes.Body.Close()

	limit := e.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return nil, sendFailure(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			map[string]any{"status_code": httpRes.StatusCode},
		)
	}
	if int64(len(payload)) > limit {
		return nil, sendFailure(
			nil,
			goerrors.CategoryExternal,
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			map[string]any{
				"status_code":      httpRes.StatusCode,
				"response_limit_b": limit,
			},
		)
	}
	return payload, nil
}
