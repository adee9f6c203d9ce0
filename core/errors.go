package core

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorNetworkFailure            = "STREAMONE_NETWORK_FAILURE"
	ErrorAPIError                  = "STREAMONE_API_ERROR"
	ErrorDecodeFailure             = "STREAMONE_DECODE_FAILURE"
	ErrorNoActiveSession           = "STREAMONE_NO_ACTIVE_SESSION"
	ErrorNoSuchCacheKey            = "STREAMONE_NO_SUCH_CACHE_KEY"
	ErrorUnsupportedAuthentication = "STREAMONE_UNSUPPORTED_AUTHENTICATION"
	ErrorChallengeFailure          = "STREAMONE_CHALLENGE_FAILURE"
	ErrorStoreFailure              = "STREAMONE_STORE_FAILURE"
	ErrorRateLimited               = "STREAMONE_RATE_LIMITED"
	ErrorBadInput                  = "STREAMONE_BAD_INPUT"
	ErrorInternal                  = "STREAMONE_INTERNAL_ERROR"
)

func NetworkFailure(source error, message string) *goerrors.Error {
	if strings.TrimSpace(message) == "" {
		message = "core: request failed"
	}
	if source == nil {
		return newStreamOneError(message, goerrors.CategoryExternal, ErrorNetworkFailure)
	}
	return ensureErrorEnvelope(
		goerrors.Wrap(source, goerrors.CategoryExternal, message).
			WithTextCode(ErrorNetworkFailure),
	)
}

// APIError reports a response whose header carried a non-OK status.
func APIError(status Status, message string) *goerrors.Error {
	text := strings.TrimSpace(message)
	if text == "" {
		text = status.String()
	}
	return ensureErrorEnvelope(
		goerrors.New(fmt.Sprintf("core: api returned status %d: %s", int(status), text), goerrors.CategoryOperation).
			WithTextCode(ErrorAPIError).
			WithMetadata(map[string]any{
				"status":         int(status),
				"status_message": message,
			}),
	)
}

func DecodeFailure(source error, message string) *goerrors.Error {
	if source == nil {
		return newStreamOneError(message, goerrors.CategoryBadInput, ErrorDecodeFailure)
	}
	return ensureErrorEnvelope(
		goerrors.Wrap(source, goerrors.CategoryBadInput, message).
			WithTextCode(ErrorDecodeFailure),
	)
}

func NoActiveSession() *goerrors.Error {
	return newStreamOneError("core: no active session", goerrors.CategoryAuth, ErrorNoActiveSession)
}

func NoSuchCacheKey(key string) *goerrors.Error {
	return newStreamOneError("core: no such session cache key", goerrors.CategoryNotFound, ErrorNoSuchCacheKey).
		WithMetadata(map[string]any{"key": key})
}

func UnsupportedAuthentication(authType AuthenticationType) *goerrors.Error {
	return newStreamOneError(
		fmt.Sprintf("core: session requests are not supported for %s authentication", authType),
		goerrors.CategoryBadInput,
		ErrorUnsupportedAuthentication,
	)
}

func ChallengeFailure(message string) *goerrors.Error {
	return newStreamOneError(message, goerrors.CategoryAuth, ErrorChallengeFailure)
}

// StoreFailure wraps a session store backend error.
func StoreFailure(source error, message string) *goerrors.Error {
	if strings.TrimSpace(message) == "" {
		message = "core: session store failure"
	}
	if source == nil {
		return newStreamOneError(message, goerrors.CategoryExternal, ErrorStoreFailure)
	}
	return ensureErrorEnvelope(
		goerrors.Wrap(source, goerrors.CategoryExternal, message).
			WithTextCode(ErrorStoreFailure),
	)
}

// InvalidMessage reports every field of a command or query message that
// failed validation.
func InvalidMessage(messageType string, fields goerrors.ValidationErrors) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.NewValidation(fmt.Sprintf("%s: %s", messageType, fields.Error()), fields...).
			WithTextCode(ErrorBadInput).
			WithSeverity(goerrors.SeverityError).
			WithMetadata(map[string]any{"message_type": messageType}),
	)
}

// RateLimited reports a request refused locally while the API is throttling
// the caller.
func RateLimited(key RateLimitKey, retryAfter time.Duration) *goerrors.Error {
	metadata := map[string]any{
		"command": key.Command,
		"action":  key.Action,
	}
	if retryAfter > 0 {
		metadata["retry_after_ms"] = retryAfter.Milliseconds()
	}
	return newStreamOneError(
		fmt.Sprintf("core: %s/%s throttled for %s", key.Command, key.Action, retryAfter),
		goerrors.CategoryRateLimit,
		ErrorRateLimited,
	).WithMetadata(metadata)
}

func InternalError(message string) *goerrors.Error {
	return newStreamOneError(message, goerrors.CategoryInternal, ErrorInternal)
}

// HasTextCode reports whether err is a go-errors envelope with the given text
// code anywhere in its chain.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return false
	}
	return rich.TextCode == code
}

func IsNoActiveSession(err error) bool {
	return HasTextCode(err, ErrorNoActiveSession)
}

func IsNoSuchCacheKey(err error) bool {
	return HasTextCode(err, ErrorNoSuchCacheKey)
}

func IsAPIError(err error) bool {
	return HasTextCode(err, ErrorAPIError)
}

func IsNetworkFailure(err error) bool {
	return HasTextCode(err, ErrorNetworkFailure)
}

func IsRateLimited(err error) bool {
	return HasTextCode(err, ErrorRateLimited)
}

// APIStatus extracts the header status from an API error.
func APIStatus(err error) (Status, bool) {
	var rich *goerrors.Error
	if err == nil || !goerrors.As(err, &rich) || rich == nil || rich.TextCode != ErrorAPIError {
		return StatusUnknown, false
	}
	switch value := rich.Metadata["status"].(type) {
	case int:
		return Status(value), true
	case float64:
		return Status(int(value)), true
	default:
		return StatusUnknown, false
	}
}

// MapError normalises arbitrary errors into the go-errors envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureErrorEnvelope(rich)
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newStreamOneError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}
	return ensureErrorEnvelope(goerrors.MapToError(err, goerrors.DefaultErrorMappers()))
}

func newStreamOneError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = errorHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNoSuchCacheKey
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorNoActiveSession
	case goerrors.CategoryExternal:
		return ErrorNetworkFailure
	case goerrors.CategoryOperation:
		return ErrorAPIError
	case goerrors.CategoryRateLimit:
		return ErrorRateLimited
	default:
		return ErrorInternal
	}
}

func errorHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
