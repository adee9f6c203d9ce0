package core

import "strings"

const RedactedValue = "[REDACTED]"

// RedactSensitiveMap returns a copy of fields with credential material
// replaced by RedactedValue. Nested maps and slices are walked.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	return redactMap(fields)
}

func redactMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if isSensitiveKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactValue(value)
	}
	return target
}

func redactValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactMap(typed)
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = item
		}
		return redactMap(out)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactValue(typed[i])
		}
		return out
	default:
		return value
	}
}

// Permission token names such as "item-view" are not secrets, so token
// fields stay readable; keys and challenge answers do not.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isTraceabilityKey(key) {
		return false
	}
	for _, marker := range []string{
		"password",
		"psk",
		"secret",
		"signature",
		"session_key",
		"sessionkey",
		"response",
		"v2hash",
		"authorization",
	} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return key == "key"
}

func isTraceabilityKey(key string) bool {
	switch key {
	case "request_id",
		"command",
		"action",
		"operation",
		"actor_type",
		"token",
		"has_token",
		"status",
		"status_message",
		"from_cache",
		"username":
		return true
	default:
		return false
	}
}
