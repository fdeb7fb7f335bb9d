package sanitization

import (
	"fmt"
	"strings"
)

const redactedValue = "[REDACTED]"

// SensitiveFields are lowercased field names that are always redacted.
var SensitiveFields = map[string]bool{
	"aws_secret_access_key": true,
	"aws_session_token":     true,
	"secret_access_key":     true,
	"session_token":         true,
	"private_key":           true,
	"authorization":         true,
}

// blockedSubstrings catch credential-like keys that are not listed explicitly.
var blockedSubstrings = []string{"secret", "token", "password", "private_key"}

// SanitizeLogString removes control characters that could enable log forging.
func SanitizeLogString(value string) string {
	if value == "" {
		return value
	}
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

// SanitizeFieldValue redacts credential-like fields and strips control characters
// from everything else.
func SanitizeFieldValue(key string, value any) any {
	keyLower := strings.ToLower(strings.TrimSpace(key))
	if SensitiveFields[keyLower] {
		return redactedValue
	}
	for _, substr := range blockedSubstrings {
		if keyLower != "" && strings.Contains(keyLower, substr) {
			return redactedValue
		}
	}
	return sanitizeValue(value)
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return SanitizeLogString(typed)
	case []string:
		out := make([]string, len(typed))
		for i := range typed {
			out[i] = SanitizeLogString(typed[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = SanitizeFieldValue(k, v)
		}
		return out
	case bool, int, int64, float64:
		return typed
	default:
		return SanitizeLogString(fmt.Sprintf("%v", typed))
	}
}
