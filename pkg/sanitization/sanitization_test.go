package sanitization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeLogString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", SanitizeLogString(""))
	require.Equal(t, "example.comINFO fake", SanitizeLogString("example.com\r\nINFO fake"))
}

func TestSanitizeFieldValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, redactedValue, SanitizeFieldValue("AWS_SECRET_ACCESS_KEY", "abc"))
	require.Equal(t, redactedValue, SanitizeFieldValue("github_token", "abc"))
	require.Equal(t, "example.com", SanitizeFieldValue("domain", "example.com\n"))
	require.Equal(t, []string{"a.example.com"}, SanitizeFieldValue("aliases", []string{"a.example.com\r"}))
	require.Equal(t, 3, SanitizeFieldValue("count", 3))
	require.Equal(t, true, SanitizeFieldValue("ok", true))
	require.Nil(t, SanitizeFieldValue("nothing", nil))

	nested, ok := SanitizeFieldValue("zone", map[string]any{"id": "Z1\n", "session_token": "x"}).(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Z1", nested["id"])
	require.Equal(t, redactedValue, nested["session_token"])
}
