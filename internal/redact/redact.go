// Package redact removes sensitive values from strings before they are
// logged. Errors returned by the Gemini client can embed the request URL,
// including the API key query parameter, so raw error text is never safe to
// log without passing through this package first.
package redact

import (
	"regexp"
)

// Redaction placeholders.
const (
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
)

// Precompiled regex patterns
var (
	// Google API keys are AIza-prefixed 39-character strings.
	googleKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`)

	// Key material passed as a URL query parameter, as in
	// "?key=..." or "&access_token=...".
	keyParamRegex = regexp.MustCompile(`(?i)([?&](?:api[_-]?key|key|token|access_token)=)[A-Za-z0-9_\-.~+/%]+`)

	// Credentials and tokens in assignment or header form.
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|password|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/]+=*`)
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	result = googleKeyRegex.ReplaceAllString(result, RedactedKeyPlaceholder)
	result = keyParamRegex.ReplaceAllString(result, "${1}"+RedactedKeyPlaceholder)
	result = apiKeyRegex.ReplaceAllString(result, "${1}${2}"+RedactedKeyPlaceholder)
	result = bearerRegex.ReplaceAllString(result, RedactedCredentialPlaceholder)
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
