package logging

import (
	"regexp"
)

const (
	// MaxPromptLogLength is the maximum length of a prompt or query to log
	MaxPromptLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Google API keys always start with AIza followed by 35 key characters
	googleKeyPattern = regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`)

	// OpenAI and Anthropic secret keys (sk-..., sk-proj-..., sk-ant-...)
	secretKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`)

	// Pattern to match bearer tokens in headers echoed back by SDKs
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._~+/=-]+`)

	// Pattern to match API keys passed as query or form parameters
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key|x-goog-api-key)=[^&\s"']+`)
)

// SanitizeSecret removes provider credentials from arbitrary text.
func SanitizeSecret(s string) string {
	if s == "" {
		return ""
	}

	sanitized := apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = googleKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = secretKeyPattern.ReplaceAllString(sanitized, RedactedText)

	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Provider SDK errors sometimes echo the request URL, including ?key=.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeSecret(err.Error())
}

// SanitizeQuery truncates and sanitizes an analyst query for logging.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	return TruncateString(SanitizeSecret(query), MaxPromptLogLength)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
