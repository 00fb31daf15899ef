package proxy

import "regexp"

// Redacted is the literal replacement for every secret-shaped match.
const Redacted = "[REDACTED]"

// redactionPatterns are the declared secret shapes applied to every
// tools/call response before it is written back to the client. They are
// applied globally (every match, not just the first) and the full set is
// idempotent: running it twice over already-redacted text changes nothing,
// since "[REDACTED]" itself never matches any of these shapes.
var redactionPatterns = []*regexp.Regexp{
	// OpenAI-style secret key: "sk-" followed by 20+ alphanumerics.
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// GitHub personal access token prefixes, 35+ characters total.
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{35,}`),
	// Slack bot token.
	regexp.MustCompile(`xox[bp]-[A-Za-z0-9-]{10,}`),
	// Generic "api_" prefixed identifier, 20+ id characters, case-insensitive.
	regexp.MustCompile(`(?i)api_[A-Za-z0-9_-]{20,}`),
	// Bearer token tail.
	regexp.MustCompile(`Bearer [A-Za-z0-9._-]{8,}`),
}

// Redact replaces every match of every declared pattern in text with
// Redacted.
func Redact(text string) string {
	for _, pattern := range redactionPatterns {
		text = pattern.ReplaceAllString(text, Redacted)
	}
	return text
}
