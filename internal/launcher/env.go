package launcher

import (
	"regexp"
	"strings"
)

// DefaultEnvPrefix is the synthetic environment variable prefix used when a
// launcher is not otherwise configured.
const DefaultEnvPrefix = "VAULTGATE"

// providerEnvNames maps a profile entry's declared provider tag to the set
// of well-known environment variable names the corresponding client
// libraries look for. A provider absent from this table still gets the
// synthetic name; only these canonical names are conditional on it.
var providerEnvNames = map[string][]string{
	"google":     {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"openrouter": {"OPENROUTER_API_KEY"},
	"openai":     {"OPENAI_API_KEY"},
	"anthropic":  {"ANTHROPIC_API_KEY"},
	"cohere":     {"COHERE_API_KEY"},
	"mistral":    {"MISTRAL_API_KEY"},
	"groq":       {"GROQ_API_KEY"},
	"together":   {"TOGETHER_API_KEY"},
	"perplexity": {"PERPLEXITY_API_KEY"},
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

// syntheticEnvName builds the canonical synthetic env var name for a
// reference id: uppercase, non-alphanumerics replaced with underscores,
// prefixed.
func syntheticEnvName(prefix, id string) string {
	return prefix + "_" + nonAlnum.ReplaceAllString(strings.ToUpper(id), "_")
}
