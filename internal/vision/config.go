package vision

import (
	"fmt"
	"os"
)

// ProviderBridge is the canonical identifier for agent-bridge mode, where
// vision queries are answered by a host agent session instead of a metered
// API call.
const ProviderBridge = "bridge"

// Config configures the router. It is resolved once at construction and
// never re-evaluated per call.
type Config struct {
	Provider    string  // provider alias; see aliases
	Model       string  // empty = provider default
	APIKey      string  // empty = per-provider environment variable
	BaseURL     string  // empty = provider default endpoint
	MaxTokens   int     // completion cap, default 1024
	Temperature float64 // sampling temperature, default 0

	// DisableCostTracking turns off ledger reporting for metered calls.
	DisableCostTracking bool

	// ExplicitProvider disables the agent-environment auto-detection that
	// otherwise switches a credential-less construction into bridge mode.
	ExplicitProvider bool
}

// aliases normalizes provider shorthands to canonical identifiers.
var aliases = map[string]string{
	"agent":     ProviderBridge,
	"anthropic": "anthropic",
	"auto":      ProviderBridge,
	"bridge":    ProviderBridge,
	"claude":    "anthropic",
	"gemini":    "google",
	"google":    "google",
	"gpt":       "openai",
	"openai":    "openai",
}

// defaultModels picks a model when the config names none.
var defaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-5",
	"google":    "gemini-2.5-flash",
	"openai":    "gpt-4o",
}

// apiKeyEnv names the per-provider credential environment variable.
var apiKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// canonicalProvider resolves an alias, defaulting empty input to anthropic.
func canonicalProvider(alias string) (string, error) {
	if alias == "" {
		return "anthropic", nil
	}
	if p, ok := aliases[alias]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown vision provider %q", alias)
}

// CanonicalProvider resolves a provider alias for callers outside the
// router, with the same defaulting rules the router applies.
func CanonicalProvider(alias string) (string, error) {
	return canonicalProvider(alias)
}

// DefaultModel returns the provider's default model, or "" for providers
// without one (bridge mode has no model).
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// resolveAPIKey returns the configured key or the provider's environment
// variable.
func resolveAPIKey(cfg Config, provider string) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	if env, ok := apiKeyEnv[provider]; ok {
		return os.Getenv(env)
	}
	return ""
}
