// Package llm is a minimal chat-completion client for OpenAI-compatible APIs
// (OpenAI, OpenRouter, local gateways). It uses net/http directly.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Provider is the interface for LLM completions.
type Provider interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "openai/gpt-4o-mini").
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // 0 = provider default
	Temperature float64 // 0.0-2.0
	Format      string  // "json" for structured output, empty for plain text
	System      string  // optional system prompt
}

// Config holds provider configuration.
type Config struct {
	Provider  string // "openai", "openrouter"
	Model     string
	APIKey    string // empty = read from APIKeyEnv
	APIKeyEnv string // empty = provider default env var
	BaseURL   string // optional URL override

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

type providerDefaults struct {
	keyEnv  string
	model   string
	baseURL string
}

var defaults = map[string]providerDefaults{
	"openai": {
		keyEnv:  "OPENAI_API_KEY",
		model:   "gpt-4o-mini",
		baseURL: "https://api.openai.com/v1",
	},
	"openrouter": {
		keyEnv:  "OPENROUTER_API_KEY",
		model:   "openai/gpt-4o-mini",
		baseURL: "https://openrouter.ai/api/v1",
	},
}

// NewProvider creates an LLM provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	d, ok := defaults[name]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, openrouter)", cfg.Provider)
	}

	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = d.keyEnv
	}
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(keyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("%s provider requires %s env var", name, keyEnv)
	}

	model := cfg.Model
	if model == "" {
		model = d.model
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = d.baseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &chatProvider{
		name:    name,
		apiKey:  key,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}
