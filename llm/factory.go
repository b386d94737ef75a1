// LLM Provider Factory - builder-first API for creating LLM providers.
//
// Quick Start:
//
//	// Defaults, API key from environment
//	gemini, err := llm.ProviderGemini.FromEnv()
//
//	// Full configuration
//	claude, err := llm.ProviderAnthropic.
//	    Model(llm.ModelAnthropicClaudeSonnet4).
//	    MaxTokens(2048).
//	    Temperature(0.2).
//	    FromEnv()
//
//	// Explicit key and endpoint (tests, proxies)
//	provider, err := llm.ProviderOpenAI.Model(llm.ModelOpenAIGPT4o).BaseURL(url).APIKey("sk-...")

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT4o
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderGemini:
		return ModelGeminiFlash25
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
// "google" is accepted for Gemini.
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// FromEnv creates a provider with defaults, reading API key from environment.
func (p ProviderType) FromEnv() (Provider, error) {
	return NewProviderBuilder(p).FromEnv()
}

// Model starts configuring this provider with a specific model.
func (p ProviderType) Model(model string) *ProviderBuilder {
	return NewProviderBuilder(p).Model(model)
}

// APIKey creates a provider with an explicit API key (uses defaults for everything else).
func (p ProviderType) APIKey(key string) (Provider, error) {
	return NewProviderBuilder(p).APIKey(key)
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	maxTokens    uint32
	temperature  *float32
	baseURL      string
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{
		providerType: providerType,
	}
}

// Model sets the model to use. Empty keeps the provider default.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// MaxTokens sets maximum tokens for responses.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets temperature (0.0 = deterministic, 1.0 = creative).
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// BaseURL overrides the vendor endpoint.
func (b *ProviderBuilder) BaseURL(url string) *ProviderBuilder {
	b.baseURL = url
	return b
}

// FromEnv builds the provider, reading API key from environment.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	envVar := b.providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", b.providerType, envVar)
	}
	return b.build(apiKey)
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	return b.build(key)
}

func (b *ProviderBuilder) config(apiKey string) ProviderConfig {
	cfg := ProviderConfig{
		APIKey:      apiKey,
		Model:       b.model,
		MaxTokens:   b.maxTokens,
		Temperature: 0.7,
		BaseURL:     b.baseURL,
	}
	if cfg.Model == "" {
		cfg.Model = b.providerType.DefaultModel()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if b.temperature != nil {
		cfg.Temperature = *b.temperature
	}
	return cfg
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	cfg := b.config(apiKey)

	switch b.providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg), nil
	case ProviderGemini:
		return NewGeminiProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// Model identifier constants for all supported providers.

// OpenAI model identifiers
const (
	// ModelOpenAIGPT4o is GPT-4o, the default for the agent commands.
	ModelOpenAIGPT4o = "gpt-4o"
	// ModelOpenAIGPT4oMini is GPT-4o-mini.
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	// ModelOpenAIGPT5 is GPT-5.
	ModelOpenAIGPT5 = "gpt-5"
)

// Anthropic model identifiers
const (
	// ModelAnthropicClaudeSonnet4 is Claude Sonnet 4.
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	// ModelAnthropicClaudeOpus45 is Claude Opus 4.5.
	ModelAnthropicClaudeOpus45 = "claude-opus-4-5-20251101"
)

// Gemini model identifiers
const (
	// ModelGeminiFlash25 is Gemini 2.5 Flash.
	ModelGeminiFlash25 = "gemini-2.5-flash"
	// ModelGeminiPro25 is Gemini 2.5 Pro.
	ModelGeminiPro25 = "gemini-2.5-pro"
)
