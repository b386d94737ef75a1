// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup
//
// An optional TOML file (see LoadFile) is layered on top with Settings.Apply.

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Search modes for knowledge base retrieval.
const (
	SearchModeQuery  = "query"
	SearchModeSearch = "search"
)

// Conversation memory backends.
const (
	MemoryCloud = "cloud"
	MemoryLocal = "local"
)

// Defaults for the hosted knowledge base API and local memory.
const (
	DefaultCloudBaseURL = "https://cloud.griptape.ai"
	DefaultResultCount  = 5
	DefaultDBPath       = ".kbagent/kbagent.db"
)

// Settings holds all application configuration.
type Settings struct {
	LLM    LLMConfig
	Agent  AgentConfig
	Cloud  CloudConfig
	Memory MemoryConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Requested   string // provider name as given, before alias resolution
	Model       string
	MaxTokens   uint32
	Temperature float64
}

// AgentConfig holds agent execution configuration.
type AgentConfig struct {
	MaxIterations int
}

// CloudConfig holds the knowledge base API configuration.
// An empty APIKey means no knowledge base tools can be built.
type CloudConfig struct {
	APIKey      string
	BaseURL     string
	SearchMode  string
	ResultCount int
}

// MemoryConfig selects where conversation threads are kept.
type MemoryConfig struct {
	Backend string
	DBPath  string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GOOGLE_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from environment variables.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	requested := strings.TrimSpace(provider)
	provider = NormalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	maxIterations, err := getEnvInt("AGENT_MAX_ITERATIONS", 10)
	if err != nil {
		return Settings{}, err
	}

	resultCount, err := getEnvInt("GT_CLOUD_RESULT_COUNT", DefaultResultCount)
	if err != nil {
		return Settings{}, err
	}

	searchMode := getEnvString("GT_CLOUD_SEARCH_MODE", SearchModeQuery)
	if err := ValidateSearchMode(searchMode); err != nil {
		return Settings{}, fmt.Errorf("GT_CLOUD_SEARCH_MODE: %w", err)
	}

	backend := getEnvString("KBAGENT_MEMORY", MemoryCloud)
	if err := ValidateMemoryBackend(backend); err != nil {
		return Settings{}, fmt.Errorf("KBAGENT_MEMORY: %w", err)
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Requested:   requested,
			Model:       getEnvString(info.modelEnv, info.defaultModel),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Agent: AgentConfig{
			MaxIterations: maxIterations,
		},
		Cloud: CloudConfig{
			APIKey:      os.Getenv("GT_CLOUD_API_KEY"),
			BaseURL:     strings.TrimRight(getEnvString("GT_CLOUD_BASE_URL", DefaultCloudBaseURL), "/"),
			SearchMode:  searchMode,
			ResultCount: resultCount,
		},
		Memory: MemoryConfig{
			Backend: backend,
			DBPath:  getEnvString("KBAGENT_DB", DefaultDBPath),
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// NormalizeProvider converts provider aliases to canonical names.
func NormalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = NormalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = NormalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	return getEnvString(info.modelEnv, info.defaultModel), nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// ValidateSearchMode checks that mode is "query" or "search".
func ValidateSearchMode(mode string) error {
	switch mode {
	case SearchModeQuery, SearchModeSearch:
		return nil
	}
	return fmt.Errorf("invalid search mode %q (want %q or %q)", mode, SearchModeQuery, SearchModeSearch)
}

// ValidateMemoryBackend checks that backend is "cloud" or "local".
func ValidateMemoryBackend(backend string) error {
	switch backend {
	case MemoryCloud, MemoryLocal:
		return nil
	}
	return fmt.Errorf("invalid memory backend %q (want %q or %q)", backend, MemoryCloud, MemoryLocal)
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
