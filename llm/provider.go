// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Tool-call encoding for the provider's wire format
// - Streaming transport

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Chat sends a chat completion request.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)

	// ChatWithTools sends a chat completion request with tool definitions.
	// The LLM may respond with tool calls in LLMResponse.ToolCalls.
	ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error)

	// StreamChat streams a chat completion, sending chunks to the provided channel.
	// Returns token usage (available in final chunk when supported by provider).
	// The channel is not closed by the provider.
	StreamChat(ctx context.Context, messages []ChatMessage, chunks chan<- string) (*TokenUsage, error)
}

// ProviderConfig is the construction input shared by all providers.
// BaseURL is empty for the vendor's public endpoint.
type ProviderConfig struct {
	APIKey      string
	Model       string
	MaxTokens   uint32
	Temperature float32
	BaseURL     string
}
