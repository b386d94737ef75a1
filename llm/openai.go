// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Streaming via go-openai library

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   int(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithTools(ctx, messages, nil)
}

// ChatWithTools sends a chat completion request with tool definitions.
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error) {
	req := p.request(messages)
	req.Tools = convertToOpenAITools(tools)

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := ""
	var toolCalls []ToolCall
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		for _, tc := range resp.Choices[0].Message.ToolCalls {
			toolCalls = append(toolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			})
		}
	}

	return LLMResponse{Content: content, ToolCalls: toolCalls, Usage: openAIUsage(resp.Usage)}, nil
}

// StreamChat streams a chat completion.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []ChatMessage, chunks chan<- string) (*TokenUsage, error) {
	req := p.request(messages)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("stream creation failed: %w", err)
	}
	defer stream.Close()

	var usage *TokenUsage
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return usage, nil
		}
		if err != nil {
			return usage, fmt.Errorf("stream recv failed: %w", err)
		}

		// Usage arrives on the final chunk
		if response.Usage != nil {
			usage = openAIUsage(*response.Usage)
		}

		if len(response.Choices) > 0 {
			content := response.Choices[0].Delta.Content
			if content != "" {
				select {
				case chunks <- content:
				case <-ctx.Done():
					return usage, ctx.Err()
				}
			}
		}
	}
}

func (p *OpenAIProvider) request(messages []ChatMessage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(messages),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}
}

func openAIUsage(u openai.Usage) *TokenUsage {
	return &TokenUsage{
		PromptTokens:     uint32(u.PromptTokens),
		CompletionTokens: uint32(u.CompletionTokens),
		TotalTokens:      uint32(u.TotalTokens),
	}
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage,
// carrying tool calls and tool responses.
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		result[i] = oaiMsg
	}
	return result
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
