// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - System prompt extraction and tool_result grouping
// - Streaming via official SDK

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg ProviderConfig) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: float64(cfg.Temperature),
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the current model.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	return p.ChatWithTools(ctx, messages, nil)
}

// ChatWithTools sends a chat completion request with tool definitions.
func (p *AnthropicProvider) ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (LLMResponse, error) {
	params := p.params(messages)
	params.Tools = convertToAnthropicTools(tools)

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := ""
	var toolCalls []ToolCall
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += variant.Text
		case anthropic.ToolUseBlock:
			inputJSON, _ := json.Marshal(variant.Input)
			toolCalls = append(toolCalls, ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: inputJSON,
			})
		}
	}

	var usage *TokenUsage
	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		usage = &TokenUsage{
			PromptTokens:     uint32(message.Usage.InputTokens),
			CompletionTokens: uint32(message.Usage.OutputTokens),
			TotalTokens:      uint32(message.Usage.InputTokens + message.Usage.OutputTokens),
		}
	}

	return LLMResponse{Content: content, ToolCalls: toolCalls, Usage: usage}, nil
}

// StreamChat streams a chat completion.
func (p *AnthropicProvider) StreamChat(ctx context.Context, messages []ChatMessage, chunks chan<- string) (*TokenUsage, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.params(messages))
	defer stream.Close()

	var usage *TokenUsage
	for stream.Next() {
		event := stream.Current()

		switch eventVariant := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			if eventVariant.Message.Usage.InputTokens > 0 {
				usage = &TokenUsage{
					PromptTokens: uint32(eventVariant.Message.Usage.InputTokens),
				}
			}
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := eventVariant.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				select {
				case chunks <- delta.Text:
				case <-ctx.Done():
					return usage, ctx.Err()
				}
			}
		case anthropic.MessageDeltaEvent:
			if eventVariant.Usage.OutputTokens > 0 {
				if usage == nil {
					usage = &TokenUsage{}
				}
				usage.CompletionTokens = uint32(eventVariant.Usage.OutputTokens)
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
			}
		}
	}

	if err := stream.Err(); err != nil {
		return usage, fmt.Errorf("stream error: %w", err)
	}

	return usage, nil
}

func (p *AnthropicProvider) params(messages []ChatMessage) anthropic.MessageNewParams {
	anthropicMessages, systemPrompt := convertToAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Messages:    anthropicMessages,
		Temperature: anthropic.Float(p.temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	return params
}

// convertToAnthropicMessages converts our ChatMessage to Anthropic format.
// The system message is returned separately. Consecutive tool results are
// grouped into one user message, as the Messages API expects.
func convertToAnthropicMessages(messages []ChatMessage) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(msg.Content),
				))
				continue
			}
			param := anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant}
			if msg.Content != "" {
				param.Content = append(param.Content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input map[string]interface{}
				_ = json.Unmarshal(tc.Arguments, &input)
				param.Content = append(param.Content, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: input,
					},
				})
			}
			anthropicMessages = append(anthropicMessages, param)
		case RoleTool:
			block := anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)
			if n := len(anthropicMessages); n > 0 && isToolResultMessage(anthropicMessages[n-1]) {
				anthropicMessages[n-1].Content = append(anthropicMessages[n-1].Content, block)
				continue
			}
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(block))
		}
	}

	return anthropicMessages, systemPrompt
}

func isToolResultMessage(m anthropic.MessageParam) bool {
	if m.Role != anthropic.MessageParamRoleUser || len(m.Content) == 0 {
		return false
	}
	return m.Content[0].OfToolResult != nil
}

// convertToAnthropicTools converts tool definitions to Anthropic format.
func convertToAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		properties, _ := t.Parameters["properties"].(map[string]interface{})
		required, _ := t.Parameters["required"].([]string)

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
