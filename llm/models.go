// Package llm provides shared data models for LLM providers.
package llm

import "encoding/json"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For assistant messages with tool calls
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool result messages
	ToolName   string     `json:"tool_name,omitempty"`    // For tool result messages (Gemini matches on name)
}

// ToolCall represents a tool call from the LLM.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition defines a tool that the LLM can call.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: content,
	}
}

// ToolResultMessage creates the reply to a tool call.
func ToolResultMessage(call ToolCall, content string) ChatMessage {
	return ChatMessage{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content   string
	ToolCalls []ToolCall // Tool calls requested by the LLM
	Usage     *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// Add accumulates other into u. A nil other is ignored.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
