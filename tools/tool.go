// Package tools provides the tool system for the agent.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Tool parameters and schemas hidden in implementations
// - Registry implementation details hidden from consumers
// - Error handling internalized per tool
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ToolParameter defines a parameter schema for a tool.
type ToolParameter struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolMetadata describes what a tool does and how to use it.
type ToolMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// String returns a string representation of the tool metadata.
func (m ToolMetadata) String() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Description)
}

// ToolResult represents the result of a tool execution.
// Success is determined by whether Error is nil.
type ToolResult struct {
	Output string `json:"output"`
	Error  error  `json:"-"`
}

// MarshalJSON implements custom JSON marshaling for ToolResult.
func (t ToolResult) MarshalJSON() ([]byte, error) {
	if t.Error != nil {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Output  string `json:"output"`
			Error   string `json:"error"`
		}{
			Success: false,
			Output:  t.Output,
			Error:   t.Error.Error(),
		})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Output  string `json:"output"`
	}{
		Success: true,
		Output:  t.Output,
	})
}

// Success returns true if the tool execution succeeded.
func (t ToolResult) Success() bool {
	return t.Error == nil
}

// Content returns the text handed back to the model: the output on success,
// an "Error: ..." line otherwise.
func (t ToolResult) Content() string {
	if t.Error != nil {
		return "Error: " + t.Error.Error()
	}
	return t.Output
}

// SuccessResult creates a successful tool result.
func SuccessResult(output string) ToolResult {
	return ToolResult{Output: output}
}

// FailureResult creates a failed tool result.
func FailureResult(err error) ToolResult {
	return ToolResult{Error: err}
}

// FailureResultf creates a failed tool result with a formatted error message.
func FailureResultf(format string, args ...interface{}) ToolResult {
	return ToolResult{Error: fmt.Errorf(format, args...)}
}

// Tool is the interface that all tools must implement.
type Tool interface {
	// Metadata returns tool metadata (name, description, parameters).
	Metadata() ToolMetadata

	// Execute runs the tool with given arguments.
	Execute(ctx context.Context, args json.RawMessage) (ToolResult, error)

	// Validate validates arguments before execution.
	Validate(args json.RawMessage) error
}

// BaseTool provides a default implementation for Validate.
type BaseTool struct{}

// Validate provides a default no-op validation.
func (BaseTool) Validate(args json.RawMessage) error {
	return nil
}

// ToolConfig holds tool execution configuration.
// The zero value is safe: timeout defaults to 30s and retries to 3.
type ToolConfig struct {
	TimeoutSecs uint64
	MaxRetries  uint32
}

// Timeout returns the per-attempt timeout, defaulting to 30 seconds if zero.
func (c *ToolConfig) Timeout() time.Duration {
	if c == nil || c.TimeoutSecs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Retries returns the configured max attempts, defaulting to 3 if zero.
func (c *ToolConfig) Retries() uint32 {
	if c == nil || c.MaxRetries == 0 {
		return 3
	}
	return c.MaxRetries
}

// DefaultToolConfig returns the default tool configuration.
func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		TimeoutSecs: 30,
		MaxRetries:  3,
	}
}
