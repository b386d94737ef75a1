// Tool Executor with Retry Logic.
//
// Information Hiding:
// - Retry strategy implementation hidden
// - Backoff algorithm hidden
// - Error classification logic hidden

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Executor provides tool execution with validation, retry and timeout support.
type Executor struct {
	config    ToolConfig
	baseDelay time.Duration
}

// NewExecutor creates a new tool executor with the given configuration.
func NewExecutor(config ToolConfig) *Executor {
	return &Executor{config: config, baseDelay: 100 * time.Millisecond}
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultToolConfig())
}

// Execute validates the arguments, then runs the tool with retry logic.
// Tool failures come back as a failed ToolResult; the returned error is only
// set when ctx is done.
func (e *Executor) Execute(ctx context.Context, tool Tool, args json.RawMessage) (ToolResult, error) {
	toolName := tool.Metadata().Name
	if err := tool.Validate(args); err != nil {
		return FailureResult(fmt.Errorf("validation failed: %w", err)), nil
	}

	var lastErr error
	maxRetries := e.config.Retries()

	for attempt := uint32(0); attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ToolResult{}, ctx.Err()
			case <-time.After(e.calculateBackoff(attempt)):
			}
		}

		result, err := e.attempt(ctx, tool, args)
		if err != nil {
			if ctx.Err() != nil {
				return ToolResult{}, ctx.Err()
			}
			lastErr = err
			continue
		}

		if result.Success() || !e.shouldRetry(result) {
			return result, nil
		}

		lastErr = result.Error
	}

	errMsg := "unknown error"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	return FailureResultf("tool '%s' failed after %d attempts: %s", toolName, maxRetries, errMsg), nil
}

func (e *Executor) attempt(ctx context.Context, tool Tool, args json.RawMessage) (ToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout())
	defer cancel()

	return tool.Execute(ctx, args)
}

// calculateBackoff returns the backoff duration for the given attempt.
func (e *Executor) calculateBackoff(attempt uint32) time.Duration {
	const maxDelay = 5 * time.Second

	delay := e.baseDelay * time.Duration(1<<attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// shouldRetry determines if an error is retryable.
func (e *Executor) shouldRetry(result ToolResult) bool {
	if result.Error == nil {
		return true
	}

	errLower := strings.ToLower(result.Error.Error())

	// Don't retry validation errors or permission issues
	nonRetryable := []string{"validation", "not allowed", "permission", "empty", "not found", "unauthorized"}
	for _, s := range nonRetryable {
		if strings.Contains(errLower, s) {
			return false
		}
	}

	return true
}

// ExecuteOnce runs a tool once without retries.
func ExecuteOnce(ctx context.Context, tool Tool, args json.RawMessage) (ToolResult, error) {
	if err := tool.Validate(args); err != nil {
		return FailureResult(fmt.Errorf("validation failed: %w", err)), nil
	}

	return tool.Execute(ctx, args)
}
