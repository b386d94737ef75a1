// Tool-calling loop implementation.
//
// Information Hiding:
// - Tool-calling loop internals hidden
// - LLM communication hidden
// - Tool execution coordination hidden
// - Conversation memory handling hidden

package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/richinex/kbagent/llm"
	"github.com/richinex/kbagent/storage"
	"github.com/richinex/kbagent/tools"
)

// Agent answers one prompt per Run, calling knowledge base tools as the model asks.
type Agent struct {
	config   Config
	provider llm.Provider
	registry *tools.Registry
	executor *tools.Executor
	store    storage.ConversationStorage
	threadID string
	history  []llm.ChatMessage
	out      io.Writer
	log      zerolog.Logger
}

// Tools returns the registered tools in registration order.
func (a *Agent) Tools() []tools.Tool {
	return a.registry.All()
}

// ThreadID returns the conversation thread, empty without memory.
func (a *Agent) ThreadID() string {
	return a.threadID
}

// Run answers prompt and saves the exchange when memory is configured.
func (a *Agent) Run(ctx context.Context, prompt string) (Response, error) {
	history, err := a.loadHistory(ctx)
	if err != nil {
		return Response{}, err
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(a.config.SystemPrompt()))
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(prompt))

	var resp Response
	switch {
	case a.config.HasTools():
		resp, err = a.runTools(ctx, messages)
	case a.config.Stream:
		resp, err = a.runStream(ctx, messages)
	default:
		resp, err = a.runChat(ctx, messages)
	}
	if err != nil {
		return resp, err
	}

	a.saveHistory(ctx, history, prompt, resp.Output)
	return resp, nil
}

func (a *Agent) runChat(ctx context.Context, messages []llm.ChatMessage) (Response, error) {
	var resp Response

	out, err := a.provider.Chat(ctx, messages)
	if err != nil {
		return resp, fmt.Errorf("LLM chat failed: %w", err)
	}
	resp.LLMCalls = 1
	resp.Usage.Add(out.Usage)
	resp.Output = out.Content
	return resp, nil
}

type streamResult struct {
	usage *llm.TokenUsage
	err   error
}

func (a *Agent) runStream(ctx context.Context, messages []llm.ChatMessage) (Response, error) {
	var resp Response
	chunks := make(chan string, 100)

	resultCh := make(chan streamResult, 1)
	go func() {
		defer close(chunks)
		usage, err := a.provider.StreamChat(ctx, messages, chunks)
		resultCh <- streamResult{usage: usage, err: err}
	}()

	var output strings.Builder
	var writeErr error
	for chunk := range chunks {
		output.WriteString(chunk)
		if writeErr == nil {
			_, writeErr = io.WriteString(a.out, chunk)
		}
	}
	if output.Len() > 0 && writeErr == nil {
		_, writeErr = io.WriteString(a.out, "\n")
	}

	result := <-resultCh
	resp.LLMCalls = 1
	if result.err != nil {
		return resp, fmt.Errorf("LLM stream failed: %w", result.err)
	}
	if writeErr != nil {
		return resp, fmt.Errorf("writing stream: %w", writeErr)
	}

	resp.Usage.Add(result.usage)
	resp.Output = output.String()
	resp.Streamed = true
	return resp, nil
}

func (a *Agent) runTools(ctx context.Context, messages []llm.ChatMessage) (Response, error) {
	var resp Response
	defs := tools.ToolDefinitions(a.registry.All())

	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return resp, fmt.Errorf("execution cancelled: %w", err)
		}

		out, err := a.provider.ChatWithTools(ctx, messages, defs)
		if err != nil {
			return resp, fmt.Errorf("LLM chat failed: %w", err)
		}
		resp.LLMCalls++
		resp.Usage.Add(out.Usage)

		if len(out.ToolCalls) == 0 {
			resp.Output = out.Content
			return resp, nil
		}

		resp.Iterations++
		messages = append(messages, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   out.Content,
			ToolCalls: out.ToolCalls,
		})

		for _, call := range out.ToolCalls {
			content, record, err := a.executeTool(ctx, call)
			if err != nil {
				return resp, err
			}
			resp.ToolCalls = append(resp.ToolCalls, record)
			messages = append(messages, llm.ToolResultMessage(call, content))
		}
	}

	return resp, fmt.Errorf("%w after %d iterations", ErrMaxIterations, a.config.MaxIterations)
}

// executeTool runs one tool call and returns the content for the model.
// The error is set only when ctx is done.
func (a *Agent) executeTool(ctx context.Context, call llm.ToolCall) (string, ToolCall, error) {
	record := ToolCall{Name: call.Name, InputSize: len(call.Arguments)}

	tool, exists := a.registry.Get(call.Name)
	if !exists {
		a.log.Warn().Str("tool", call.Name).Msg("model called an unknown tool")
		return fmt.Sprintf("Error: tool '%s' not found", call.Name), record, nil
	}

	args := call.Arguments
	if len(args) == 0 {
		args = []byte("{}")
	}

	start := time.Now()
	result, err := a.executor.Execute(ctx, tool, args)
	if err != nil {
		return "", record, fmt.Errorf("tool %q: %w", call.Name, err)
	}

	content := result.Content()
	record.OutputSize = len(content)
	record.DurationMs = uint64(time.Since(start).Milliseconds())
	record.Success = result.Success()

	ev := a.log.Debug()
	if !result.Success() {
		ev = a.log.Warn().Err(result.Error)
	}
	ev.Str("tool", call.Name).
		Uint64("duration_ms", record.DurationMs).
		Int("output_bytes", record.OutputSize).
		Msg("tool call")

	return content, record, nil
}

func (a *Agent) loadHistory(ctx context.Context) ([]llm.ChatMessage, error) {
	history := a.history
	if history == nil && a.store != nil {
		loaded, err := a.store.Load(ctx, a.threadID)
		if err != nil {
			return nil, fmt.Errorf("loading conversation %s: %w", a.threadID, err)
		}
		history = loaded
	}

	kept := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role == llm.RoleSystem {
			continue
		}
		kept = append(kept, m)
	}
	return kept, nil
}

// saveHistory is best effort: the answer has already been produced.
func (a *Agent) saveHistory(ctx context.Context, history []llm.ChatMessage, prompt, answer string) {
	updated := make([]llm.ChatMessage, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated, llm.UserMessage(prompt), llm.AssistantMessage(answer))
	a.history = updated

	if a.store == nil {
		return
	}
	if err := a.store.Save(ctx, a.threadID, updated); err != nil {
		a.log.Warn().Err(err).Str("thread", a.threadID).Msg("failed to save conversation")
	}
}
