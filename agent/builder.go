// Agent builder for fluent configuration.
//
// Information Hiding:
// - Builder state management hidden
// - Default value application hidden

package agent

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/richinex/kbagent/llm"
	"github.com/richinex/kbagent/storage"
	"github.com/richinex/kbagent/tools"
)

// Builder provides fluent configuration for creating agents.
// Usage: agent.NewBuilder(provider).
type Builder struct {
	provider   llm.Provider
	config     Config
	store      storage.ConversationStorage
	threadID   string
	history    []llm.ChatMessage
	out        io.Writer
	log        zerolog.Logger
	toolConfig tools.ToolConfig
}

// NewBuilder creates a new agent builder for the given provider.
func NewBuilder(provider llm.Provider) *Builder {
	return &Builder{
		provider: provider,
		config:   DefaultConfig(),
		out:      os.Stdout,
		log:      zerolog.Nop(),
	}
}

// Ruleset adds a ruleset to the system prompt.
func (b *Builder) Ruleset(r Ruleset) *Builder {
	b.config.Rulesets = append(b.config.Rulesets, r)
	return b
}

// Tool adds a tool to the agent.
func (b *Builder) Tool(tool tools.Tool) *Builder {
	b.config.Tools = append(b.config.Tools, tool)
	return b
}

// Tools adds multiple tools at once.
func (b *Builder) Tools(toolList []tools.Tool) *Builder {
	b.config.Tools = append(b.config.Tools, toolList...)
	return b
}

// Memory persists the conversation under threadID.
func (b *Builder) Memory(store storage.ConversationStorage, threadID string) *Builder {
	b.store = store
	b.threadID = threadID
	return b
}

// History supplies already loaded history so Run does not load it again.
func (b *Builder) History(history []llm.ChatMessage) *Builder {
	b.history = history
	return b
}

// Stream enables streaming for tool-less runs.
func (b *Builder) Stream(enabled bool) *Builder {
	b.config.Stream = enabled
	return b
}

// Output sets where streamed chunks are written. Defaults to stdout.
func (b *Builder) Output(w io.Writer) *Builder {
	b.out = w
	return b
}

// Logger sets the operator logger.
func (b *Builder) Logger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// MaxIterations caps tool-calling rounds. Values below 1 keep the default.
func (b *Builder) MaxIterations(n int) *Builder {
	if n > 0 {
		b.config.MaxIterations = n
	}
	return b
}

// ToolConfig overrides the tool execution configuration.
func (b *Builder) ToolConfig(config tools.ToolConfig) *Builder {
	b.toolConfig = config
	return b
}

// ToolCount returns the number of tools added so far.
func (b *Builder) ToolCount() int {
	return len(b.config.Tools)
}

// Build creates the agent.
// Returns an error if no provider is set, a tool name repeats,
// or memory is configured without a thread id.
func (b *Builder) Build() (*Agent, error) {
	if b.provider == nil {
		return nil, errors.New("agent: provider is required")
	}
	if b.store != nil && b.threadID == "" {
		return nil, errors.New("agent: memory requires a thread id")
	}

	registry := tools.NewRegistry()
	for _, tool := range b.config.Tools {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("agent: %w", err)
		}
	}

	out := b.out
	if out == nil {
		out = io.Discard
	}

	return &Agent{
		config:   b.config,
		provider: b.provider,
		registry: registry,
		executor: tools.NewExecutor(b.toolConfig),
		store:    b.store,
		threadID: b.threadID,
		history:  b.history,
		out:      out,
		log:      b.log,
	}, nil
}
