// Agent configuration types.
//
// Information Hiding:
// - System prompt rendering hidden
// - Default values hidden

package agent

import (
	"strings"

	"github.com/richinex/kbagent/tools"
)

// DefaultMaxIterations caps tool-calling rounds when none is configured.
const DefaultMaxIterations = 10

const (
	defaultSystemPrompt = "You are a helpful assistant."
	toolsSystemPrompt   = "Use the available knowledge base tools to look up information before answering questions about their content. If the tools return nothing relevant, say so."
)

// Config holds agent configuration.
type Config struct {
	// Rulesets shape the system prompt, in order.
	Rulesets []Ruleset

	// Tools available to the model.
	Tools []tools.Tool

	// MaxIterations caps tool-calling rounds.
	MaxIterations int

	// Stream writes the answer as it arrives when no tools are configured.
	Stream bool
}

// DefaultConfig returns a basic agent configuration.
func DefaultConfig() Config {
	return Config{
		Tools:         []tools.Tool{},
		MaxIterations: DefaultMaxIterations,
	}
}

// HasTools returns true if the agent has tools configured.
func (c *Config) HasTools() bool {
	return len(c.Tools) > 0
}

// SystemPrompt renders the rulesets, or the default prompt when there are none.
func (c *Config) SystemPrompt() string {
	var parts []string
	if len(c.Rulesets) == 0 {
		parts = append(parts, defaultSystemPrompt)
	}
	for _, r := range c.Rulesets {
		parts = append(parts, r.String())
	}
	if c.HasTools() {
		parts = append(parts, toolsSystemPrompt)
	}
	return strings.Join(parts, "\n\n")
}
