// Package agent provides the knowledge base agent runner.
//
// Contains the types returned from a run.
package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/richinex/kbagent/llm"
)

// ErrMaxIterations is returned when the model keeps calling tools past the iteration cap.
var ErrMaxIterations = errors.New("max iterations reached")

// Ruleset is a named group of behavioural rules for the system prompt.
type Ruleset struct {
	Name  string
	Rules []string
}

// String renders the ruleset as a heading followed by numbered rules.
func (r Ruleset) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ruleset: %s", r.Name)
	for i, rule := range r.Rules {
		fmt.Fprintf(&b, "\n%d. %s", i+1, rule)
	}
	return b.String()
}

// ToolCall contains metrics about a tool invocation.
type ToolCall struct {
	Name       string `json:"name"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	DurationMs uint64 `json:"duration_ms"`
	Success    bool   `json:"success"`
}

// Response is the outcome of a single Run.
type Response struct {
	// Output is the final assistant answer.
	Output string

	// ToolCalls lists every tool invocation in call order.
	ToolCalls []ToolCall

	// Usage is the token usage summed over all LLM calls.
	Usage llm.TokenUsage

	// LLMCalls is the number of provider requests made.
	LLMCalls int

	// Iterations is the number of tool-calling rounds, zero for a plain chat.
	Iterations int

	// Streamed is true when Output was already written to the output writer.
	Streamed bool
}

// FailedToolCalls returns the number of tool calls that did not succeed.
func (r Response) FailedToolCalls() int {
	n := 0
	for _, c := range r.ToolCalls {
		if !c.Success {
			n++
		}
	}
	return n
}
