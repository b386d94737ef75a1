package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/richinex/kbagent/agent"
	"github.com/richinex/kbagent/cloud"
	"github.com/richinex/kbagent/config"
	"github.com/richinex/kbagent/storage"
	"github.com/richinex/kbagent/tools"
)

// DefaultChatPrompt is used when chat runs without --prompt.
const DefaultChatPrompt = "Hello there!"

// ChatOptions holds the flags of the single knowledge base command.
type ChatOptions struct {
	Provider        string
	KnowledgeBaseID string
	Prompt          string
	RulesetAlias    string
	Stream          bool
	ThreadID        string
	Overrides       MemoryOverrides
}

// Chat answers one prompt against a single knowledge base with thread memory.
// Without a thread id a new thread is created and reported.
func Chat(ctx context.Context, chat ChatOptions, opts Options) error {
	out := opts.stdout()
	log := opts.logger()

	settings, err := loadSettings(opts, chat.Provider, "openai", chat.Overrides)
	if err != nil {
		return err
	}

	c, err := newCloudClient(settings, opts)
	if err != nil {
		return err
	}

	var kbTools []tools.Tool
	switch {
	case c == nil:
		log.Warn().Msg("GT_CLOUD_API_KEY not set; knowledge base tools disabled")
	case chat.KnowledgeBaseID == "":
		log.Warn().Msg("no knowledge base id given; knowledge base tools disabled")
	default:
		vs, err := cloud.NewVectorStore(c, chat.KnowledgeBaseID, settings.Cloud.SearchMode, settings.Cloud.ResultCount, log)
		if err != nil {
			return err
		}
		kbTools = append(kbTools, tools.NewCompanyKnowledgeBaseTool(vs))
	}

	store, backend, cleanup, err := openStorage(settings, c, log)
	if err != nil {
		return err
	}
	defer cleanup()

	threadID := chat.ThreadID
	if threadID == "" {
		threadID, err = newThread(ctx, c, backend)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created new thread: %s\n", threadID)
	}

	provider, err := newProvider(settings)
	if err != nil {
		return err
	}

	if chat.RulesetAlias != "" && c == nil {
		log.Warn().Str("ruleset", chat.RulesetAlias).Msg("GT_CLOUD_API_KEY not set; ruleset ignored")
	}
	startup, err := loadStartup(ctx, c, chat.RulesetAlias, store, threadID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Using conversation memory with thread: %s\n\n", threadID)

	b := agent.NewBuilder(provider).
		Tools(kbTools).
		Stream(chat.Stream).
		Output(out).
		Logger(log).
		MaxIterations(settings.Agent.MaxIterations).
		ToolConfig(tools.ToolConfig{MaxRetries: opts.ToolRetries}).
		Memory(store, threadID).
		History(startup.history)
	if startup.ruleset != nil {
		b.Ruleset(*startup.ruleset)
	}
	a, err := b.Build()
	if err != nil {
		return err
	}

	prompt := chat.Prompt
	if prompt == "" {
		prompt = DefaultChatPrompt
	}

	resp, err := a.Run(ctx, prompt)
	if err != nil {
		return err
	}
	printResult(out, resp, log)
	return nil
}

// newThread creates a hosted thread for cloud memory, or a fresh session id otherwise.
func newThread(ctx context.Context, c *cloud.Client, backend string) (string, error) {
	if backend != config.MemoryCloud || c == nil {
		return storage.NewSessionID(), nil
	}
	t, err := c.CreateThread(ctx, fmt.Sprintf("kbagent chat %s", time.Now().UTC().Format(time.RFC3339)))
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return t.ID, nil
}
