package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/richinex/kbagent/agent"
	"github.com/richinex/kbagent/catalog"
	"github.com/richinex/kbagent/cloud"
	"github.com/richinex/kbagent/config"
	"github.com/richinex/kbagent/storage"
	"github.com/richinex/kbagent/tools"
)

// DefaultAskQuery is used when ask runs without --query.
const DefaultAskQuery = "Hello! What information can you help me with?"

// AskOptions holds the flags of the multi knowledge base command.
type AskOptions struct {
	Provider     string
	Selection    string
	ListKB       bool
	Query        string
	RulesetAlias string
	Stream       bool
	ThreadID     string
	StrictIDs    bool
	Overrides    MemoryOverrides
}

// ListKnowledgeBases prints the catalog listing.
func ListKnowledgeBases(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprint(w, cat.Describe())
}

// Ask answers one query with tools for every selected knowledge base.
func Ask(ctx context.Context, cat *catalog.Catalog, ask AskOptions, opts Options) error {
	out := opts.stdout()
	if ask.ListKB {
		ListKnowledgeBases(out, cat)
		return nil
	}

	log := opts.logger()
	settings, err := loadSettings(opts, ask.Provider, "google", ask.Overrides)
	if err != nil {
		return err
	}

	var resolveOpts []catalog.ResolveOpt
	if ask.StrictIDs {
		resolveOpts = append(resolveOpts, catalog.StrictIDs())
	}
	sel := cat.Resolve(ask.Selection, resolveOpts...)
	for _, w := range sel.Warnings {
		log.Warn().Msg(w)
	}

	c, err := newCloudClient(settings, opts)
	if err != nil {
		return err
	}
	if c == nil && !sel.Empty() {
		log.Warn().Int("knowledge_bases", len(sel.IDs)).Msg("GT_CLOUD_API_KEY not set; knowledge base tools disabled")
	}

	kbTools, err := buildKnowledgeBaseTools(cat, sel.IDs, c, settings, log)
	if err != nil {
		return err
	}

	var store storage.ConversationStorage
	if ask.ThreadID != "" {
		s, _, cleanup, err := openStorage(settings, c, log)
		if err != nil {
			return err
		}
		defer cleanup()
		store = s
	}

	provider, err := newProvider(settings)
	if err != nil {
		return err
	}

	if ask.RulesetAlias != "" && c == nil {
		log.Warn().Str("ruleset", ask.RulesetAlias).Msg("GT_CLOUD_API_KEY not set; ruleset ignored")
	}
	startup, err := loadStartup(ctx, c, ask.RulesetAlias, store, ask.ThreadID)
	if err != nil {
		return err
	}

	if !sel.Empty() {
		printBanner(out, cat, settings.LLM.Requested, sel.IDs, ask.ThreadID)
	}

	b := agent.NewBuilder(provider).
		Tools(kbTools).
		Stream(ask.Stream).
		Output(out).
		Logger(log).
		MaxIterations(settings.Agent.MaxIterations).
		ToolConfig(tools.ToolConfig{MaxRetries: opts.ToolRetries})
	if startup.ruleset != nil {
		b.Ruleset(*startup.ruleset)
	}
	if store != nil {
		b.Memory(store, ask.ThreadID).History(startup.history)
	}
	a, err := b.Build()
	if err != nil {
		return err
	}

	query := ask.Query
	if query == "" {
		query = DefaultAskQuery
	}

	resp, err := a.Run(ctx, query)
	if err != nil {
		return err
	}
	printResult(out, resp, log)
	return nil
}

// buildKnowledgeBaseTools creates one tool per resolved id. A nil client yields no tools.
// Repeated ids get a single tool; colliding tool names get a numeric suffix.
func buildKnowledgeBaseTools(cat *catalog.Catalog, ids []string, c *cloud.Client, settings config.Settings, log zerolog.Logger) ([]tools.Tool, error) {
	if c == nil {
		return nil, nil
	}

	seen := make(map[string]bool, len(ids))
	registry := tools.NewRegistry()
	for i, id := range ids {
		if seen[id] {
			log.Debug().Str("knowledge_base", id).Msg("skipping repeated knowledge base")
			continue
		}
		seen[id] = true

		vs, err := cloud.NewVectorStore(c, id, settings.Cloud.SearchMode, settings.Cloud.ResultCount, log)
		if err != nil {
			return nil, err
		}

		var t *tools.KnowledgeBaseTool
		if rec, ok := cat.ByID(id); ok {
			t = tools.NewCatalogKnowledgeBaseTool(rec, vs)
		} else {
			t = tools.NewUnknownKnowledgeBaseTool(i+1, vs)
		}

		// Names that slug to the same tool name get _2, _3, ...
		unique := t
		for n := 2; registry.Has(unique.Metadata().Name); n++ {
			unique = t.WithSuffix(n)
		}
		if unique != t {
			log.Debug().Str("knowledge_base", id).Str("tool", unique.Metadata().Name).Msg("renamed colliding tool")
		}
		if err := registry.Register(unique); err != nil {
			return nil, err
		}
	}

	log.Debug().Msgf("knowledge base tools:\n%s", registry.Description())
	return registry.All(), nil
}

func printBanner(w io.Writer, cat *catalog.Catalog, providerName string, ids []string, threadID string) {
	fmt.Fprintf(w, "Using model provider: %s\n", providerName)
	fmt.Fprintln(w, "Knowledge bases loaded:")
	for _, id := range ids {
		if rec, ok := cat.ByID(id); ok {
			fmt.Fprintf(w, "  - %s (%s)\n", rec.Name, rec.ID)
		}
	}
	if threadID != "" {
		fmt.Fprintf(w, "Using conversation memory with thread: %s\n", threadID)
	}
	fmt.Fprintln(w)
}
