// Command execution for CLI commands.
//
// Information Hiding:
// - Settings layering (flags, file, environment) hidden
// - Provider, cloud client and memory backend setup hidden
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	client "github.com/mutablelogic/go-client"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/richinex/kbagent/agent"
	"github.com/richinex/kbagent/cloud"
	"github.com/richinex/kbagent/config"
	"github.com/richinex/kbagent/internal/logging"
	"github.com/richinex/kbagent/llm"
	"github.com/richinex/kbagent/storage"
)

// Options holds global CLI execution options.
// Zero values mean "not set on the command line".
type Options struct {
	ConfigPath  string
	MaxIter     int
	ToolRetries uint32
	Verbose     bool
	Timeout     time.Duration

	Stdout io.Writer
	Stderr io.Writer
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		ToolRetries: 3,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

func (o Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o Options) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

func (o Options) logger() zerolog.Logger {
	return logging.New(o.stderr(), o.Verbose)
}

// MemoryOverrides carries the command-line memory and retrieval flags.
type MemoryOverrides struct {
	SearchMode  string
	ResultCount int
	Backend     string
	DBPath      string
}

// newProvider is swapped in tests.
var newProvider = createProvider

// loadSettings layers the config file over the environment and then the flags.
// The provider comes from the flag, else the file, else fallback.
func loadSettings(opts Options, providerFlag, fallback string, over MemoryOverrides) (config.Settings, error) {
	file, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return config.Settings{}, err
	}

	provider := providerFlag
	if provider == "" {
		provider = file.Provider
	}
	if provider == "" {
		provider = fallback
	}

	settings, err := config.New(provider)
	if err != nil {
		return config.Settings{}, err
	}
	settings = settings.Apply(file)

	if over.SearchMode != "" {
		if err := config.ValidateSearchMode(over.SearchMode); err != nil {
			return config.Settings{}, err
		}
		settings.Cloud.SearchMode = over.SearchMode
	}
	if over.ResultCount > 0 {
		settings.Cloud.ResultCount = over.ResultCount
	}
	if over.Backend != "" {
		if err := config.ValidateMemoryBackend(over.Backend); err != nil {
			return config.Settings{}, err
		}
		settings.Memory.Backend = over.Backend
	}
	if over.DBPath != "" {
		settings.Memory.DBPath = over.DBPath
	}
	if opts.MaxIter > 0 {
		settings.Agent.MaxIterations = opts.MaxIter
	}
	return settings, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}

// newCloudClient returns nil without an API key.
func newCloudClient(settings config.Settings, opts Options) (*cloud.Client, error) {
	if settings.Cloud.APIKey == "" {
		return nil, nil
	}

	var clientOpts []client.ClientOpt
	if opts.Verbose {
		clientOpts = append(clientOpts, client.OptTrace(opts.stderr(), false))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, client.OptTimeout(opts.Timeout))
	}

	c, err := cloud.New(settings.Cloud.BaseURL, settings.Cloud.APIKey, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud client: %w", err)
	}
	return c, nil
}

// openStorage opens the configured memory backend. Cloud memory without a
// client falls back to the local database.
func openStorage(settings config.Settings, c *cloud.Client, log zerolog.Logger) (storage.ConversationStorage, string, func(), error) {
	if settings.Memory.Backend == config.MemoryCloud {
		if c != nil {
			return storage.NewCloudStorage(c), config.MemoryCloud, func() {}, nil
		}
		log.Warn().Str("db", settings.Memory.DBPath).Msg("GT_CLOUD_API_KEY not set; using local conversation memory")
	}

	s, err := storage.OpenSqlite(settings.Memory.DBPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to open database: %w", err)
	}
	return s, config.MemoryLocal, func() { _ = s.Close() }, nil
}

// startupData is fetched concurrently before the agent runs.
type startupData struct {
	ruleset *agent.Ruleset
	history []llm.ChatMessage
}

// loadStartup fetches the ruleset and the thread history in parallel.
// Either step is skipped when its input is missing.
func loadStartup(ctx context.Context, c *cloud.Client, alias string, store storage.ConversationStorage, threadID string) (startupData, error) {
	var data startupData
	g, ctx := errgroup.WithContext(ctx)

	if c != nil && alias != "" {
		g.Go(func() error {
			rs, err := c.Ruleset(ctx, alias)
			if err != nil {
				return fmt.Errorf("ruleset %q: %w", alias, err)
			}
			data.ruleset = &agent.Ruleset{Name: rs.Name, Rules: rs.Rules}
			return nil
		})
	}
	if store != nil && threadID != "" {
		g.Go(func() error {
			history, err := store.Load(ctx, threadID)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
			data.history = history
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return startupData{}, err
	}
	return data, nil
}

// printResult writes the answer unless it was streamed, and logs usage.
func printResult(w io.Writer, resp agent.Response, log zerolog.Logger) {
	if !resp.Streamed {
		fmt.Fprintln(w, resp.Output)
	}
	log.Debug().
		Int("llm_calls", resp.LLMCalls).
		Int("tool_calls", len(resp.ToolCalls)).
		Int("failed_tool_calls", resp.FailedToolCalls()).
		Uint32("prompt_tokens", resp.Usage.PromptTokens).
		Uint32("completion_tokens", resp.Usage.CompletionTokens).
		Uint32("total_tokens", resp.Usage.TotalTokens).
		Msg("run complete")
}
