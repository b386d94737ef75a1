// Package main provides the kbagent CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/kbagent/catalog"
	"github.com/richinex/kbagent/cli"
)

var (
	// Global flags
	configPath  string
	maxIter     int
	toolRetries uint32
	verbose     bool
	httpTimeout time.Duration
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "kbagent",
		Short: "LLM agent over hosted knowledge bases",
		Long: `A CLI for asking an LLM agent questions answered from hosted knowledge bases.

Two commands:
- ask: any number of knowledge bases selected by name, id or "all"
- chat: a single knowledge base with conversation memory`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().IntVarP(&maxIter, "max-iter", "m", 10, "Maximum tool-calling rounds")
	rootCmd.PersistentFlags().Uint32Var(&toolRetries, "tool-retries", 3, "Maximum attempts per tool call")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs and HTTP traces")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, "timeout", 0, "Timeout for knowledge base API requests (0 for none)")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(knowledgeBasesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// globalOptions passes max-iter only when set, so the config file and environment still apply.
func globalOptions(cmd *cobra.Command) cli.Options {
	opts := cli.DefaultOptions()
	opts.ConfigPath = configPath
	opts.ToolRetries = toolRetries
	opts.Verbose = verbose
	opts.Timeout = httpTimeout
	if cmd.Flags().Changed("max-iter") {
		opts.MaxIter = maxIter
	}
	return opts
}

// changed returns value when the flag was given on the command line, else "".
func changed(cmd *cobra.Command, name, value string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return ""
}

func askCmd() *cobra.Command {
	var ask cli.AskOptions
	var provider, searchMode, memory, dbPath string
	var count int

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question across one or more knowledge bases",
		Long: `Ask a question with one search tool per selected knowledge base.

Knowledge bases are selected with -k as a comma-separated list of names or ids,
or "all". Use --list-kb to see the catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.NewDefault()
			if err != nil {
				return err
			}
			ask.Provider = changed(cmd, "provider", provider)
			ask.Overrides = cli.MemoryOverrides{
				SearchMode: changed(cmd, "search-mode", searchMode),
				Backend:    changed(cmd, "memory", memory),
				DBPath:     changed(cmd, "db", dbPath),
			}
			if cmd.Flags().Changed("count") {
				ask.Overrides.ResultCount = count
			}
			return cli.Ask(cmd.Context(), cat, ask, globalOptions(cmd))
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "google", "LLM provider (openai, anthropic, google)")
	cmd.Flags().StringVarP(&ask.Selection, "knowledge-base-ids", "k", "", `Knowledge bases: names or ids, comma-separated, or "all"`)
	cmd.Flags().BoolVar(&ask.ListKB, "list-kb", false, "List available knowledge bases and exit")
	cmd.Flags().StringVarP(&ask.Query, "query", "q", cli.DefaultAskQuery, "Question to ask")
	cmd.Flags().StringVarP(&ask.RulesetAlias, "ruleset-alias", "r", "", "Ruleset alias for the system prompt")
	cmd.Flags().BoolVarP(&ask.Stream, "stream", "s", false, "Stream the answer (without knowledge base tools)")
	cmd.Flags().StringVarP(&ask.ThreadID, "thread-id", "t", "", "Thread id for conversation memory")
	cmd.Flags().StringVar(&searchMode, "search-mode", "query", "Retrieval endpoint: query or search")
	cmd.Flags().IntVar(&count, "count", 5, "Passages per knowledge base search")
	cmd.Flags().StringVar(&memory, "memory", "cloud", "Conversation memory backend: cloud or local")
	cmd.Flags().StringVar(&dbPath, "db", ".kbagent/kbagent.db", "Database path for local memory")
	cmd.Flags().BoolVar(&ask.StrictIDs, "strict-ids", false, "Drop id-shaped selections that are not valid UUIDs")

	return cmd
}

func chatCmd() *cobra.Command {
	var chat cli.ChatOptions
	var provider, searchMode, memory, dbPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a single knowledge base using conversation memory",
		Long: `Send one prompt to an agent with a single knowledge base tool.

Conversation memory is always on. Without --thread-id a new thread is created
and its id printed so the next call can continue it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chat.Provider = changed(cmd, "provider", provider)
			chat.Overrides = cli.MemoryOverrides{
				SearchMode: changed(cmd, "search-mode", searchMode),
				Backend:    changed(cmd, "memory", memory),
				DBPath:     changed(cmd, "db", dbPath),
			}
			return cli.Chat(cmd.Context(), chat, globalOptions(cmd))
		},
	}

	cmd.Flags().StringVarP(&chat.KnowledgeBaseID, "knowledge-base-id", "k", "", "Knowledge base id")
	cmd.Flags().StringVarP(&chat.Prompt, "prompt", "p", cli.DefaultChatPrompt, "Prompt to send")
	cmd.Flags().StringVarP(&chat.RulesetAlias, "ruleset-alias", "r", "", "Ruleset alias for the system prompt")
	cmd.Flags().BoolVarP(&chat.Stream, "stream", "s", false, "Stream the answer (without knowledge base tools)")
	cmd.Flags().StringVarP(&chat.ThreadID, "thread-id", "t", "", "Thread id to continue")
	cmd.Flags().StringVar(&provider, "provider", "openai", "LLM provider (openai, anthropic, google)")
	cmd.Flags().StringVar(&searchMode, "search-mode", "query", "Retrieval endpoint: query or search")
	cmd.Flags().StringVar(&memory, "memory", "cloud", "Conversation memory backend: cloud or local")
	cmd.Flags().StringVar(&dbPath, "db", ".kbagent/kbagent.db", "Database path for local memory")

	return cmd
}

func knowledgeBasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "knowledge-bases",
		Aliases: []string{"kb"},
		Short:   "List available knowledge bases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.NewDefault()
			if err != nil {
				return err
			}
			cli.ListKnowledgeBases(cmd.OutOrStdout(), cat)
			return nil
		},
	}
}
