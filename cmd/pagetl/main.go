// Command pagetl translates HTML files and serves the translation engine
// over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZaguanLabs/pagetl"
	"github.com/ZaguanLabs/pagetl/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(viper.New())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   pagetl.Name,
		Short: "Translate web pages in place with an AI backend",
		Long: `pagetl scans HTML for user-visible text, sends it to a translation
backend in batches and writes the results back into the page.

Examples:
  pagetl translate index.html --lang es_ES -o index.es.html
  pagetl translate index.html --lang de --dry-run
  pagetl translate index.html --lang fr --diff index.old.html
  pagetl serve --addr :8080
  pagetl cache export --cache sqlite -o memory.jsonl`,
		Version:       pagetl.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// bind the executing command's flags, inherited ones included
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			v.SetEnvPrefix("PAGETL")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			return nil
		},
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("source", "", "Source language code (default: en)")
	pf.String("provider", "", "Translation backend: openai, http or mock (default: openai)")
	pf.String("model", "", "OpenAI model to use (default: gpt-4o-mini)")
	pf.String("api-key", "", "API key (default: OPENAI_API_KEY env)")
	pf.String("base-url", "", "OpenAI-compatible base URL")
	pf.String("endpoint", "", "Endpoint for the http backend")
	pf.Int("retries", 0, "Retries per failed batch (default: 2)")
	pf.String("cache", "", "Translation memory: none, memory, redis or sqlite (default: memory)")
	pf.Duration("cache-ttl", 0, "Translation memory TTL (default: 1h)")
	pf.String("redis-url", "", "Redis URL for --cache redis")
	pf.String("sqlite-path", "", "Database file for --cache sqlite (default: pagetl.db)")
	pf.String("context", "", "Translation context (e.g., 'E-commerce website')")
	pf.String("style", "", "Translation style: formal, neutral, casual, marketing or technical")
	pf.String("exclude", "", "Comma-separated terms to never translate")
	pf.Int("batch-size", 0, "Items per batch (default: 50)")
	pf.Bool("advanced", false, "Skip phone numbers, dates, times, prices and icon names")
	pf.Bool("strict", false, "Also skip code, pre, kbd, svg and form controls")
	pf.Bool("verbose", false, "Debug logging")

	root.AddCommand(
		newTranslateCommand(v),
		newServeCommand(v),
		newCacheCommand(v),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", pagetl.Name, pagetl.FullVersion())
			if c := pagetl.GitCommit; c != "unknown" && c != "" {
				fmt.Fprintf(out, "  commit:  %s\n", c)
			}
			if d := pagetl.BuildDate; d != "unknown" && d != "" {
				fmt.Fprintf(out, "  built:   %s\n", d)
			}
		},
	}
}

// loadConfig reads --config when given, then applies flags and PAGETL_*
// environment variables on top.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) && v.GetString(key) != "" {
			*dst = v.GetString(key)
		}
	}
	setString("lang", &cfg.TargetLang)
	setString("source", &cfg.SourceLang)
	setString("provider", &cfg.Provider.Type)
	setString("model", &cfg.Provider.Model)
	setString("api-key", &cfg.Provider.APIKey)
	setString("base-url", &cfg.Provider.BaseURL)
	setString("endpoint", &cfg.Provider.Endpoint)
	setString("cache", &cfg.Cache.Type)
	setString("redis-url", &cfg.Cache.RedisURL)
	setString("sqlite-path", &cfg.Cache.SQLitePath)
	setString("context", &cfg.Prompt.Context)
	setString("style", &cfg.Prompt.Style)
	setString("addr", &cfg.Server.Addr)

	if v.IsSet("exclude") {
		cfg.Prompt.ExcludedTerms = config.SplitList(v.GetString("exclude"))
	}
	if v.IsSet("retries") {
		cfg.Provider.Retries = v.GetInt("retries")
	} else if cfg.Provider.Retries == 0 {
		cfg.Provider.Retries = pagetl.DefaultRetryConfig().MaxRetries
	}
	if v.IsSet("cache-ttl") && v.GetDuration("cache-ttl") != 0 {
		cfg.Cache.TTL = v.GetDuration("cache-ttl")
	}
	if v.IsSet("batch-size") && v.GetInt("batch-size") > 0 {
		cfg.Batch.Size = v.GetInt("batch-size")
	}
	if v.IsSet("advanced") {
		cfg.Scan.Advanced = v.GetBool("advanced")
	}
	if v.IsSet("strict") {
		cfg.Scan.Strict = v.GetBool("strict")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(v *viper.Viper, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// truncate shortens s to at most n runes for terminal listings.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
