package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZaguanLabs/pagetl/cache"
	"github.com/ZaguanLabs/pagetl/internal/config"
)

func newCacheCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Dump, load or purge a persistent translation memory",
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Write every cached translation as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, tm, closeCache, err := openMemory(v)
			if err != nil {
				return err
			}
			defer closeCache()

			var w io.Writer = cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("output"); path != "" {
				f, err := os.Create(path) // #nosec G304 - user-provided output path
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := cache.Dump(w, tm, map[string]string{"backend": cfg.Cache.Type})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries\n", n)
			return nil
		},
	}
	export.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	load := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a dump written by cache export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tm, closeCache, err := openMemory(v)
			if err != nil {
				return err
			}
			defer closeCache()

			f, err := os.Open(args[0]) // #nosec G304 - user-provided input path
			if err != nil {
				return err
			}
			defer f.Close()

			stats, err := cache.Load(f, tm)
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d entries (%d skipped, %d failed)\n",
				stats.Loaded, stats.Skipped, stats.Failed)
			return nil
		},
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired entries from an SQLite translation memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, tm, closeCache, err := openMemory(v)
			if err != nil {
				return err
			}
			defer closeCache()

			sc, ok := tm.(*cache.SQLiteCache)
			if !ok {
				return errors.New("purge needs --cache sqlite")
			}
			n, err := sc.Purge()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Purged %d entries\n", n)
			return nil
		},
	}

	cmd.AddCommand(export, load, purge)
	return cmd
}

// openMemory opens the configured translation memory. In-process backends
// are refused: they start empty and vanish on exit.
func openMemory(v *viper.Viper) (*config.Config, cache.TranslationCache, func() error, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Cache.Type != "redis" && cfg.Cache.Type != "sqlite" {
		return nil, nil, nil, fmt.Errorf("cache %q is not persistent; use --cache sqlite or --cache redis", cfg.Cache.Type)
	}
	tm, closeCache, err := cfg.NewCache()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening translation memory: %w", err)
	}
	return cfg, tm, closeCache, nil
}
