package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZaguanLabs/pagetl/server"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			logger := newLogger(v, cmd.ErrOrStderr())

			p, err := cfg.NewProvider(logger)
			if err != nil {
				return err
			}
			tm, closeCache, err := cfg.NewCache()
			if err != nil {
				return fmt.Errorf("opening translation memory: %w", err)
			}
			defer closeCache()

			srv := server.New(server.Config{
				Addr:         cfg.Server.Addr,
				Provider:     p,
				Options:      cfg.Options(tm, logger),
				DefaultLang:  cfg.TargetLang,
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				Logger:       logger,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", cfg.Server.Addr)
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: :8080)")
	cmd.Flags().String("lang", "", "Target language when requests omit ?lang=")
	return cmd
}
