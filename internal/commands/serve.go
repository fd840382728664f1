package commands

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mott-dev/mott/internal/config"
	"github.com/mott-dev/mott/internal/server"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dispatcher over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := slog.Default()
			dispatcher, closePublisher, err := buildDispatcher(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closePublisher()

			srv := &http.Server{
				Addr:              cfg.Listen,
				Handler:           server.New(dispatcher, log).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			log.Info("listening", "addr", cfg.Listen, "backend", cfg.Storage.Backend)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "mott.yaml", "path to mott.yaml")
	return cmd
}
