package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/passage-org/passage-complete/internal/config"
	"github.com/passage-org/passage-complete/internal/server"
	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/settings"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve completions as a JSON HTTP API",
		Long: "Serve POST /v1/complete and POST /v1/analyze, plus /healthz and\n" +
			"/metrics, until interrupted. Every client shares one session cache.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, func(c *config.Config) {
				if address != "" {
					c.Server.Address = address
				}
			})
			if err != nil {
				return err
			}
			engine, err := core.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(opts.ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = opts.serverContext(ctx, settings.FrontHTTP)
			return server.New(engine).Run(ctx, cfg.Server.Address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (default from config)")
	return cmd
}
