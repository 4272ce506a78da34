package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/passage-org/passage-complete/internal/config"
	"github.com/passage-org/passage-complete/internal/lsp"
	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/errors"
	"github.com/passage-org/passage-complete/pkg/settings"
)

func newLSPCmd(opts *globalOptions) *cobra.Command {
	var (
		websocketAddr string
		metricsAddr   string
		maxDocuments  int
	)
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server",
		Long: "Run a Language Server Protocol server offering SPARQL completion and\n" +
			"keyword hover. It talks over stdio unless --websocket is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, func(c *config.Config) {
				if metricsAddr != "" {
					c.LSP.MetricsAddress = metricsAddr
				}
			})
			if err != nil {
				return err
			}
			engine, err := core.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			// Over stdio the session ends when the client closes stdin.
			var (
				ctx  context.Context
				stop context.CancelFunc
			)
			if websocketAddr != "" {
				ctx, stop = signal.NotifyContext(opts.ctx, os.Interrupt, syscall.SIGTERM)
			} else {
				ctx, stop = context.WithCancel(opts.ctx)
			}
			defer stop()
			ctx = opts.serverContext(ctx, settings.FrontLSP)

			srv := lsp.NewServer(engine, lsp.WithMaxDocuments(maxDocuments))
			g, gctx := errgroup.WithContext(ctx)
			if addr := cfg.LSP.MetricsAddress; addr != "" {
				g.Go(func() error { return lsp.ServeMetrics(gctx, addr) })
			}
			g.Go(func() error {
				if websocketAddr != "" {
					return srv.ServeWebSocket(gctx, websocketAddr)
				}
				err := srv.ServeStdio(gctx)
				stop()
				return err
			})
			if err := g.Wait(); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&websocketAddr, "websocket", "", "serve clients over WebSocket on this address instead of stdio")
	cmd.Flags().StringVar(&metricsAddr, "metrics-address", "", "expose Prometheus metrics on this address (default from config)")
	cmd.Flags().IntVar(&maxDocuments, "max-documents", lsp.DefaultMaxDocuments, "open documents kept in memory")
	return cmd
}
