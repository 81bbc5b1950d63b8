package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"oakwood/internal/catalog"
	"oakwood/internal/config"
	"oakwood/internal/ipc"
	"oakwood/internal/logging"
)

func newServeCommand(cctx *commandContext) *cobra.Command {
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent-tool RPC server",
		Long: "Run the JSON-RPC server that exposes the catalogue to local agent " +
			"tools over a Unix socket. Write access is controlled by the " +
			"server.allow_writes config key; --read-only forces it off for this run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return err
				}

				source, err := cctx.lookupClient()
				if err != nil {
					return err
				}
				log, err := cctx.activityLog()
				if err != nil {
					return err
				}

				allowWrites := cfg.Server.AllowWrites && !readOnly

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				srv, err := ipc.NewServer(ctx, cfg.Server.SocketPath, ipc.Options{
					Store:       store,
					Source:      source,
					Activity:    log,
					AllowWrites: allowWrites,
					Logger:      logger,
				})
				if err != nil {
					return err
				}
				srv.Serve()

				mode := "read-only"
				if allowWrites {
					mode = "read-write"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (%s); press Ctrl-C to stop\n",
					cfg.Server.SocketPath, mode)
				logger.Info("server started",
					logging.String("socket", cfg.Server.SocketPath),
					logging.Bool("allow_writes", allowWrites))

				<-ctx.Done()
				srv.Close()
				logger.Info("server stopped")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject mutating calls for this run")
	return cmd
}
