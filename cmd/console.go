// File: cmd/console.go
package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/periscope-sec/periscope-cli/internal/console"
	"github.com/periscope-sec/periscope-cli/internal/observability"
)

// newConsoleCmd creates the `console` command: a live view of the workspace,
// kept current over the duplex snapshot feed (or fixed-interval polling).
func newConsoleCmd() *cobra.Command {
	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Follow the live workspace state until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			// An explicit --transport flag wins over config file and environment.
			if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
				cfg.Console.Transport = transport
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine := console.NewEngine(cfg, console.LogBinder(logger), logger)

			logger.Info("Console session starting",
				zap.String("transport", cfg.Console.Transport),
				zap.String("server", cfg.Server.BaseURL),
			)

			err := engine.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("Console session ended")
			return nil
		},
	}

	consoleCmd.Flags().String("transport", "", "snapshot transport: 'websocket' or 'poll' (overrides config/env)")
	return consoleCmd
}
