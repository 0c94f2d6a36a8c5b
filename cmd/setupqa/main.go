package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"racing-setup-rag/internal/app"
	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/logging"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		// a second interrupt kills the process
		<-ctx.Done()
		stop()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	chat := newChatCmd()
	root := &cobra.Command{
		Use:   "setupqa",
		Short: "iRacing setup assistant: short, numeric setup changes from your setup guides",
		Long: `setupqa answers driver questions with 1-3 concrete setup adjustments,
using the setup guides indexed by the indexer and an optional telemetry CSV.

Run without a subcommand for the interactive question loop.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          chat.RunE,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultConfigFile+" if present)")
	config.AddFlags(root.PersistentFlags(), config.QueryFlags...)

	root.AddCommand(
		chat,
		newAskCmd(),
		newServeCmd(),
		newTUICmd(),
		newConfigCmd(),
		newIndexInfoCmd(),
	)
	return root
}

// loadConfig resolves configuration for cmd and builds the logger
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openApp runs the process-wide initialization; the returned func tears it down
func openApp(cmd *cobra.Command) (*app.App, func(), error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return openAppWith(cmd.Context(), cfg, logger)
}

func openAppWith(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.App, func(), error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	closer := func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close index", zap.Error(err))
		}
		logger.Sync()
	}
	return a, closer, nil
}
