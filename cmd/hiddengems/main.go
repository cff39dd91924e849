package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
)

// Version is set by the build system.
var Version = "dev"

func rootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "hiddengems",
		Short:         "Find an artist's hidden gems on Spotify",
		Long:          "Terminal client for the Spotify authorization code flow with PKCE and the hidden gems track search.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slogctx.NewHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}), nil))
			slog.SetDefault(logger)
			cmd.SetContext(slogctx.NewCtx(cmd.Context(), logger))
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(
		loginCmd(),
		tokenCmd(),
		refreshCmd(),
		songsCmd(),
	)
	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slogctx.Error(ctx, "command failed", "err", err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
