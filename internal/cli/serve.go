package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stash/internal/appstate"
	"github.com/roach88/stash/internal/blob"
	"github.com/roach88/stash/internal/broadcast"
	"github.com/roach88/stash/internal/framelog"
	"github.com/roach88/stash/internal/httpd"
	"github.com/roach88/stash/internal/preview"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the capture store",
		Long: `Open the frame log and blob cache, start the tailer, and serve the
loopback HTTP surface.

Example:
  stash serve
  stash serve --data-dir /tmp/stash --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := opts.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	slog.Info("opening frame log", "dir", cfg.LogDir())
	log, err := framelog.Open(cfg.LogDir())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open frame log", err)
	}
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			slog.Error("error closing frame log", "error", closeErr)
		}
	}()

	cache, err := blob.Open(cfg.CacheDir())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open blob cache", err)
	}

	// Explicit application context, constructed once and handed to
	// every component. No package-level singletons.
	state := appstate.New(log, cache)
	bus := broadcast.New()
	tailer := broadcast.NewTailer(state, bus, cfg.PollInterval())
	server := httpd.New(state, bus, preview.Render, cfg.Listen)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go tailer.Run(ctx)

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl-C to stop)\n", cfg.Listen)
	if err := server.Serve(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("stopped gracefully")
	return nil
}
