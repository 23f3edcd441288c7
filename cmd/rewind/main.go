// Package main is the entry point for the rewind command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/rewind/internal/app"
	"github.com/dshills/rewind/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:   "rewind",
		Short: "Multi-document undo/redo workbench",
		Long: `rewind edits a set of in-memory documents through a small command
language and keeps an undo history per document. Commands that change
several documents at once are undone together, after confirmation.

Environment overrides:
  ` + strings.Join(config.EnvVars(), "\n  "),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(opts.LogLevel) {
			case "", "debug", "info", "warn", "error":
				return nil
			}
			return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.LogLevel)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file, .toml or .yaml (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(
		newReplCmd(&opts),
		newRunCmd(&opts),
		newVersionCmd(),
	)
	return root
}

func newReplCmd(opts *app.Options) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := *opts
			o.Watch = !noWatch
			return withApp(o, func(a *app.Application) error {
				fmt.Fprintln(cmd.OutOrStdout(), `rewind `+version+` - type "help" for commands`)
				return a.RunREPL(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file when it changes")
	return cmd
}

func newRunCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a command script, stopping at the first error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*opts, func(a *app.Application) error {
				return a.RunScript(cmd.Context(), args[0])
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rewind %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}

func withApp(opts app.Options, fn func(*app.Application) error) error {
	a, err := app.New(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Shutdown()
	return fn(a)
}
