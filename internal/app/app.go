package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/config/watcher"
	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/logging"
	"github.com/dshills/rewind/internal/shell"
)

// Application owns the configuration, logger, workspace, and config watcher
// of one rewind process.
//
// The workspace and its history are single-threaded. Config reloads arrive
// on the watcher's goroutine and are parked until the session applies them
// before its next command.
type Application struct {
	opts Options

	source  *config.Source
	cfg     config.Config
	pending atomic.Pointer[config.Config]

	log       *logging.Logger
	in        *bufio.Reader
	confirm   *Confirmer
	workspace *engine.Workspace
	watcher   *watcher.Watcher

	shutdownOnce sync.Once
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty means the default
	// location in the user config directory.
	ConfigPath string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// Debug forces debug logging.
	Debug bool

	// Watch reloads the config file when it changes.
	Watch bool

	// Interactive asks cross-document prompts on the terminal. When nil
	// it is detected from Stdin.
	Interactive *bool

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Env replaces the environment lookup for config overrides.
	Env func(string) (string, bool)
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{
		opts: opts,
		in:   bufio.NewReader(opts.Stdin),
	}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	var srcOpts []config.SourceOption
	if app.opts.Env != nil {
		srcOpts = append(srcOpts, config.WithEnv(app.opts.Env))
	}
	app.source = config.NewSource(app.opts.ConfigPath, srcOpts...)
	cfg, err := app.source.Load()
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = cfg

	// 2. Logger
	app.log = logging.New(logging.Config{
		Level:  app.logLevel(cfg),
		Output: app.opts.Stderr,
		Prefix: "rewind",
	})
	app.log.Debug("config loaded from %s", app.source.Path())

	// 3. Confirmer
	interactive := IsTerminal(app.opts.Stdin)
	if app.opts.Interactive != nil {
		interactive = *app.opts.Interactive
	}
	app.confirm = NewConfirmer(app.in, app.opts.Stdout, interactive, cfg.History.ConfirmCrossScope)

	// 4. Workspace
	hopts := append(cfg.HistoryOptions(), history.WithConfirmer(app.confirm))
	app.workspace = engine.New(
		engine.WithLogger(app.log),
		engine.WithHistory(hopts...),
	)
	app.confirm.SetNames(app.workspace.ScopeName)

	// 5. Watcher. Failing to watch is not fatal.
	if app.opts.Watch {
		w, err := watcher.New(app.source.Path(), watcher.WithErrorHandler(func(err error) {
			app.log.Warn("config watcher: %v", err)
		}))
		if err != nil {
			app.log.Warn("not watching %s: %v", app.source.Path(), err)
		} else {
			w.OnChange(app.reload)
			app.watcher = w
		}
	}
	return nil
}

func (app *Application) logLevel(cfg config.Config) logging.Level {
	switch {
	case app.opts.Debug:
		return logging.LevelDebug
	case app.opts.LogLevel != "":
		return logging.ParseLevel(app.opts.LogLevel)
	default:
		return cfg.LogLevel()
	}
}

// reload runs on the watcher goroutine. It only loads and parks the new
// config; nothing here touches the workspace.
func (app *Application) reload(event watcher.Event) {
	// A missing file would load as defaults. Wait for it to come back.
	if event.Op == watcher.OpRemove {
		app.log.Warn("config %s removed, keeping current settings", event.Path)
		return
	}
	if _, err := os.Stat(app.source.Path()); errors.Is(err, fs.ErrNotExist) {
		app.log.Warn("config %s missing after %s, keeping current settings", event.Path, event.Op)
		return
	}
	cfg, err := app.source.Load()
	if err != nil {
		app.log.Warn("config %s after %s, keeping current settings: %v", event.Path, event.Op, err)
		return
	}
	app.pending.Store(&cfg)
	app.log.Debug("config %s after %s, pending", event.Path, event.Op)
}

// ApplyPendingConfig applies a reloaded config, if one is waiting. It must
// run on the goroutine that drives the workspace. Returns true if a config
// was applied.
func (app *Application) ApplyPendingConfig() bool {
	cfg := app.pending.Swap(nil)
	if cfg == nil {
		return false
	}
	if err := app.applyConfig(*cfg); err != nil {
		app.log.Warn("config reload: %v", err)
		// Try again before the next command.
		app.pending.CompareAndSwap(nil, cfg)
		return false
	}
	app.log.Info("config reloaded")
	return true
}

func (app *Application) applyConfig(cfg config.Config) error {
	h := app.workspace.History()
	if err := h.SetMaxDepth(cfg.History.MaxDepth); err != nil {
		return err
	}
	if err := h.SetMergePolicy(cfg.MergePolicy()); err != nil {
		return err
	}
	app.confirm.SetFallback(cfg.History.ConfirmCrossScope)
	app.log.SetLevel(app.logLevel(cfg))
	app.cfg = cfg
	return nil
}

// Session creates a shell session over the workspace. Interactive sessions
// show a prompt and keep going after errors; scripts stop at the first
// failing line.
func (app *Application) Session(interactive bool) *shell.Session {
	opts := []shell.Option{
		shell.WithLogger(app.log),
		shell.WithBeforeCommand(func() { app.ApplyPendingConfig() }),
		shell.WithStopOnError(!interactive),
	}
	if interactive {
		opts = append(opts, shell.WithPrompt("rewind> "))
	}
	return shell.New(app.workspace, app.opts.Stdout, opts...)
}

// RunREPL reads commands from stdin until EOF or quit.
func (app *Application) RunREPL(ctx context.Context) error {
	return app.Session(true).Run(ctx, app.in)
}

// RunScript executes the commands in the file at path.
func (app *Application) RunScript(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return app.Session(false).Run(ctx, bufio.NewReader(f))
}

// Shutdown stops the config watcher. It is safe to call more than once.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				app.log.Warn("closing config watcher: %v", err)
			}
		}
		app.log.Debug("shutdown complete")
	})
}

// Config returns the config currently in effect.
func (app *Application) Config() config.Config {
	return app.cfg
}

// Workspace returns the workspace.
func (app *Application) Workspace() *engine.Workspace {
	return app.workspace
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}
