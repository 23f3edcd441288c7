package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/rewind/internal/config/watcher"
	"github.com/dshills/rewind/internal/logging"
)

func noEnv(string) (string, bool) { return "", false }

func newTestApp(t *testing.T, configText string, opts Options) (*Application, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rewind.toml")
	if configText != "" {
		if err := os.WriteFile(path, []byte(configText), 0644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	headless := false
	opts.ConfigPath = path
	opts.Interactive = &headless
	opts.Stdin = strings.NewReader("")
	opts.Stdout = &out
	opts.Stderr = &bytes.Buffer{}
	if opts.Env == nil {
		opts.Env = noEnv
	}

	app, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app, &out
}

func writeScript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.rw")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewApplication(t *testing.T) {
	app, _ := newTestApp(t, "[history]\nmax_depth = 25\n", Options{})

	if app.Workspace() == nil {
		t.Fatal("expected workspace to be initialized")
	}
	if got := app.Workspace().History().MaxDepth(); got != 25 {
		t.Errorf("MaxDepth() = %d, want 25", got)
	}
	if app.Config().History.MaxDepth != 25 {
		t.Errorf("Config().History.MaxDepth = %d, want 25", app.Config().History.MaxDepth)
	}
}

func TestNewApplication_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewind.yaml")
	if err := os.WriteFile(path, []byte("history:\n  max_depth: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(Options{ConfigPath: path, Env: noEnv, Stdin: strings.NewReader(""), Stderr: &bytes.Buffer{}})
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "config" {
		t.Fatalf("New() = %v, want config InitError", err)
	}
}

func TestLogLevelOverrides(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want logging.Level
	}{
		{"config", Options{}, logging.LevelWarn},
		{"flag", Options{LogLevel: "error"}, logging.LevelError},
		{"debug", Options{LogLevel: "error", Debug: true}, logging.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, "[logging]\nlevel = \"warn\"\n", tt.opts)
			if got := app.Logger().Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunScript(t *testing.T) {
	app, out := newTestApp(t, "", Options{})
	script := writeScript(t,
		`open a "foo"`,
		`open b "foo"`,
		"replace foo bar",
		"focus a",
		"undo",
		"show",
	)

	if err := app.RunScript(context.Background(), script); err != nil {
		t.Fatalf("RunScript() = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Undo Replace All? It also affects b. [auto: yes]",
		`*a "|foo"`,
		` b "|foo"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q lacks %q", got, want)
		}
	}
}

func TestRunScript_StopsOnError(t *testing.T) {
	app, _ := newTestApp(t, "", Options{})
	script := writeScript(t, "open a", "undo-nothing", "open b")

	if err := app.RunScript(context.Background(), script); err == nil {
		t.Fatal("RunScript() = nil, want error")
	}
	if _, ok := app.Workspace().Document("b"); ok {
		t.Error("script kept running after the error")
	}
}

func TestRunScript_Missing(t *testing.T) {
	app, _ := newTestApp(t, "", Options{})
	if err := app.RunScript(context.Background(), filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("RunScript() = nil for a missing file")
	}
}

func TestApplyPendingConfig(t *testing.T) {
	app, _ := newTestApp(t, "[history]\nmax_depth = 10\nconfirm_cross_scope = true\n", Options{})
	ws := app.Workspace()

	for i := 0; i < 5; i++ {
		if err := ws.Set("k", "v"); err != nil {
			t.Fatal(err)
		}
	}

	if app.ApplyPendingConfig() {
		t.Fatal("applied a config with none pending")
	}

	if err := os.WriteFile(app.source.Path(), []byte("[history]\nmax_depth = 2\nconfirm_cross_scope = false\nmerge_typing = false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	app.reload(watcher.Event{Path: app.source.Path(), Op: watcher.OpWrite})

	if ws.History().MaxDepth() != 10 {
		t.Fatal("reload touched the history before it was applied")
	}
	if !app.ApplyPendingConfig() {
		t.Fatal("pending config not applied")
	}
	if ws.History().MaxDepth() != 2 {
		t.Errorf("MaxDepth() = %d, want 2", ws.History().MaxDepth())
	}
	if app.Config().History.ConfirmCrossScope {
		t.Error("confirm default not updated")
	}
	if app.confirm.fallback {
		t.Error("confirmer fallback not updated")
	}
}

func TestReload_InvalidKeepsSettings(t *testing.T) {
	app, _ := newTestApp(t, "[history]\nmax_depth = 10\n", Options{})

	if err := os.WriteFile(app.source.Path(), []byte("[history\n"), 0644); err != nil {
		t.Fatal(err)
	}
	app.reload(watcher.Event{Path: app.source.Path(), Op: watcher.OpWrite})

	if app.ApplyPendingConfig() {
		t.Error("applied an unparsable config")
	}
	if app.Workspace().History().MaxDepth() != 10 {
		t.Error("settings changed after a bad reload")
	}
}

func TestReload_RemovedKeepsSettings(t *testing.T) {
	app, _ := newTestApp(t, "[history]\nmax_depth = 10\n", Options{})

	if err := os.Remove(app.source.Path()); err != nil {
		t.Fatal(err)
	}
	for _, op := range []watcher.Operation{watcher.OpRemove, watcher.OpWrite} {
		app.reload(watcher.Event{Path: app.source.Path(), Op: op})
		if app.ApplyPendingConfig() {
			t.Errorf("%s of a missing file applied a config", op)
		}
	}
	if app.Workspace().History().MaxDepth() != 10 {
		t.Errorf("MaxDepth() = %d, want 10", app.Workspace().History().MaxDepth())
	}
}

func TestWatchReload(t *testing.T) {
	app, _ := newTestApp(t, "[history]\nmax_depth = 10\n", Options{Watch: true})
	if app.watcher == nil {
		t.Fatal("watcher not started")
	}

	if err := os.WriteFile(app.source.Path(), []byte("[history]\nmax_depth = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// A write can surface as more than one event; wait for the final content.
	deadline := time.Now().Add(3 * time.Second)
	for app.Workspace().History().MaxDepth() != 3 {
		if time.Now().After(deadline) {
			t.Fatal("config change never arrived")
		}
		app.ApplyPendingConfig()
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownTwice(t *testing.T) {
	app, _ := newTestApp(t, "", Options{Watch: true})
	app.Shutdown()
	app.Shutdown()
}
