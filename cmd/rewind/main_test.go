package main

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "rewind "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, err := execute(t, "--log-level", "loud", "version"); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestRunNeedsScript(t *testing.T) {
	if _, err := execute(t, "run"); err == nil {
		t.Error("expected error without a script argument")
	}
}

func TestHelpListsEnv(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "REWIND_HISTORY_MAX_DEPTH") {
		t.Errorf("help output lacks environment overrides: %q", out)
	}
}
