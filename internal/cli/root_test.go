package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"ui", "analyze", "check", "history", "session", "config", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}

	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	want := fmt.Sprintf("coderefine %s (commit none, built unknown)\n", buildVersion())
	if out != want {
		t.Errorf("version output = %q, want %q", out, want)
	}

	out, _, err = execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version --short: %v", err)
	}
	if out != buildVersion()+"\n" {
		t.Errorf("short version output = %q", out)
	}

	out, _, err = execute(t, "version", "-v")
	if err != nil {
		t.Fatalf("version -v: %v", err)
	}
	if !strings.Contains(out, runtime.Version()) {
		t.Errorf("verbose output missing toolchain: %q", out)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&ExitError{Code: 2}, 2},
		{&ExitError{Code: 1, Err: errors.New("partial failure")}, 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "coderefine.yaml")
	cfgData := "server:\n  base_url: http://from-config:1\n  timeout: 5\nanalysis:\n  language: go\n"
	if err := os.WriteFile(cfgPath, []byte(cfgData), 0o644); err != nil {
		t.Fatal(err)
	}

	err := rootCmd.ParseFlags([]string{
		"--config", cfgPath,
		"--base-url", "http://from-flag:2",
		"--session-file", filepath.Join(dir, "state.yaml"),
	})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	a, err := newApp(rootCmd, true)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if a.cfgPath != cfgPath {
		t.Errorf("config path = %q, want %q", a.cfgPath, cfgPath)
	}
	if a.cfg.Server.BaseURL != "http://from-flag:2" {
		t.Errorf("base url = %q, flag should win", a.cfg.Server.BaseURL)
	}
	if a.cfg.Server.Timeout != 5 {
		t.Errorf("timeout = %d, want 5 from config", a.cfg.Server.Timeout)
	}
	if got := a.languageFor(rootCmd, "app.py"); got != "python" {
		t.Errorf("extension should pick python, got %q", got)
	}
	if got := a.languageFor(rootCmd, "README"); got != "go" {
		t.Errorf("config default should pick go, got %q", got)
	}
}

func TestInvalidConfigIsRejected(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	err := rootCmd.ParseFlags([]string{
		"--config", writeConfig(t, "http://localhost:1"),
		"--base-url", "not a url",
	})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := newApp(rootCmd, true); err == nil {
		t.Error("expected an invalid base url to be rejected")
	}
}
