package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/outliner/internal/config"
	"github.com/hylla/outliner/internal/tui"
)

// TestMain keeps CLI tests out of dev mode so no log files are written.
func TestMain(m *testing.M) {
	_ = os.Setenv("OUTLINER_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram stands in for the TUI program loop.
type fakeProgram struct {
	model  tea.Model
	runErr error
}

// Run returns the configured result without touching the terminal.
func (f fakeProgram) Run() (tea.Model, error) {
	return f.model, f.runErr
}

// cliEnv points every invocation at one temp database and config.
type cliEnv struct {
	dbPath     string
	configPath string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	return cliEnv{
		dbPath:     filepath.Join(dir, "outliner.db"),
		configPath: filepath.Join(dir, "config.toml"),
	}
}

// run executes one command line and returns stdout.
func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--db", e.dbPath, "--config", e.configPath}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("run(%v) error = %v", args, err)
	}
	return out
}

func firstField(out string) string {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func TestRunPathsCommand(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"--app", "outliner-test", "paths"}, &stdout, nil); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"app: outliner-test", "dev_mode: false", "config: ", "db: ", "log_dir: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in paths output %q", want, out)
		}
	}
}

func TestRunSheetAndRowCommands(t *testing.T) {
	env := newCLIEnv(t)

	created := env.mustRun(t, "new", "Gear", "--kind", "equipment")
	if !strings.Contains(created, "\tGear\tequipment") {
		t.Fatalf("unexpected new output %q", created)
	}
	packID := firstField(env.mustRun(t, "add", "Gear", "Pack", "--container"))
	if packID == "" {
		t.Fatal("expected add to print the new row id")
	}
	env.mustRun(t, "add", "Gear", "Rope", "--parent", packID, "--quantity", "2")
	env.mustRun(t, "add", "Gear", "Anvil", "--weight", "40")

	tree := env.mustRun(t, "tree", "Gear")
	for _, want := range []string{"Name", "Qty", "▾ Pack", "  Rope", "Anvil", "40"} {
		if !strings.Contains(tree, want) {
			t.Fatalf("expected %q in tree:\n%s", want, tree)
		}
	}
	if strings.Index(tree, "Pack") > strings.Index(tree, "Anvil") {
		t.Fatalf("expected insertion order before sorting:\n%s", tree)
	}

	env.mustRun(t, "sort", "Gear", "name")
	sorted := env.mustRun(t, "tree", "Gear")
	if strings.Index(sorted, "Anvil") > strings.Index(sorted, "Pack") {
		t.Fatalf("expected stored sort to reorder rows:\n%s", sorted)
	}
	env.mustRun(t, "sort", "Gear", "--clear")

	sheets := env.mustRun(t, "sheets")
	if strings.Count(sheets, "\n") != 1 || !strings.Contains(sheets, "Gear") {
		t.Fatalf("unexpected sheets output %q", sheets)
	}
	env.mustRun(t, "rename", "Gear", "Kit")
	if out := env.mustRun(t, "sheets"); !strings.Contains(out, "\tKit\t") {
		t.Fatalf("expected renamed sheet, got %q", out)
	}
	env.mustRun(t, "delete", "Kit")
	if out := env.mustRun(t, "sheets"); out != "" {
		t.Fatalf("expected no sheets after delete, got %q", out)
	}
}

func TestRunCommandErrors(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "new", "Gear", "--kind", "equipment")

	cases := map[string][]string{
		"unknown column":  {"sort", "Gear", "bogus"},
		"missing column":  {"sort", "Gear"},
		"unknown sheet":   {"tree", "Nope"},
		"missing parent":  {"add", "Gear", "Rope", "--parent", "missing"},
		"bad kind":        {"new", "Spells", "--kind", "spells"},
		"import needs in": {"import"},
	}
	for name, args := range cases {
		if _, err := env.run(t, args...); err == nil {
			t.Fatalf("%s: expected error from %v", name, args)
		}
	}
}

func TestRunExportImportRoundTrip(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "new", "Gear", "--kind", "equipment")
	packID := firstField(env.mustRun(t, "add", "Gear", "Pack", "--container", "--notes", "*sturdy*"))
	env.mustRun(t, "add", "Gear", "Rope", "--parent", packID)

	snapPath := filepath.Join(t.TempDir(), "out", "snapshot.json")
	env.mustRun(t, "export", "--out", snapPath)
	content, err := os.ReadFile(snapPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Contains(content, []byte(`"outliner.snapshot.v1"`)) || !bytes.Contains(content, []byte("Rope")) {
		t.Fatalf("unexpected snapshot %s", content)
	}
	if stdout := env.mustRun(t, "export"); !strings.Contains(stdout, `"sheets"`) {
		t.Fatalf("expected stdout export, got %q", stdout)
	}

	env.mustRun(t, "delete", "Gear")
	env.mustRun(t, "import", "--in", snapPath)
	tree := env.mustRun(t, "tree", "Gear")
	if !strings.Contains(tree, "▾ Pack") || !strings.Contains(tree, "  Rope") {
		t.Fatalf("expected imported rows:\n%s", tree)
	}
}

func TestRunStartsTUI(t *testing.T) {
	env := newCLIEnv(t)
	original := programFactory
	t.Cleanup(func() { programFactory = original })

	var started tea.Model
	programFactory = func(m tea.Model) program {
		started = m
		return fakeProgram{model: m}
	}
	if _, err := env.run(t); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, ok := started.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", started)
	}

	programFactory = func(tea.Model) program {
		return fakeProgram{runErr: errors.New("no tty")}
	}
	if _, err := env.run(t); err == nil || !strings.Contains(err.Error(), "no tty") {
		t.Fatalf("expected program error, got %v", err)
	}
}

func TestRunServeStopsOnCancel(t *testing.T) {
	env := newCLIEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	args := []string{"--db", env.dbPath, "--config", env.configPath, "serve", "--http", "127.0.0.1:0"}
	if err := run(ctx, args, &stdout, nil); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if !strings.Contains(stdout.String(), "listening on 127.0.0.1:") {
		t.Fatalf("expected listen address, got %q", stdout.String())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := env.run(t, "sheets"); err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRuntimeLoggerDevFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := func() time.Time { return time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC) }
	var console bytes.Buffer
	cfg := config.LoggingConfig{Level: "info", DevFile: config.DevFileConfig{Enabled: true, Dir: "logs"}}

	logger, err := newRuntimeLogger(&console, "outliner", true, dir, cfg, now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	want := filepath.Join(dir, "outliner-20260304.log")
	if logger.DevLogPath() != want {
		t.Fatalf("DevLogPath() = %q, want %q", logger.DevLogPath(), want)
	}
	logger.Info("sheet opened", "sheet", "s1")
	logger.Debug("hidden below level")
	logger.SetConsoleEnabled(false)
	logger.Warn("file only")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.Contains(console.String(), "sheet opened") || strings.Contains(console.String(), "file only") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, line := range []string{"sheet opened", "sheet=s1", "file only"} {
		if !strings.Contains(string(content), line) {
			t.Fatalf("expected %q in dev log %q", line, content)
		}
	}
	if strings.Contains(string(content), "hidden below level") {
		t.Fatal("expected debug event to be filtered")
	}
}

func TestRuntimeLoggerWithoutDevMode(t *testing.T) {
	cfg := config.LoggingConfig{Level: "warn", DevFile: config.DevFileConfig{Enabled: true, Dir: "logs"}}
	logger, err := newRuntimeLogger(nil, "outliner", false, t.TempDir(), cfg, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	if logger.DevLogPath() != "" || logger.Close() != nil {
		t.Fatal("expected no file sink outside dev mode")
	}
	if _, err := newRuntimeLogger(nil, "outliner", false, "", config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected invalid level error")
	}
}

func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"outliner": "outliner",
		" my app ": "my-app",
		"a/b:c":    "a-b-c",
		"///":      "outliner",
		"":         "outliner",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}
