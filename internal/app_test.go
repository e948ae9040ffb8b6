package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/trovekit/trove/internal/cli"
	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/internal/storage"
)

func TestResolveBasePath_TroveHomeSet(t *testing.T) {
	// TROVE_HOME env var takes precedence.
	tmpDir := t.TempDir()
	t.Setenv("TROVE_HOME", tmpDir)

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q", got, tmpDir)
	}
}

func TestResolveBasePath_FindsWorkspace(t *testing.T) {
	// ResolveBasePath walks up to find a .trove dir.
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	subDir := filepath.Join(tmpDir, "sub", "nested")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, storage.DotDir), 0o755); err != nil {
		t.Fatal(err)
	}

	origDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(origDir) }()
	if err := os.Chdir(subDir); err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("TROVE_HOME")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q (should find .trove in parent)", got, tmpDir)
	}
}

func TestResolveBasePath_FallbackToCwd(t *testing.T) {
	// Falls back to cwd when no workspace is found anywhere above.
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	origDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(origDir) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("TROVE_HOME")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q", got, tmpDir)
	}
}

func TestNewApp_WiresServices(t *testing.T) {
	tmpDir := t.TempDir()

	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	if app.Store == nil {
		t.Error("expected Store to be wired")
	}
	if app.Registry == nil {
		t.Error("expected Registry to be wired")
	}
	if app.Runner == nil {
		t.Error("expected Runner to be wired")
	}
	if app.EventLog == nil {
		t.Error("expected EventLog to be wired")
	}
	if app.AlertEngine == nil {
		t.Error("expected AlertEngine to be wired")
	}
	if app.MetricsCalc == nil {
		t.Error("expected MetricsCalc to be wired")
	}
	// No webhook configured, so no notifier.
	if app.Notifier != nil {
		t.Error("expected no Notifier without a configured webhook")
	}

	// Builtin actions are registered.
	if _, err := app.Registry.Lookup("concat"); err != nil {
		t.Errorf("expected builtin concat to be registered: %v", err)
	}

	// CLI package vars mirror the app services.
	if cli.Store != app.Store {
		t.Error("expected cli.Store to be the app store")
	}
	if cli.Runner != app.Runner {
		t.Error("expected cli.Runner to be the app runner")
	}
}

func TestNewApp_InitializesWorkspace(t *testing.T) {
	tmpDir := t.TempDir()

	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	dirs := storage.NewDirs(tmpDir)
	if !dirs.IsInitialized() {
		t.Error("expected workspace metadata to be created")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, storage.DotDir)); err != nil {
		t.Errorf("expected %s dir to exist: %v", storage.DotDir, err)
	}
}

func TestNewApp_RunActionEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()

	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	// Import an external text file and copy it through the runner.
	src := filepath.Join(t.TempDir(), "snippet.md")
	if err := os.WriteFile(src, []byte("a small snippet\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := app.Runner.RunAction("copy_items", []string{src}, core.RunOptions{})
	if err != nil {
		t.Fatalf("running copy_items: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 output, got %d", len(result.Items))
	}
	if !app.Store.Exists(result.Items[0].StorePath) {
		t.Errorf("expected output %s to exist in the store", result.Items[0].StorePath)
	}
}
