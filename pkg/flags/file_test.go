package flags

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRegistryFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "flags.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write registry file: %v", err)
	}
	return path
}

func TestNewFileServiceLoadsRegistry(t *testing.T) {
	path := writeRegistryFile(t, t.TempDir(), `
flags:
  beta-reports:
    state: enabled
  old-feature:
    state: disabled
`)

	svc, err := NewFileService(FileServiceConfig{Path: path}, slog.Default())
	if err != nil {
		t.Fatalf("NewFileService() error = %v", err)
	}

	if svc.Registry().Len() != 2 {
		t.Errorf("Len() = %d, want 2", svc.Registry().Len())
	}

	result := svc.IsEnabled(context.Background(), "beta-reports")
	if result.Kind != KindBool || !result.Bool {
		t.Errorf("IsEnabled(beta-reports) = %+v, want immediate true", result)
	}
	result = svc.IsEnabled(context.Background(), "old-feature")
	if result.Kind != KindBool || result.Bool {
		t.Errorf("IsEnabled(old-feature) = %+v, want immediate false", result)
	}
}

func TestNewFileServiceMissingFile(t *testing.T) {
	_, err := NewFileService(FileServiceConfig{
		Path: filepath.Join(t.TempDir(), "missing.yaml"),
	}, slog.Default())
	if err == nil {
		t.Error("NewFileService() error = nil, want error for missing file")
	}
}

func TestReloadKeepsPreviousRegistryOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeRegistryFile(t, dir, `
flags:
  beta-reports:
    state: enabled
`)

	svc, err := NewFileService(FileServiceConfig{Path: path}, slog.Default())
	if err != nil {
		t.Fatalf("NewFileService() error = %v", err)
	}

	// Corrupt the file; the reload must fail and the registry stay intact.
	writeRegistryFile(t, dir, `
flags:
  beta-reports:
    state: banana
`)
	if err := svc.Reload(); err == nil {
		t.Fatal("Reload() error = nil, want validation error")
	}

	if !svc.Registry().Contains("beta-reports") {
		t.Error("previous registry lost after failed reload")
	}
	def, _ := svc.Registry().Lookup("beta-reports")
	if def.State != StateEnabled {
		t.Errorf("state = %q, want enabled", def.State)
	}
}

func TestReloadSwapsDefinitions(t *testing.T) {
	dir := t.TempDir()
	path := writeRegistryFile(t, dir, `
flags:
  beta-reports:
    state: disabled
`)

	svc, err := NewFileService(FileServiceConfig{Path: path}, slog.Default())
	if err != nil {
		t.Fatalf("NewFileService() error = %v", err)
	}

	writeRegistryFile(t, dir, `
flags:
  beta-reports:
    state: enabled
  brand-new:
    state: enabled
`)
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if svc.Registry().Len() != 2 {
		t.Errorf("Len() = %d, want 2", svc.Registry().Len())
	}
	result := svc.IsEnabled(context.Background(), "beta-reports")
	if !result.Bool {
		t.Error("beta-reports still disabled after reload")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeRegistryFile(t, dir, `
flags:
  beta-reports:
    state: disabled
`)

	svc, err := NewFileService(FileServiceConfig{
		Path:             path,
		DebounceInterval: 20 * time.Millisecond,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewFileService() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- svc.Watch(ctx)
	}()

	// Give the watcher a moment to establish before changing the file.
	time.Sleep(50 * time.Millisecond)

	writeRegistryFile(t, dir, `
flags:
  beta-reports:
    state: enabled
`)

	deadline := time.After(2 * time.Second)
	for {
		result := svc.IsEnabled(context.Background(), "beta-reports")
		if result.Bool {
			break
		}
		select {
		case <-deadline:
			t.Fatal("registry not reloaded after file change")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-watchDone; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
