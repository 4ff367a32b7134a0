package pyrunner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestVenvManagerIsReadyReflectsSentinel(t *testing.T) {
	dir := t.TempDir()
	m := &VenvManager{Root: dir}

	if m.IsReady() {
		t.Fatal("expected a fresh venv root to not be ready")
	}

	if err := os.WriteFile(m.SentinelPath(), []byte("ok\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !m.IsReady() {
		t.Fatal("expected IsReady to be true once the sentinel exists")
	}
}

func TestExtractProjectTreeContainsTheBridgeModule(t *testing.T) {
	m := &VenvManager{Root: t.TempDir()}

	dir, err := m.extractProjectTree()
	if err != nil {
		t.Fatalf("extractProjectTree: %v", err)
	}
	defer os.RemoveAll(dir)

	if _, err := os.Stat(filepath.Join(dir, "pyproject.toml")); err != nil {
		t.Errorf("expected pyproject.toml in extracted tree: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "s4evtxbridge", "__main__.py")); err != nil {
		t.Errorf("expected s4evtxbridge/__main__.py in extracted tree: %v", err)
	}
}

func TestAcquireClaimIsExclusiveAmongRacers(t *testing.T) {
	m := &VenvManager{Root: t.TempDir()}

	first, err := m.acquireClaim()
	if err != nil {
		t.Fatalf("acquireClaim: %v", err)
	}
	if !first {
		t.Fatal("expected the first caller to win the claim")
	}

	second, err := m.acquireClaim()
	if err != nil {
		t.Fatalf("acquireClaim (second): %v", err)
	}
	if second {
		t.Fatal("expected a second caller to lose the claim while it's held")
	}
}

func TestWaitForReadyReturnsOnceSentinelAppears(t *testing.T) {
	m := &VenvManager{Root: t.TempDir()}

	done := make(chan error, 1)
	go func() {
		done <- m.waitForReady(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(m.SentinelPath(), []byte("ok\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("waitForReady: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitForReady did not return after the sentinel was written")
	}
}

func TestWaitForReadyHonorsContextCancellation(t *testing.T) {
	m := &VenvManager{Root: t.TempDir()}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := m.waitForReady(ctx); err == nil {
		t.Fatal("expected waitForReady to return an error once the context expires")
	}
}

func TestCheckVersionParsesAndComparesVersion(t *testing.T) {
	sh := skipUnlessShellAvailable(t)
	m := &VenvManager{PipeSize: 4096}

	// A stand-in "interpreter" that prints a version string the same way
	// CPython does, without requiring python to be installed.
	fake := filepath.Join(t.TempDir(), "fake-python")
	script := "#!/bin/sh\necho \"Python 3.11.4\"\n"
	if err := os.WriteFile(fake, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_ = sh

	if err := m.checkVersion(t.Context(), fake); err != nil {
		t.Errorf("checkVersion: %v", err)
	}
}
