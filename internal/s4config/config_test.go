package s4config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsUsable(t *testing.T) {
	c := Default()
	if c.PipeBufferSize <= 0 {
		t.Errorf("PipeBufferSize = %d, want > 0", c.PipeBufferSize)
	}
	if c.RecvTimeout <= 0 {
		t.Errorf("RecvTimeout = %v, want > 0", c.RecvTimeout)
	}
	if c.VenvRoot == "" {
		t.Error("VenvRoot should not be empty")
	}
	if c.MinPythonVersion == "" {
		t.Error("MinPythonVersion should not be empty")
	}
}

func TestApplyEnvOverridesVenvRoot(t *testing.T) {
	t.Setenv("S4_VENV_ROOT", "/tmp/custom-venv")

	c := Default()
	c.ApplyEnv()

	if c.VenvRoot != "/tmp/custom-venv" {
		t.Errorf("VenvRoot = %q, want %q", c.VenvRoot, "/tmp/custom-venv")
	}
}

func TestApplyEnvLeavesDefaultWhenUnset(t *testing.T) {
	t.Setenv("S4_VENV_ROOT", "")

	c := Default()
	want := c.VenvRoot
	c.ApplyEnv()

	if c.VenvRoot != want {
		t.Errorf("VenvRoot changed to %q despite unset env var", c.VenvRoot)
	}
}

func TestLoadFileOverridesOnlyNamedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s4.yaml")
	doc := "pipe_buffer_size: 4096\nmin_python_version: \"3.11.0\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := Default()
	wantVenvRoot := c.VenvRoot
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if c.PipeBufferSize != 4096 {
		t.Errorf("PipeBufferSize = %d, want 4096", c.PipeBufferSize)
	}
	if c.MinPythonVersion != "3.11.0" {
		t.Errorf("MinPythonVersion = %q, want 3.11.0", c.MinPythonVersion)
	}
	if c.VenvRoot != wantVenvRoot {
		t.Errorf("VenvRoot = %q, want unchanged %q", c.VenvRoot, wantVenvRoot)
	}
}

func TestLoadFileRejectsMissingPath(t *testing.T) {
	c := Default()
	if err := c.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFileParsesRecvTimeoutNanoseconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s4.yaml")
	if err := os.WriteFile(path, []byte("recv_timeout: 100000000\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.RecvTimeout != 100*time.Millisecond {
		t.Errorf("RecvTimeout = %v, want 100ms", c.RecvTimeout)
	}
}
