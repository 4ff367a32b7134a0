package pyrunner

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/mod/semver"
)

//go:embed project
var embeddedProject embed.FS

// MinPythonVersion is the lowest interpreter version the Venv Manager
// accepts without warning.
const MinPythonVersion = "v3.9"

var versionPattern = regexp.MustCompile(`Python (\d+)\.(\d+)(?:\.(\d+))?`)

// VenvManager bootstraps and maintains the s4 Python venv used by the
// evtx/etl/odl bridge.
type VenvManager struct {
	Root        string
	PipeSize    int
	RecvTimeout time.Duration
}

// SentinelPath is the file whose presence marks a completed venv build.
func (m *VenvManager) SentinelPath() string { return filepath.Join(m.Root, "done") }

// IsReady reports whether a previous Create has completed successfully.
func (m *VenvManager) IsReady() bool {
	_, err := os.Stat(m.SentinelPath())
	return err == nil
}

// claimPath is the build-claim file's location, keyed on the parent
// process id: sibling processes forked from the same test/build parent
// race on Create for a shared venv root and must contend against each
// other, but an unrelated process using the same root later (a different
// parent) starts its own race rather than inheriting a stale claim.
func (m *VenvManager) claimPath() string {
	return filepath.Join(m.Root, fmt.Sprintf("claim.%d", os.Getppid()))
}

// acquireClaim is the atomic fail-if-exists mutex spec.md §9's "venv
// bootstrapping races" note calls for: exactly one of any number of
// racing processes observes ok == true and must perform the build; the
// rest fall through to waitForReady.
func (m *VenvManager) acquireClaim() (ok bool, err error) {
	f, err := os.OpenFile(m.claimPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}

// waitForReady polls the sentinel file for a process that lost the claim
// race, so it blocks on the winner's build instead of racing it.
func (m *VenvManager) waitForReady(ctx context.Context) error {
	const pollInterval = 50 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if m.IsReady() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Create bootstraps the venv: locates an interpreter, creates the venv,
// installs the embedded bridge project into it, and writes the sentinel
// file on success. Any step's failure aborts with that step's error. If
// another process wins the build claim first, Create instead waits for
// that process's sentinel file rather than building a second time.
func (m *VenvManager) Create(ctx context.Context, strategy Strategy, explicitPython string) error {
	if m.IsReady() {
		return nil
	}

	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return errf("pyrunner", m.Root, "create venv root: %w", err)
	}

	won, err := m.acquireClaim()
	if err != nil {
		return errf("pyrunner", m.Root, "acquire build claim: %w", err)
	}
	if !won {
		return m.waitForReady(ctx)
	}
	defer os.Remove(m.claimPath())

	pythonPath, ok := Find(strategy, m.Root, explicitPython)
	if !ok {
		return errf("pyrunner", m.Root, "no python interpreter found")
	}

	if warning := m.checkVersion(ctx, pythonPath); warning != nil {
		fmt.Fprintf(os.Stderr, "s4: warning: %v\n", warning)
	}

	createArgv := []string{"-m", "venv", "--clear", "--copies", "--prompt", "s4", m.Root}
	if _, _, err := RunOnce(ctx, pythonPath, createArgv, m.PipeSize, m.RecvTimeout, false, false, false); err != nil {
		return wrapErr("pyrunner", m.Root, err)
	}

	venvPython, ok := Find(StrategyVenv, m.Root, "")
	if !ok {
		return errf("pyrunner", m.Root, "could not resolve the venv's own interpreter")
	}

	if _, _, err := RunOnce(ctx, venvPython, []string{"-m", "ensurepip"}, m.PipeSize, m.RecvTimeout, false, false, false); err != nil {
		return wrapErr("pyrunner", m.Root, err)
	}

	if err := m.disablePipWarnings(); err != nil {
		return err
	}

	projectDir, err := m.extractProjectTree()
	if err != nil {
		return err
	}
	defer os.RemoveAll(projectDir)

	if _, _, err := RunOnce(ctx, venvPython, []string{"-m", "pip", "install", "wheel"}, m.PipeSize, m.RecvTimeout, false, false, false); err != nil {
		return wrapErr("pyrunner", m.Root, err)
	}
	if _, _, err := RunOnce(ctx, venvPython, []string{"-m", "pip", "install", projectDir}, m.PipeSize, m.RecvTimeout, false, false, false); err != nil {
		return wrapErr("pyrunner", m.Root, err)
	}

	sitePackages := filepath.Join(m.Root, "lib")
	if _, _, err := RunOnce(ctx, venvPython, []string{"-m", "compileall", "-o2", sitePackages}, m.PipeSize, m.RecvTimeout, false, false, false); err != nil {
		fmt.Fprintf(os.Stderr, "s4: warning: compileall failed: %v\n", err)
	}

	if _, _, err := RunOnce(ctx, venvPython, []string{"-OO", "-m", "s4evtxbridge", "--self-test"}, m.PipeSize, m.RecvTimeout, false, false, false); err != nil {
		return wrapErr("pyrunner", m.Root, err)
	}

	if err := os.WriteFile(m.SentinelPath(), []byte("ok\n"), 0o644); err != nil {
		return errf("pyrunner", m.Root, "write sentinel: %w", err)
	}
	return nil
}

// checkVersion runs `python --version` and compares it against
// MinPythonVersion; a below-minimum interpreter is a warning, not a
// failure.
func (m *VenvManager) checkVersion(ctx context.Context, pythonPath string) error {
	stdout, stderr, err := RunOnce(ctx, pythonPath, []string{"--version"}, m.PipeSize, m.RecvTimeout, false, false, false)
	if err != nil {
		return fmt.Errorf("run %s --version: %w", pythonPath, err)
	}
	combined := append(append([]byte{}, stdout...), stderr...)

	match := versionPattern.FindSubmatch(combined)
	if match == nil {
		return fmt.Errorf("could not parse %s --version output", pythonPath)
	}
	patch := "0"
	if len(match[3]) > 0 {
		patch = string(match[3])
	}
	version := "v" + string(match[1]) + "." + string(match[2]) + "." + patch
	if semver.Compare(version, MinPythonVersion) < 0 {
		return fmt.Errorf("%s is python %s, below the minimum supported %s", pythonPath, version[1:], MinPythonVersion[1:])
	}
	return nil
}

// disablePipWarnings writes a venv-local pip config that turns off the
// version-check and python-deprecation nag, which would otherwise pollute
// stderr on every subprocess invocation.
func (m *VenvManager) disablePipWarnings() error {
	confPath := filepath.Join(m.Root, "pip.conf")
	const content = "[global]\ndisable-pip-version-check = true\nno-python-version-warning = true\n"
	if err := os.WriteFile(confPath, []byte(content), 0o644); err != nil {
		return errf("pyrunner", confPath, "write pip config: %w", err)
	}
	return nil
}

// extractProjectTree copies the embedded bridge project into a fresh
// temp directory so pip can install it as a local source tree.
func (m *VenvManager) extractProjectTree() (string, error) {
	dir, err := os.MkdirTemp("", "s4-evtxbridge-*")
	if err != nil {
		return "", errf("pyrunner", "", "create temp project dir: %w", err)
	}

	err = fs.WalkDir(embeddedProject, "project", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("project", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := embeddedProject.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", errf("pyrunner", dir, "extract embedded project: %w", err)
	}
	return dir, nil
}
