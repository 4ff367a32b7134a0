package pyrunner

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
)

// Strategy selects how Py Discovery resolves an interpreter path.
type Strategy int

const (
	StrategyEnv Strategy = iota
	StrategyPath
	StrategyEnvPath
	StrategyVenv
	StrategyEnvVenv
	StrategyValue
)

// candidateNames is the fixed list of interpreter names Path and Venv
// search for, in order.
var candidateNames = []string{
	"python3", "python", "python3.exe", "python.exe",
	"python3.13", "python3.12", "python3.11", "python3.10",
	"python3.9", "python3.8", "python3.7",
	"pypy3", "pypy",
}

// venvSubdirs are the interpreter subdirectories Venv probes, covering
// POSIX venvs (bin), Windows venvs (Scripts), and a flat layout (.).
var venvSubdirs = []string{"bin", "Scripts", "."}

type lookupResult struct {
	path string
	ok   bool
}

var (
	envOnce, pathOnce, venvOnce sync.Once
	envResult, pathResult, venvResult lookupResult
)

var (
	resolvedMu  sync.Mutex
	resolvedSet = map[string]struct{}{}
)

func recordResolved(path string) {
	if path == "" {
		return
	}
	resolvedMu.Lock()
	defer resolvedMu.Unlock()
	resolvedSet[path] = struct{}{}
}

// Resolved returns every interpreter path Find has ever actually
// resolved to, in sorted order, for summary reporting.
func Resolved() []string {
	resolvedMu.Lock()
	defer resolvedMu.Unlock()
	out := make([]string, 0, len(resolvedSet))
	for p := range resolvedSet {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func findEnv() (string, bool) {
	envOnce.Do(func() {
		p := os.Getenv("S4_PYTHON")
		envResult = lookupResult{path: p, ok: p != ""}
		if envResult.ok {
			recordResolved(p)
		}
	})
	return envResult.path, envResult.ok
}

func findPath() (string, bool) {
	pathOnce.Do(func() {
		for _, name := range candidateNames {
			p, err := exec.LookPath(name)
			if err != nil {
				continue
			}
			pathResult = lookupResult{path: p, ok: true}
			recordResolved(p)
			return
		}
	})
	return pathResult.path, pathResult.ok
}

func findVenv(venvRoot string) (string, bool) {
	venvOnce.Do(func() {
		for _, sub := range venvSubdirs {
			for _, name := range candidateNames {
				candidate := filepath.Join(venvRoot, sub, name)
				info, err := os.Stat(candidate)
				if err != nil || info.IsDir() {
					continue
				}
				venvResult = lookupResult{path: candidate, ok: true}
				recordResolved(candidate)
				return
			}
		}
	})
	return venvResult.path, venvResult.ok
}

// Find resolves a Python interpreter path per strategy. venvRoot is only
// consulted by the Venv and EnvVenv strategies; value is only consulted
// by Value. Every non-Value strategy is memoized for the process
// lifetime: the first result, success or failure, is final.
func Find(strategy Strategy, venvRoot, value string) (string, bool) {
	switch strategy {
	case StrategyEnv:
		return findEnv()
	case StrategyPath:
		return findPath()
	case StrategyEnvPath:
		if p, ok := findEnv(); ok {
			return p, true
		}
		return findPath()
	case StrategyVenv:
		return findVenv(venvRoot)
	case StrategyEnvVenv:
		if p, ok := findEnv(); ok {
			return p, true
		}
		return findVenv(venvRoot)
	case StrategyValue:
		if value == "" {
			return "", false
		}
		recordResolved(value)
		return value, true
	default:
		return "", false
	}
}
