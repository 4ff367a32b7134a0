// Package s4config holds the process-wide tunables cmd/s4aggcat and the
// packages it drives share: pipe sizing, supervisor timeouts, the venv
// root, the default timezone offset applied to naive timestamps, and a
// minimum Python version setting.
package s4config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is populated by a single flag.FlagSet parsed in cmd/s4aggcat's
// main, following the teacher's own pattern of passing a plain struct
// down rather than reaching for a config framework or reflection-based
// env binding. The yaml tags exist solely for LoadFile's optional
// config-file layer; there is no env-var-to-struct-field reflection
// anywhere in this package.
type Config struct {
	// PipeBufferSize bounds each PipeReader chunk (internal/pyrunner).
	PipeBufferSize int `yaml:"pipe_buffer_size"`
	// RecvTimeout is how long the Pipe Reader and Supervisor wait on an
	// idle channel before emitting a heartbeat. In a config file this is
	// an integer count of nanoseconds (LoadFile converts it) or a Go
	// duration string such as "100ms".
	RecvTimeout time.Duration `yaml:"recv_timeout"`
	// VenvRoot is where the Python bridge's virtual environment lives.
	VenvRoot string `yaml:"venv_root"`
	// DefaultTZOffsetSeconds is applied by the Formatter (C6) when a
	// record carries no timezone information of its own.
	DefaultTZOffsetSeconds int `yaml:"default_tz_offset_seconds"`
	// MinPythonVersion is a minimum Python version in MAJOR.MINOR.PATCH
	// form. Nothing reads it: the Py Venv Manager (C9) compares against
	// its own pyrunner.MinPythonVersion constant, and only warns.
	MinPythonVersion string `yaml:"min_python_version"`
}

// Default returns the tunables this program ships with out of the box,
// before flags or environment variables are applied.
func Default() Config {
	return Config{
		PipeBufferSize:         64 * 1024,
		RecvTimeout:            50 * time.Millisecond,
		VenvRoot:               defaultVenvRoot(),
		DefaultTZOffsetSeconds: 0,
		MinPythonVersion:       "3.9.0",
	}
}

func defaultVenvRoot() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "s4", "venv")
	}
	return filepath.Join(os.TempDir(), "s4-venv")
}

// ApplyEnv overrides fields that have a documented environment variable:
// S4_PYTHON does not name a Config field directly (internal/pyrunner's
// discovery reads it on its own via StrategyEnv), but S4_VENV_ROOT does.
func (c *Config) ApplyEnv() {
	if root := os.Getenv("S4_VENV_ROOT"); root != "" {
		c.VenvRoot = root
	}
}

// LoadFile reads a YAML config file and merges its contents onto c. A
// field absent from the document is left untouched, so callers apply
// this over Default() (or over already-parsed flags) to get layered
// precedence without hand-written per-field merge logic.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("s4config: read %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("s4config: parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	// yaml.v3 decodes only duration strings into time.Duration, so an
	// integer recv_timeout is rewritten as a nanosecond duration string.
	if m := doc.Content[0]; m.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(m.Content); i += 2 {
			if v := m.Content[i+1]; m.Content[i].Value == "recv_timeout" && v.Tag == "!!int" {
				v.Tag, v.Value = "!!str", v.Value+"ns"
			}
		}
	}
	if err := doc.Decode(c); err != nil {
		return fmt.Errorf("s4config: parse %s: %w", path, err)
	}
	return nil
}
