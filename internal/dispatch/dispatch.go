// Package dispatch chooses which decoding subsystem handles a given log
// source file.
package dispatch

import (
	"path/filepath"
	"strings"

	"github.com/tinyrange/s4cat/internal/fixedstruct"
)

// SourceKind distinguishes the decoding subsystem a file should be routed
// to once its container has been materialized.
type SourceKind uint8

const (
	// Text sources (plain syslog text) are out of scope; Classify still
	// reports them so callers can skip or report the file cleanly.
	Text SourceKind = iota
	// FixedStruct routes to internal/fixedstruct (utmp/utmpx/lastlog/acct
	// family binary records).
	FixedStruct
	// Journal routes to internal/sysdjournal, the native libsystemd
	// bridge.
	Journal
	// PyBridge routes to internal/pyrunner, the Python event-reader
	// bridge (evtx/etl/odl).
	PyBridge
)

func (k SourceKind) String() string {
	switch k {
	case FixedStruct:
		return "fixed-struct"
	case Journal:
		return "journal"
	case PyBridge:
		return "py-bridge"
	default:
		return "text"
	}
}

// Classify picks a SourceKind for a materialized file, given its name (for
// extension-based routing and naming-hint inference) and decompressed size
// (for C5's candidate scan). It never opens the file itself; that's the
// caller's job once it knows which subsystem to hand the container to.
func Classify(name string, size int64) SourceKind {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".journal":
		return Journal
	case ".evtx", ".etl", ".odl":
		return PyBridge
	}

	if set, ok := fixedstruct.Candidates(size, namingHint(name)); ok && len(set) > 0 {
		return FixedStruct
	}
	return Text
}

// namingHint infers spec.md §4.5's naming-hint category from the base name
// a file is conventionally given (utmp, wtmp, utmpx, lastlog, lastlogx,
// pacct/acct), falling back to HintNone when nothing matches.
func namingHint(name string) fixedstruct.NamingHint {
	base := strings.ToLower(filepath.Base(name))
	switch {
	case strings.Contains(base, "lastlogx"):
		return fixedstruct.HintLastlogx
	case strings.Contains(base, "lastlog"):
		return fixedstruct.HintLastlog
	case strings.Contains(base, "utmpx"), strings.Contains(base, "wtmpx"):
		return fixedstruct.HintUtmpx
	case strings.Contains(base, "utmp"), strings.Contains(base, "wtmp"):
		return fixedstruct.HintUtmp
	case strings.Contains(base, "acct") && strings.Contains(base, "v3"):
		return fixedstruct.HintAcctV3
	case strings.Contains(base, "acct"), strings.Contains(base, "pacct"):
		return fixedstruct.HintAcct
	default:
		return fixedstruct.HintNone
	}
}
