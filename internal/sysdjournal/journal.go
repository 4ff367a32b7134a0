// Package sysdjournal binds the subset of libsystemd's sd-journal API this
// program needs to read native journal files, resolved at runtime via
// dlopen so the rest of the module stays cgo-free.
package sysdjournal

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ErrUnavailable is returned by Open when libsystemd could not be located,
// or when S4_NO_LIBSYSTEMD is set. cmd/s4aggcat then reports the journal
// file as undecodable and skips it; no other decoder in this module reads
// native journal files.
var ErrUnavailable = errors.New("sysdjournal: libsystemd is not available")

// libNames mirrors the search order the original implementation's
// libload/systemd_dlopen2.rs uses: a plain "libsystemd.so" symlink isn't
// present on every distribution, so several versioned names are tried.
var libNames = []string{
	"libsystemd.so.0",
	"libsystemd.so",
	"libsystemd.so.0.32.0",
	"libsystemd.so.0.36.0",
}

var (
	loadOnce sync.Once
	loadErr  error
	lib      uintptr

	sdJournalOpenFiles       func(j *uintptr, paths **byte, flags int32) int32
	sdJournalNext            func(j uintptr) int32
	sdJournalGetData         func(j uintptr, field *byte, data *unsafe.Pointer, length *uintptr) int32
	sdJournalGetRealtimeUsec func(j uintptr, usec *uint64) int32
	sdJournalCloseFn         func(j uintptr)
)

func load() error {
	loadOnce.Do(func() {
		if os.Getenv("S4_NO_LIBSYSTEMD") != "" {
			loadErr = ErrUnavailable
			return
		}

		var dlErr error
		for _, name := range libNames {
			handle, err := purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if err != nil {
				dlErr = err
				continue
			}
			lib = handle
			dlErr = nil
			break
		}
		if lib == 0 {
			loadErr = errf(dlErr)
			return
		}

		purego.RegisterLibFunc(&sdJournalOpenFiles, lib, "sd_journal_open_files")
		purego.RegisterLibFunc(&sdJournalNext, lib, "sd_journal_next")
		purego.RegisterLibFunc(&sdJournalGetData, lib, "sd_journal_get_data")
		purego.RegisterLibFunc(&sdJournalGetRealtimeUsec, lib, "sd_journal_get_realtime_usec")
		purego.RegisterLibFunc(&sdJournalCloseFn, lib, "sd_journal_close")
	})
	return loadErr
}

func errf(cause error) error {
	if cause == nil {
		return ErrUnavailable
	}
	return errors.Join(ErrUnavailable, cause)
}

// Reader iterates entries of one or more native journal files.
type Reader struct {
	handle uintptr
}

// Open loads libsystemd (once per process) and opens the given journal
// files for reading. It returns ErrUnavailable, wrapping the dlopen error
// when one occurred, if libsystemd could not be loaded or was disabled via
// S4_NO_LIBSYSTEMD.
func Open(paths []string) (*Reader, error) {
	if err := load(); err != nil {
		return nil, err
	}

	cpaths := make([]*byte, len(paths)+1)
	for i, p := range paths {
		b, err := cString(p)
		if err != nil {
			return nil, err
		}
		cpaths[i] = b
	}

	var h uintptr
	rc := sdJournalOpenFiles(&h, &cpaths[0], 0)
	if rc < 0 {
		return nil, errf(errnoError(rc))
	}
	return &Reader{handle: h}, nil
}

// Next advances to the next journal entry, reporting false once the
// journal is exhausted.
func (r *Reader) Next() (bool, error) {
	rc := sdJournalNext(r.handle)
	if rc < 0 {
		return false, errnoError(rc)
	}
	return rc > 0, nil
}

// Field returns the raw "FIELD=value" pair stored at the current entry for
// the given field name, split into the field name and its value.
func (r *Reader) Field(name string) (field, value []byte, err error) {
	cname, err := cString(name)
	if err != nil {
		return nil, nil, err
	}

	var data unsafe.Pointer
	var length uintptr
	rc := sdJournalGetData(r.handle, cname, &data, &length)
	if rc < 0 {
		return nil, nil, errnoError(rc)
	}

	raw := unsafe.Slice((*byte)(data), length)
	for i, b := range raw {
		if b == '=' {
			return raw[:i], raw[i+1:], nil
		}
	}
	return raw, nil, nil
}

// RealtimeUsec returns the entry's wallclock timestamp in microseconds
// since the Unix epoch, matching sd_journal_get_realtime_usec.
func (r *Reader) RealtimeUsec() (uint64, error) {
	var usec uint64
	rc := sdJournalGetRealtimeUsec(r.handle, &usec)
	if rc < 0 {
		return 0, errnoError(rc)
	}
	return usec, nil
}

// Close releases the underlying journal handle.
func (r *Reader) Close() {
	if r.handle != 0 {
		sdJournalCloseFn(r.handle)
		r.handle = 0
	}
}

func cString(s string) (*byte, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return nil, errors.New("sysdjournal: path contains a NUL byte")
		}
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0], nil
}

// errnoError turns a negative sd_journal_* return value (-errno, per the
// libsystemd convention) into a Go error.
func errnoError(rc int32) error {
	if rc >= 0 {
		return nil
	}
	return fmt.Errorf("sysdjournal: %w", syscall.Errno(-rc))
}
