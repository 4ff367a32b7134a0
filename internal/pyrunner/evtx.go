package pyrunner

import (
	"bytes"
	"context"
	"time"
)

// DecodeEvtx runs the embedded s4evtxbridge against path and returns one
// XML string per record. The bridge writes records NUL-delimited on
// stdout (see project/s4evtxbridge/__main__.py); the trailing empty
// element produced by the final delimiter is dropped.
func DecodeEvtx(ctx context.Context, pythonPath, path string, pipeSize int, recvTimeout time.Duration) ([]string, error) {
	stdout, _, err := RunOnce(ctx, pythonPath, []string{"-OO", "-m", "s4evtxbridge", path}, pipeSize, recvTimeout, false, false, false)
	if err != nil {
		return nil, wrapErr("pyrunner", path, err)
	}

	parts := bytes.Split(stdout, []byte{0})
	records := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		records = append(records, string(p))
	}
	return records, nil
}
