package pyrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ExitStatus is a child process's terminal state.
type ExitStatus struct {
	Code    int
	Success bool
}

// stderrRetentionBudget bounds the rolling stderr buffer a Supervisor
// keeps around for post-mortem inspection after the child has exited.
const stderrRetentionBudget = 1024

const truncationMarker = "…"

// Supervisor owns a spawned Python child process: its stdin, and two
// PipeReaders draining stdout and stderr.
type Supervisor struct {
	pythonPath string
	cmd        *exec.Cmd
	stdinW     io.WriteCloser
	stdoutR    *PipeReader
	stderrR    *PipeReader

	pid       int
	spawnedAt time.Time

	waitDone chan struct{}
	waitErr  error

	mu             sync.Mutex
	exited         bool
	endedAt        time.Time
	exitStatus     ExitStatus
	stdoutEOF      bool
	stderrEOF      bool
	firstErr       error
	stderrRetained []byte
}

// NewSupervisor spawns pythonPath with argv, wiring stdin/stdout/stderr
// through two PipeReaders of the given pipeSize and recvTimeout. ctx
// governs the child's lifetime: cancelling it kills the process.
func NewSupervisor(ctx context.Context, pythonPath string, argv []string, pipeSize int, recvTimeout time.Duration, delimStdout, delimStderr *byte) (*Supervisor, error) {
	cmd := exec.CommandContext(ctx, pythonPath, argv...)
	setProcessGroup(cmd)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, wrapErr("pyrunner", pythonPath, err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, wrapErr("pyrunner", pythonPath, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, wrapErr("pyrunner", pythonPath, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errf("pyrunner", pythonPath, "spawn child: %w", err)
	}

	stdoutReader, err := NewPipeReader(stdoutPipe, pipeSize, recvTimeout, delimStdout)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	stderrReader, err := NewPipeReader(stderrPipe, pipeSize, recvTimeout, delimStderr)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	stdoutReader.Start()
	stderrReader.Start()

	s := &Supervisor{
		pythonPath: pythonPath,
		cmd:        cmd,
		stdinW:     stdinPipe,
		stdoutR:    stdoutReader,
		stderrR:    stderrReader,
		pid:        cmd.Process.Pid,
		spawnedAt:  time.Now(),
		waitDone:   make(chan struct{}),
	}

	go func() {
		werr := cmd.Wait()
		s.mu.Lock()
		s.waitErr = werr
		s.mu.Unlock()
		close(s.waitDone)
	}()

	return s, nil
}

// Pid returns the child's process ID.
func (s *Supervisor) Pid() int { return s.pid }

// captureExitStatus records the child's exit status the first time it
// observes waitDone closed; safe to call any number of times.
func (s *Supervisor) captureExitStatus() {
	select {
	case <-s.waitDone:
	default:
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return
	}
	s.exited = true
	s.endedAt = time.Now()

	var exitErr *exec.ExitError
	switch {
	case s.waitErr == nil:
		s.exitStatus = ExitStatus{Code: 0, Success: true}
	case errors.As(s.waitErr, &exitErr):
		s.exitStatus = ExitStatus{Code: exitErr.ExitCode(), Success: exitErr.ExitCode() == 0}
	default:
		s.exitStatus = ExitStatus{Code: -1, Success: false}
		s.recordFirstErrLocked(s.waitErr)
	}
}

// WriteRead implements the Supervisor's core poll/write/select step. If
// input is non-nil and the child hasn't exited, it is written to stdin
// first. It then blocks on whichever of stdout/stderr is not yet EOF,
// receives exactly one message from one of them, and returns that
// message's data in the matching slot (the other slot is nil).
func (s *Supervisor) WriteRead(input []byte) (exhausted bool, stdout, stderr []byte, err error) {
	s.captureExitStatus()
	s.signalExitedIfDone()

	if input != nil {
		s.mu.Lock()
		exited := s.exited
		s.mu.Unlock()
		if !exited {
			if _, werr := s.stdinW.Write(input); werr != nil {
				s.recordFirstErr(werr)
			}
		}
	}

	s.mu.Lock()
	stdoutEOF, stderrEOF := s.stdoutEOF, s.stderrEOF
	s.mu.Unlock()

	if stdoutEOF && stderrEOF {
		s.mu.Lock()
		exhausted = s.exited
		firstErr := s.firstErr
		s.mu.Unlock()
		return exhausted, nil, nil, firstErr
	}

	var stdoutCh, stderrCh <-chan Message
	if !stdoutEOF {
		stdoutCh = s.stdoutR.Messages()
	}
	if !stderrEOF {
		stderrCh = s.stderrR.Messages()
	}

	select {
	case m := <-stdoutCh:
		stdout = s.handleMessage(&s.stdoutEOF, m, false)
	case m := <-stderrCh:
		stderr = s.handleMessage(&s.stderrEOF, m, true)
	}

	s.captureExitStatus()

	s.mu.Lock()
	exhausted = s.exited && s.stdoutEOF && s.stderrEOF
	firstErr := s.firstErr
	s.mu.Unlock()
	return exhausted, stdout, stderr, firstErr
}

// handleMessage applies one received Message to the given EOF flag and
// returns the bytes, if any, this call should report to the caller.
// isStderr selects whether chunks also feed the retained stderr buffer.
func (s *Supervisor) handleMessage(eofFlag *bool, m Message, isStderr bool) []byte {
	switch m.Kind {
	case MsgData:
		if isStderr {
			s.retainStderr(m.Data)
		}
		return m.Data
	case MsgIdle:
		return nil
	case MsgDone:
		s.mu.Lock()
		*eofFlag = true
		s.mu.Unlock()
		s.signalExitedIfDone()
		if isStderr && len(m.Data) > 0 {
			s.retainStderr(m.Data)
		}
		if len(m.Data) == 0 {
			return nil
		}
		return m.Data
	case MsgError:
		s.mu.Lock()
		*eofFlag = true
		s.mu.Unlock()
		s.recordFirstErr(m.Err)
		s.signalExitedIfDone()
		return nil
	default:
		return nil
	}
}

// signalExitedIfDone re-signals Exited to both readers whenever the
// supervisor has observed the child's exit; PipeReader.Exited is
// idempotent, so calling this liberally is harmless.
func (s *Supervisor) signalExitedIfDone() {
	s.mu.Lock()
	exited := s.exited
	s.mu.Unlock()
	if exited {
		s.stdoutR.Exited()
		s.stderrR.Exited()
	}
}

// retainStderr appends data to the rolling stderr buffer, dropping the
// oldest bytes and prefixing a truncation marker once the budget would
// be exceeded.
func (s *Supervisor) retainStderr(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stderrRetained = append(s.stderrRetained, data...)
	if len(s.stderrRetained) <= stderrRetentionBudget {
		return
	}
	excess := len(s.stderrRetained) - stderrRetentionBudget + len(truncationMarker)
	if excess > len(s.stderrRetained) {
		excess = len(s.stderrRetained)
	}
	trimmed := append([]byte(nil), s.stderrRetained[excess:]...)
	s.stderrRetained = append([]byte(truncationMarker), trimmed...)
}

func (s *Supervisor) recordFirstErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordFirstErrLocked(err)
}

func (s *Supervisor) recordFirstErrLocked(err error) {
	if s.firstErr == nil {
		s.firstErr = err
	}
}

// Poll reports the child's exit status without blocking; ok is false if
// the child has not exited yet.
func (s *Supervisor) Poll() (status ExitStatus, ok bool) {
	s.captureExitStatus()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitStatus, s.exited
}

// StderrRetained returns a copy of the rolling stderr buffer.
func (s *Supervisor) StderrRetained() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.stderrRetained))
	copy(out, s.stderrRetained)
	return out
}

// Wait blocks until the child exits, then signals both readers Exited
// and returns the cached exit status.
func (s *Supervisor) Wait() (ExitStatus, error) {
	<-s.waitDone
	s.captureExitStatus()
	s.stdoutR.Exited()
	s.stderrR.Exited()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitStatus, s.firstErr
}

// Run waits for the child and drains both pipes to exhaustion, optionally
// echoing argv and each stream to the host's own stdout/stderr. It fails
// if the child exited non-zero.
func (s *Supervisor) Run(printArgv, printStdout, printStderr bool) ([]byte, []byte, error) {
	if printArgv {
		prefix := os.Getenv("PS4")
		if prefix == "" {
			prefix = "+"
		}
		fmt.Fprintln(os.Stderr, prefix, strings.Join(s.cmd.Args, " "))
	}

	// A non-nil error from WriteRead here means one stream has already recorded its first
	// error and gone EOF; per spec the other stream keeps draining, so
	// Run loops until exhausted rather than bailing on the first error
	// turn. The error itself still reaches the caller through Wait below.
	var stdoutAll, stderrAll bytes.Buffer
	for {
		exhausted, out, errChunk, _ := s.WriteRead(nil)
		if len(out) > 0 {
			stdoutAll.Write(out)
			if printStdout {
				os.Stdout.Write(out)
			}
		}
		if len(errChunk) > 0 {
			stderrAll.Write(errChunk)
			if printStderr {
				os.Stderr.Write(errChunk)
			}
		}
		if exhausted {
			break
		}
	}

	status, err := s.Wait()
	if err != nil {
		return stdoutAll.Bytes(), stderrAll.Bytes(), err
	}
	if !status.Success {
		return stdoutAll.Bytes(), stderrAll.Bytes(), errf("pyrunner", s.pythonPath, "child exited with status %d", status.Code)
	}
	return stdoutAll.Bytes(), stderrAll.Bytes(), nil
}

// RunOnce constructs a Supervisor and immediately runs it to completion,
// for short-lived tool invocations like a single pip install.
func RunOnce(ctx context.Context, pythonPath string, argv []string, pipeSize int, recvTimeout time.Duration, printArgv, printStdout, printStderr bool) ([]byte, []byte, error) {
	sup, err := NewSupervisor(ctx, pythonPath, argv, pipeSize, recvTimeout, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return sup.Run(printArgv, printStdout, printStderr)
}
