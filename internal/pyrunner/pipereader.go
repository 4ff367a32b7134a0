package pyrunner

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"syscall"
	"time"

	"github.com/muesli/cancelreader"
)

// MessageKind tags a Message's payload, playing the role the original's
// channel-of-enum-variants plays in Go, where a channel only carries one
// concrete type.
type MessageKind int

const (
	MsgData MessageKind = iota
	MsgIdle
	MsgDone
	MsgError
)

// Message is what a PipeReader sends on its outgoing channel.
type Message struct {
	Kind  MessageKind
	Data  []byte // Data: the chunk read; Done: the trailing unterminated bytes
	Reads int    // Done: how many non-empty reads this reader performed
	Err   error  // Error: the read error observed
}

// outgoingCapacity bounds the reader's outgoing channel; a full channel
// applies backpressure by blocking the reader's send, which is the
// intended mechanism, not a bug to work around.
const outgoingCapacity = 16

// PipeReader reads a byte stream on a dedicated goroutine, optionally
// slicing it into delimited chunks, and forwards the result on a bounded
// channel. It is owned by exactly one Py Supervisor.
type PipeReader struct {
	stream      cancelreader.CancelReader
	pipeSize    int
	recvTimeout time.Duration
	delim       *byte

	out        chan Message
	exitSignal chan struct{}
	exitOnce   sync.Once

	pending []byte
	reads   int
}

// NewPipeReader wraps stream for cancellable reads and prepares a reader
// that will chunk at most pipeSize bytes per read, optionally splitting
// on delim.
func NewPipeReader(stream io.Reader, pipeSize int, recvTimeout time.Duration, delim *byte) (*PipeReader, error) {
	cr, err := cancelreader.NewReader(stream)
	if err != nil {
		return nil, errf("pyrunner", "pipereader", "wrap stream: %w", err)
	}
	return &PipeReader{
		stream:      cr,
		pipeSize:    pipeSize,
		recvTimeout: recvTimeout,
		delim:       delim,
		out:         make(chan Message, outgoingCapacity),
		exitSignal:  make(chan struct{}),
	}, nil
}

// Messages returns the reader's outgoing channel.
func (r *PipeReader) Messages() <-chan Message { return r.out }

// Start launches the reader's dedicated goroutine.
func (r *PipeReader) Start() { go r.run() }

// Exited signals the reader that its supervisor has observed the child's
// exit. Safe to call more than once and from any goroutine; only the
// first call has an effect, matching the "exactly once" contract on the
// supervisor side.
func (r *PipeReader) Exited() {
	r.exitOnce.Do(func() {
		close(r.exitSignal)
		r.stream.Cancel()
	})
}

func (r *PipeReader) run() {
	buf := make([]byte, r.pipeSize)
	for {
		n, err := r.stream.Read(buf)

		switch {
		case err != nil && isInterrupted(err):
			continue

		case n == 0 || errors.Is(err, io.EOF) || errors.Is(err, cancelreader.ErrCanceled):
			if n > 0 {
				r.consume(buf[:n])
			}
			if r.waitExit() {
				return
			}
			continue

		case err != nil:
			r.send(Message{Kind: MsgError, Err: err})
			continue

		default:
			r.consume(buf[:n])
		}
	}
}

func (r *PipeReader) consume(data []byte) {
	r.reads++
	owned := append([]byte(nil), data...)
	if r.delim != nil {
		r.emitDelimited(owned)
		return
	}
	r.send(Message{Kind: MsgData, Data: owned})
}

// emitDelimited scans data for the reader's delimiter, sending one Data
// message per delimited chunk (including the delimiter byte) and folding
// any undelimited remainder into the pending buffer for the next read.
func (r *PipeReader) emitDelimited(data []byte) {
	for len(data) > 0 {
		idx := bytes.IndexByte(data, *r.delim)
		if idx == -1 {
			r.pending = append(r.pending, data...)
			return
		}
		r.pending = append(r.pending, data[:idx+1]...)
		chunk := r.pending
		r.pending = nil
		r.send(Message{Kind: MsgData, Data: chunk})
		data = data[idx+1:]
	}
}

// waitExit implements the EOF-path of the read loop: wait up to
// recvTimeout for the supervisor's exit signal. Returns true once the
// reader has sent Done and should terminate.
func (r *PipeReader) waitExit() bool {
	select {
	case <-r.exitSignal:
		r.send(Message{Kind: MsgDone, Reads: r.reads, Data: r.takePending()})
		return true
	case <-time.After(r.recvTimeout):
		if len(r.out) == 0 {
			r.trySend(Message{Kind: MsgIdle})
		}
		return false
	}
}

func (r *PipeReader) takePending() []byte {
	if len(r.pending) == 0 {
		return nil
	}
	p := r.pending
	r.pending = nil
	return p
}

func (r *PipeReader) send(m Message) { r.out <- m }

func (r *PipeReader) trySend(m Message) {
	select {
	case r.out <- m:
	default:
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}
