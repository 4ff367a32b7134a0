//go:build unix

package pyrunner

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the child in its own process group so cancelling
// the Supervisor's context can signal the whole group, not just the
// immediate child. A Python interpreter running the evtx bridge may shell
// out further (python-evtx invokes no subprocesses today, but nothing
// stops a future bridge dependency from doing so); killing only the
// direct child would leave such descendants orphaned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
}
