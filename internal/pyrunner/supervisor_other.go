//go:build !unix

package pyrunner

import "os/exec"

// setProcessGroup is a no-op outside Unix; Windows job objects would be
// the equivalent, but nothing in this module currently needs it.
func setProcessGroup(cmd *exec.Cmd) {}
