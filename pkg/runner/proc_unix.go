//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts c in its own process group and kills the whole
// group when the command context is done.
func killProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
