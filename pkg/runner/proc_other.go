//go:build !unix

package runner

import "os/exec"

// killProcessGroup relies on the default cancellation, which kills only the
// direct child. WaitDelay still bounds the wait for its descendants.
func killProcessGroup(c *exec.Cmd) {}
