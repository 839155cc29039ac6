//go:build unix

package shell

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// waitDelay bounds how long Wait keeps the pipes open once the process group
// was signalled, in case a grandchild ignores SIGTERM.
const waitDelay = 2 * time.Second

// configureProcess puts the command in its own process group so `iw event`
// and friends spawned by the script go away along with it.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}

		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = waitDelay
}
