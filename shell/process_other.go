//go:build !unix

package shell

import (
	"os/exec"
	"time"
)

const waitDelay = 2 * time.Second

func configureProcess(cmd *exec.Cmd) {
	cmd.WaitDelay = waitDelay
}
