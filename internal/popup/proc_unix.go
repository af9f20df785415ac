//go:build unix

package popup

import (
	"errors"
	"os/exec"
	"syscall"
)

// startGroup puts the browser in its own process group so launcher
// wrappers that fork take their children down with them.
func startGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
