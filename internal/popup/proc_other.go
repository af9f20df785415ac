//go:build !unix

package popup

import (
	"errors"
	"os"
	"os/exec"
)

func startGroup(*exec.Cmd) {}

func killGroup(cmd *exec.Cmd) error {
	err := cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
