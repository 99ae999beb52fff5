//go:build !unix

package procgroup

import (
	"os"
	"os/exec"
	"syscall"
)

func set(cmd *exec.Cmd) {
	// Process groups are a unix notion; best effort elsewhere.
}

func signalGroup(pid int, kill bool) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	if kill {
		_ = proc.Kill()
		return
	}
	_ = proc.Signal(os.Interrupt)
}

func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
