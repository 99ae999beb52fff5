// Package procgroup starts children in their own process group and kills
// the whole group, so that helper processes spawned by the child (probes,
// demuxers) are reaped together with it.
package procgroup

import (
	"errors"
	"os/exec"
	"time"
)

var ErrKillFailed = errors.New("kill operation failed")

// Set configures the command to start in a new process group.
// Mandatory for Terminate and KillGroup to reap the whole tree.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate stops a running command's process group: SIGTERM, wait up to
// grace for the caller's Wait (delivered on waitCh) to return, then SIGKILL.
// It consumes and returns the error from waitCh. Safe on nil commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	signalGroup(cmd.Process.Pid, false)

	select {
	case err := <-waitCh:
		return err
	case <-time.After(grace):
	}

	signalGroup(cmd.Process.Pid, true)
	return <-waitCh
}

// KillGroup terminates the process group led by pid when the caller does not
// own the process handle: SIGTERM, poll up to grace, then SIGKILL and poll up
// to timeout. Returns ErrKillFailed if the group outlives both.
func KillGroup(pid int, grace, timeout time.Duration) error {
	if pid <= 0 {
		return nil
	}
	signalGroup(pid, false)
	if waitGone(pid, grace) {
		return nil
	}
	signalGroup(pid, true)
	if waitGone(pid, timeout) {
		return nil
	}
	return ErrKillFailed
}

func waitGone(pid int, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if !alive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}
