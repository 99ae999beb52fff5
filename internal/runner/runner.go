// Package runner executes external processes with per-line output streaming,
// group-kill on cancel or timeout, and per-owner process tracking.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"encbot/internal/logging"
	"encbot/internal/procgroup"
)

// Spec describes a subprocess to run. No shell is ever involved.
type Spec struct {
	Path    string   // binary path
	Args    []string // arguments
	Env     []string // optional extra environment (KEY=VALUE); nil inherits
	Dir     string   // working directory; empty = inherit
	Stdin   io.Reader
	Timeout time.Duration // hard deadline; 0 = none
	Owner   int64         // chat id owning this process; 0 = untracked

	StdoutLine    func(string) // called synchronously for each stdout line
	StderrLine    func(string) // called synchronously for each stderr line
	CaptureStdout bool         // buffer stdout into Result even when StdoutLine is set
}

// Result contains captured output and exit status.
type Result struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

// Runner is implemented by anything that can execute a Spec. Tests inject
// fakes; production code uses ProcRunner.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// ProcRunner runs real subprocesses in their own process group.
type ProcRunner struct {
	tracker *Tracker
	grace   time.Duration
}

// New returns a ProcRunner registering children with the given tracker.
// A nil tracker disables tracking.
func New(tracker *Tracker) *ProcRunner {
	return &ProcRunner{tracker: tracker, grace: 5 * time.Second}
}

// Run executes the command. Each output line is delivered to its callback
// before the next read. Context cancellation and timeout both group-kill the
// child; the classified error is returned alongside whatever was captured.
func (r *ProcRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd := exec.Command(spec.Path, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if spec.Env != nil {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	if spec.Stdin != nil {
		cmd.Stdin = spec.Stdin
	}
	procgroup.Set(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return Result{Code: -1}, fmt.Errorf("%w: %s: %v", ErrSpawn, spec.Path, err)
	}
	pid := cmd.Process.Pid
	if r.tracker != nil && spec.Owner != 0 {
		r.tracker.register(spec.Owner, pid)
		defer r.tracker.unregister(spec.Owner, pid)
	}
	log := logging.WithComponent("runner")
	log.Debug().
		Int("pid", pid).Str("bin", spec.Path).Int64("owner", spec.Owner).
		Msg("started")

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(&wg, stdoutPipe, spec.StdoutLine, stdoutLineSink(&stdoutBuf, spec))
	go scanLines(&wg, stderrPipe, spec.StderrLine, &stderrBuf)

	waitCh := make(chan error, 1)
	go func() {
		wg.Wait() // drain readers before Wait closes the pipes
		waitCh <- cmd.Wait()
	}()

	var timeoutCh <-chan time.Time
	if spec.Timeout > 0 {
		t := time.NewTimer(spec.Timeout)
		defer t.Stop()
		timeoutCh = t.C
	}

	var waitErr error
	var cause error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		waitErr = procgroup.Terminate(cmd, waitCh, r.grace)
		cause = ErrCancelled
	case <-timeoutCh:
		waitErr = procgroup.Terminate(cmd, waitCh, r.grace)
		cause = ErrTimeout
	}

	res := Result{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes(), Code: 0}
	if waitErr != nil {
		res.Code = -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Code = exitErr.ExitCode()
		}
	}

	if cause != nil {
		return res, cause
	}
	if waitErr != nil {
		return res, &ExitError{Code: res.Code, StderrTail: Tail(res.Stderr, tailBytes)}
	}
	return res, nil
}

// stdoutLineSink decides whether stdout lines are buffered. Stderr is always
// captured; stdout only when requested or when nobody consumes the lines.
func stdoutLineSink(buf *bytes.Buffer, spec Spec) *bytes.Buffer {
	if spec.CaptureStdout || spec.StdoutLine == nil {
		return buf
	}
	return nil
}

func scanLines(wg *sync.WaitGroup, r io.Reader, fn func(string), buf *bytes.Buffer) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	// yt-dlp metadata lines can exceed the default 64 KiB.
	const maxCapacity = 1024 * 1024
	sc.Buffer(make([]byte, 0, 64*1024), maxCapacity)
	for sc.Scan() {
		line := sc.Text()
		if fn != nil {
			fn(line)
		}
		if buf != nil {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
}
