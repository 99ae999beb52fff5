package runner

import (
	"errors"
	"fmt"
)

var (
	ErrSpawn     = errors.New("spawn failed")
	ErrTimeout   = errors.New("process timed out")
	ErrCancelled = errors.New("process cancelled")
)

// tailBytes is how much trailing stderr an ExitError carries for diagnostics.
const tailBytes = 2000

// ExitError reports a non-zero exit together with the tail of stderr.
type ExitError struct {
	Code       int
	StderrTail string
}

func (e *ExitError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, e.StderrTail)
}

// Tail returns the last n bytes of b as a string, trimmed at a line boundary
// when possible.
func Tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	t := b[len(b)-n:]
	for i, c := range t {
		if c == '\n' {
			return string(t[i+1:])
		}
	}
	return string(t)
}
