package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubprocess indicates the command ran and exited unsuccessfully.
	ErrSubprocess = errors.New("task: subprocess failed")

	// ErrLaunch indicates the command could not be started.
	ErrLaunch = errors.New("task: failed to launch")

	// ErrEmptyCommand indicates the command line has no words.
	ErrEmptyCommand = errors.New("task: empty command")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("task: already started")

	// ErrNotStarted indicates Wait was called before Start.
	ErrNotStarted = errors.New("task: not started")
)

// SubprocessError describes a command that exited non-zero or was killed.
type SubprocessError struct {
	Name     string
	ExitCode int
	TimedOut bool
	Stderr   string
}

func (e *SubprocessError) Error() string {
	var b strings.Builder
	if e.TimedOut {
		fmt.Fprintf(&b, "task: %s timed out", e.Name)
	} else {
		fmt.Fprintf(&b, "task: %s exited with code %d", e.Name, e.ExitCode)
	}
	if line := lastLine(e.Stderr); line != "" {
		b.WriteString(": ")
		b.WriteString(line)
	}
	return b.String()
}

// Is reports whether target is ErrSubprocess.
func (e *SubprocessError) Is(target error) bool {
	return target == ErrSubprocess
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n\t ")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
