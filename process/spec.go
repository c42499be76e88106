package process

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by Spec validation and runners.
var (
	// ErrInvalidSpec is returned when a Spec cannot be executed as given.
	ErrInvalidSpec = errors.New("invalid process spec")

	// ErrStart is returned when the process could not be started.
	ErrStart = errors.New("process start failed")

	// ErrEmptyChain is returned when Chain is called without stages.
	ErrEmptyChain = errors.New("empty process chain")
)

// Spec defines a single subprocess invocation.
type Spec struct {
	// Path is the executable to run. It is used verbatim; no PATH lookup
	// happens at this layer.
	Path string

	// Args are the arguments, not including the executable itself.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=value pairs appended to the parent environment.
	Env []string

	// Stdin is written to the process's standard input.
	Stdin []byte
}

// Validate checks that the spec can be executed.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidSpec)
	}
	for _, kv := range s.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("%w: env entry %q is not KEY=value", ErrInvalidSpec, kv)
		}
	}
	return nil
}

// String renders the command line for logs and diagnostics.
func (s Spec) String() string {
	parts := make([]string, 0, len(s.Args)+1)
	parts = append(parts, s.Path)
	for _, a := range s.Args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Result captures the outcome of one subprocess.
type Result struct {
	// ExitCode is the process exit status. -1 means the process was
	// terminated by a signal.
	ExitCode int

	// Stdout is the captured standard output. In a chain only the final
	// stage's Stdout is populated.
	Stdout []byte

	// Stderr is the captured standard error.
	Stderr string

	// Duration is the wall time from start to exit.
	Duration time.Duration
}

// OK returns true if the process exited with status 0.
func (r Result) OK() bool {
	return r.ExitCode == 0
}
