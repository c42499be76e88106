package assemble

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for error classification.
var (
	// ErrInvalidRequest indicates a malformed Request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrToolFailed indicates that the compiler or object-copy tool exited
	// with a non-zero status.
	ErrToolFailed = errors.New("tool failed")

	// ErrIO indicates a scratch directory or file operation failed.
	ErrIO = errors.New("i/o error")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrLimitExceeded indicates that the configured timeout was reached.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// Mode selects how intermediate artifacts are passed between tools.
type Mode int

const (
	// ModeFile writes source, object, and binary to a scratch directory.
	ModeFile Mode = iota

	// ModeStream pipes source, object, and binary through stdio.
	ModeStream
)

func (m Mode) String() string {
	switch m {
	case ModeFile:
		return "file"
	case ModeStream:
		return "stream"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "file" or "stream".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file":
		return ModeFile, nil
	case "stream":
		return ModeStream, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
	}
}

// Request is one assembly job.
type Request struct {
	// Triple is the target triple passed to the compiler, e.g.
	// "aarch64-linux-eabi".
	Triple string

	// Source is the assembly text, passed through verbatim. It may be empty.
	Source string
}

// Validate checks that the request can be handed to the compiler.
func (r Request) Validate() error {
	if r.Triple == "" {
		return fmt.Errorf("%w: triple is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Triple) != r.Triple || strings.ContainsAny(r.Triple, " \t\r\n") {
		return fmt.Errorf("%w: triple %q contains whitespace", ErrInvalidRequest, r.Triple)
	}
	if strings.HasPrefix(r.Triple, "-") {
		return fmt.Errorf("%w: triple %q looks like a flag", ErrInvalidRequest, r.Triple)
	}
	return nil
}

// Result is the outcome of a successful Assemble call.
type Result struct {
	// Bytes is the flat binary image, in file order.
	Bytes []byte

	// Mode is the pipeline mode that produced Bytes.
	Mode Mode

	// Duration is the total wall time of the pipeline.
	Duration time.Duration
}

// ToolError reports a toolchain stage that exited non-zero.
type ToolError struct {
	// Tool is the stage name: "compiler" or "objcopy".
	Tool string

	// Path is the executable that failed.
	Path string

	// Command is the rendered command line.
	Command string

	// ExitCode is the stage's exit status.
	ExitCode int

	// Stderr is the stage's captured diagnostic output.
	Stderr string

	// Err is the runner error reported alongside the exit status, if any.
	Err error
}

// Error mirrors the toolchain's own report: command, status, and stderr.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s returned %d. stderr:\n%s", e.Command, e.ExitCode, e.Stderr)
}

// Is reports whether target is ErrToolFailed.
func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailed
}

// Unwrap returns the runner error, if any.
func (e *ToolError) Unwrap() error {
	return e.Err
}
