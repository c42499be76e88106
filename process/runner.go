package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Runner executes a subprocess for a given spec.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Run must honor cancellation and deadlines.
// - Errors: a non-zero exit is reported in Result.ExitCode, not as an error.
// - Ownership: implementations must not mutate the provided spec.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// Piper is implemented by runners that can stream a chain of stages
// concurrently, connecting each stage's stdout to the next stage's stdin.
//
// The returned slice has one Result per stage. Only the last Result carries
// Stdout.
type Piper interface {
	RunPipeline(ctx context.Context, stages ...Spec) ([]Result, error)
}

// waitDelay bounds how long Wait lingers on inherited output pipes after
// the context kills a process.
const waitDelay = 2 * time.Second

// HostRunner runs processes on the local host via os/exec.
type HostRunner struct{}

// NewHostRunner returns a runner backed by os/exec.
func NewHostRunner() *HostRunner {
	return &HostRunner{}
}

var (
	_ Runner = (*HostRunner)(nil)
	_ Piper  = (*HostRunner)(nil)
)

// Run starts the process, waits for it, and captures its output.
func (h *HostRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	var stdout, stderr bytes.Buffer
	cmd := h.command(ctx, spec)
	cmd.Stdin = bytes.NewReader(spec.Stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrStart, spec.Path, err)
	}
	err := cmd.Wait()
	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	return finish(ctx, cmd, res, err)
}

// RunPipeline starts every stage, connects them with OS pipes, and waits
// for all of them. Stdin of the first stage is taken from its spec; Stdin
// of later stages is ignored.
//
// The parent holds no pipe ends once the stages are running, so a stage
// that exits without draining its input makes the upstream writer fail
// with EPIPE instead of blocking.
func (h *HostRunner) RunPipeline(ctx context.Context, stages ...Spec) ([]Result, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyChain
	}
	for _, s := range stages {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	cmds := make([]*exec.Cmd, len(stages))
	stderrs := make([]bytes.Buffer, len(stages))
	var stdout bytes.Buffer

	for i, s := range stages {
		cmds[i] = h.command(ctx, s)
		cmds[i].Stderr = &stderrs[i]
	}
	cmds[0].Stdin = bytes.NewReader(stages[0].Stdin)
	cmds[len(cmds)-1].Stdout = &stdout

	var pipes []*os.File
	closePipes := func() {
		for _, f := range pipes {
			_ = f.Close()
		}
	}
	for i := 0; i < len(cmds)-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			closePipes()
			return nil, fmt.Errorf("%w: pipe: %w", ErrStart, err)
		}
		pipes = append(pipes, pr, pw)
		cmds[i].Stdout = pw
		cmds[i+1].Stdin = pr
	}

	start := time.Now()
	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			closePipes()
			for _, started := range cmds[:i] {
				_ = started.Process.Kill()
				_ = started.Wait()
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrStart, stages[i].Path, err)
		}
	}
	closePipes()

	results := make([]Result, len(cmds))
	var firstErr error
	for i, cmd := range cmds {
		err := cmd.Wait()
		res := Result{
			Stderr:   stderrs[i].String(),
			Duration: time.Since(start),
		}
		res, err = finish(ctx, cmd, res, err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results[i] = res
	}
	results[len(results)-1].Stdout = stdout.Bytes()
	return results, firstErr
}

func (h *HostRunner) command(ctx context.Context, spec Spec) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.WaitDelay = waitDelay
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	return cmd
}

// finish converts a Wait error into an exit code, or a context error when
// the process was killed because ctx ended.
func finish(ctx context.Context, cmd *exec.Cmd, res Result, err error) (Result, error) {
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", cmd.Path, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, nil
	}
	return res, fmt.Errorf("%s: %w", cmd.Path, err)
}

// Chain runs the stages so that each stage's stdout becomes the next
// stage's stdin. Runners implementing Piper stream the stages concurrently;
// other runners run them one after another. Sequential chains stop at the
// first stage that exits non-zero; the returned slice then ends at that
// stage.
func Chain(ctx context.Context, r Runner, stages ...Spec) ([]Result, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyChain
	}
	if p, ok := r.(Piper); ok {
		return p.RunPipeline(ctx, stages...)
	}

	results := make([]Result, 0, len(stages))
	input := stages[0].Stdin
	for i, s := range stages {
		s.Stdin = input
		res, err := r.Run(ctx, s)
		if i < len(stages)-1 {
			input = res.Stdout
			res.Stdout = nil
		}
		results = append(results, res)
		if err != nil {
			return results, err
		}
		if !res.OK() {
			return results, nil
		}
	}
	return results, nil
}
