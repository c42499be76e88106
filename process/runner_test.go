package process

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"ok", Spec{Path: "/bin/true"}, false},
		{"empty path", Spec{}, true},
		{"blank path", Spec{Path: "  "}, true},
		{"bad env", Spec{Path: "/bin/true", Env: []string{"NOEQUALS"}}, true},
		{"good env", Spec{Path: "/bin/true", Env: []string{"A=b"}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("Validate() error = %v, want ErrInvalidSpec", err)
			}
		})
	}
}

func TestSpecString(t *testing.T) {
	s := Spec{Path: "clang", Args: []string{"-target", "x86_64-unknown-linux-gnu", "a b", ""}}
	want := "clang -target x86_64-unknown-linux-gnu 'a b' ''"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestHostRunnerRun(t *testing.T) {
	sh := requireShell(t)
	r := NewHostRunner()

	res, err := r.Run(context.Background(), Spec{
		Path:  sh,
		Args:  []string{"-c", "cat; printf oops >&2"},
		Stdin: []byte("hello"),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.OK() {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if string(res.Stdout) != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
	if res.Stderr != "oops" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "oops")
	}
}

func TestHostRunnerNonZeroExit(t *testing.T) {
	sh := requireShell(t)
	r := NewHostRunner()

	res, err := r.Run(context.Background(), Spec{
		Path: sh,
		Args: []string{"-c", "echo bad >&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for non-zero exit", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "bad") {
		t.Errorf("Stderr = %q, want it to contain %q", res.Stderr, "bad")
	}
}

func TestHostRunnerStartFailure(t *testing.T) {
	r := NewHostRunner()
	_, err := r.Run(context.Background(), Spec{Path: "/nonexistent/bingen-tool"})
	if !errors.Is(err, ErrStart) {
		t.Errorf("Run() error = %v, want ErrStart", err)
	}
}

func TestHostRunnerContextCancel(t *testing.T) {
	sh := requireShell(t)
	r := NewHostRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Run(ctx, Spec{Path: sh, Args: []string{"-c", "sleep 5"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestHostRunnerPipeline(t *testing.T) {
	sh := requireShell(t)
	r := NewHostRunner()

	results, err := r.RunPipeline(context.Background(),
		Spec{Path: sh, Args: []string{"-c", "cat"}, Stdin: []byte("abc")},
		Spec{Path: sh, Args: []string{"-c", "tr a-z A-Z"}},
	)
	if err != nil {
		t.Fatalf("RunPipeline() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if got := string(results[1].Stdout); got != "ABC" {
		t.Errorf("final Stdout = %q, want %q", got, "ABC")
	}
	if results[0].Stdout != nil {
		t.Errorf("intermediate Stdout = %q, want nil", results[0].Stdout)
	}
}

func TestHostRunnerPipelineReportsEachExit(t *testing.T) {
	sh := requireShell(t)
	r := NewHostRunner()

	results, err := r.RunPipeline(context.Background(),
		Spec{Path: sh, Args: []string{"-c", "echo first >&2; exit 2"}},
		Spec{Path: sh, Args: []string{"-c", "cat"}},
	)
	if err != nil {
		t.Fatalf("RunPipeline() error = %v", err)
	}
	if results[0].ExitCode != 2 {
		t.Errorf("stage 0 ExitCode = %d, want 2", results[0].ExitCode)
	}
	if !strings.Contains(results[0].Stderr, "first") {
		t.Errorf("stage 0 Stderr = %q", results[0].Stderr)
	}
	if !results[1].OK() {
		t.Errorf("stage 1 ExitCode = %d, want 0", results[1].ExitCode)
	}
}

func TestHostRunnerPipelineDownstreamExitsEarly(t *testing.T) {
	sh := requireShell(t)
	r := NewHostRunner()

	// The writer produces far more than a pipe buffer holds; the reader
	// never reads it.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	start := time.Now()
	results, err := r.RunPipeline(ctx,
		Spec{Path: sh, Args: []string{"-c", "dd if=/dev/zero bs=1024 count=512 2>/dev/null"}},
		Spec{Path: sh, Args: []string{"-c", "echo 'not an object file' >&2; exit 1"}},
	)
	if err != nil {
		t.Fatalf("RunPipeline() error = %v after %v", err, time.Since(start))
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("pipeline took %v; upstream stage blocked on a pipe nobody reads", elapsed)
	}
	if results[1].ExitCode != 1 || !strings.Contains(results[1].Stderr, "not an object file") {
		t.Errorf("stage 1 = %+v", results[1])
	}
	if results[0].OK() {
		t.Errorf("stage 0 exited cleanly; want a broken-pipe failure")
	}
}

func TestHostRunnerStartAfterDeadline(t *testing.T) {
	sh := requireShell(t)
	r := NewHostRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Spec{Path: sh, Args: []string{"-c", "true"}})
	if !errors.Is(err, ErrStart) || !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want both ErrStart and context.Canceled", err)
	}

	_, err = r.RunPipeline(ctx, Spec{Path: sh, Args: []string{"-c", "true"}}, Spec{Path: sh, Args: []string{"-c", "cat"}})
	if !errors.Is(err, ErrStart) || !errors.Is(err, context.Canceled) {
		t.Errorf("RunPipeline() error = %v, want both ErrStart and context.Canceled", err)
	}
}

// sequentialRunner is a Runner without Piper support.
type sequentialRunner struct {
	calls []Spec
	fn    func(Spec) Result
}

func (s *sequentialRunner) Run(_ context.Context, spec Spec) (Result, error) {
	s.calls = append(s.calls, spec)
	return s.fn(spec), nil
}

func TestChainSequential(t *testing.T) {
	r := &sequentialRunner{fn: func(s Spec) Result {
		return Result{Stdout: append([]byte(s.Path+":"), s.Stdin...)}
	}}

	results, err := Chain(context.Background(), r,
		Spec{Path: "a", Stdin: []byte("in")},
		Spec{Path: "b"},
	)
	if err != nil {
		t.Fatalf("Chain() error = %v", err)
	}
	if got := string(results[1].Stdout); got != "b:a:in" {
		t.Errorf("final Stdout = %q, want %q", got, "b:a:in")
	}
	if string(r.calls[1].Stdin) != "a:in" {
		t.Errorf("stage 1 Stdin = %q, want %q", r.calls[1].Stdin, "a:in")
	}
}

func TestChainSequentialStopsOnFailure(t *testing.T) {
	r := &sequentialRunner{fn: func(s Spec) Result {
		if s.Path == "a" {
			return Result{ExitCode: 1, Stderr: "broken"}
		}
		return Result{}
	}}

	results, err := Chain(context.Background(), r, Spec{Path: "a"}, Spec{Path: "b"})
	if err != nil {
		t.Fatalf("Chain() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if len(r.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(r.calls))
	}
}

func TestChainEmpty(t *testing.T) {
	_, err := Chain(context.Background(), NewHostRunner())
	if !errors.Is(err, ErrEmptyChain) {
		t.Errorf("Chain() error = %v, want ErrEmptyChain", err)
	}
}
