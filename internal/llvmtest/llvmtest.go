// Package llvmtest provides a scripted stand-in for clang and llvm-objcopy
// so that packages driving the toolchain can be tested without LLVM.
//
// The fake "object file" produced by the compiler is the triple and source
// joined by a newline; objcopy maps it to the bytes in Encodings.
package llvmtest

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jonwraymond/bingen/process"
	"github.com/jonwraymond/bingen/toolchain"
)

// Toolchain is the toolchain Runner answers for.
var Toolchain = toolchain.Toolchain{
	Compiler: "/fake/bin/clang",
	ObjCopy:  "/fake/bin/llvm-objcopy",
	Source:   "test",
}

// Encodings are the known answers, keyed by triple + "\n" + source.
var Encodings = map[string][]byte{
	"aarch64-linux-eabi\nmrs x0, DBGDTR_EL0":     {0, 4, 51, 213},
	"aarch64-linux-eabi\nmov x0, 40":             {0, 5, 128, 210},
	"arm-linux-eabi\nmov r0, r1":                 {1, 0, 160, 225},
	"x86_64-unknown-linux-gnu\nxorl %eax, %eax":  {49, 192},
	"x86_64-unknown-linux-gnu\n":                 {},
	"aarch64-linux-eabi\nmov x0, 40\nmov x0, 40": {0, 5, 128, 210, 0, 5, 128, 210},
}

// Triples are the targets the fake compiler accepts.
var Triples = map[string]bool{
	"aarch64-linux-eabi":       true,
	"arm-linux-eabi":           true,
	"x86_64-unknown-linux-gnu": true,
}

// Runner imitates clang and llvm-objcopy in both file and stream form.
type Runner struct {
	// Delay is applied before every invocation and honours cancellation.
	Delay time.Duration

	mu    sync.Mutex
	calls []process.Spec
}

var _ process.Runner = (*Runner)(nil)

// Calls returns the specs run so far.
func (r *Runner) Calls() []process.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]process.Spec(nil), r.calls...)
}

// Run implements process.Runner.
func (r *Runner) Run(ctx context.Context, spec process.Spec) (process.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, spec)
	r.mu.Unlock()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return process.Result{ExitCode: -1}, ctx.Err()
		}
	}

	switch spec.Path {
	case Toolchain.Compiler:
		return compile(spec)
	case Toolchain.ObjCopy:
		return objcopy(spec)
	}
	return process.Result{}, process.ErrStart
}

func compile(spec process.Spec) (process.Result, error) {
	var triple, out, in string
	args := spec.Args
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-target":
			i++
			triple = args[i]
		case "-o":
			i++
			out = args[i]
		case "-c", "-xassembler-with-cpp":
		default:
			in = args[i]
		}
	}
	if !Triples[triple] {
		return process.Result{ExitCode: 1, Stderr: "error: unknown target triple '" + triple + "'"}, nil
	}

	var src []byte
	if in == "-" {
		src = spec.Stdin
	} else {
		b, err := os.ReadFile(in)
		if err != nil {
			return process.Result{ExitCode: 1, Stderr: err.Error()}, nil
		}
		src = b
	}
	key := triple + "\n" + string(src)
	if _, ok := Encodings[key]; !ok {
		return process.Result{ExitCode: 1, Stderr: "<stdin>:1:1: error: invalid instruction"}, nil
	}

	if out == "-" {
		return process.Result{Stdout: []byte(key)}, nil
	}
	if err := os.WriteFile(out, []byte(key), 0o600); err != nil {
		return process.Result{ExitCode: 1, Stderr: err.Error()}, nil
	}
	return process.Result{}, nil
}

func objcopy(spec process.Spec) (process.Result, error) {
	args := spec.Args
	if len(args) != 4 || args[0] != "-O" || args[1] != "binary" {
		return process.Result{ExitCode: 1, Stderr: "usage"}, nil
	}
	in, out := args[2], args[3]

	var obj []byte
	if in == "-" {
		obj = spec.Stdin
	} else {
		b, err := os.ReadFile(in)
		if err != nil {
			return process.Result{ExitCode: 1, Stderr: err.Error()}, nil
		}
		obj = b
	}
	bin, ok := Encodings[string(obj)]
	if !ok {
		return process.Result{ExitCode: 1, Stderr: "error: not an object file"}, nil
	}
	if out == "-" {
		return process.Result{Stdout: bin}, nil
	}
	return process.Result{}, os.WriteFile(out, bin, 0o600)
}
