// Command bingen assembles snippets of assembly text into machine-code bytes
// using the host's clang and llvm-objcopy.
//
// Usage:
//
//	bingen [-v] asm -target TRIPLE [-format list|slice|array] [-mode file|stream] [SOURCE|-]
//	bingen [-v] gen [-o OUT.go] [-pkg NAME] [-format slice|array] FILE.go
//	bingen [-v] locate
//	bingen [-v] serve
//	bingen [-v] tools [-q QUERY] [-n LIMIT] [-doc TOOL_ID]
//
// The gen command reads //bingen:asm directives and is meant to be driven by
// go generate:
//
//	//go:generate bingen gen $GOFILE
//	//bingen:asm mrsDbg aarch64-linux-eabi "mrs x0, DBGDTR_EL0"
//
// Set BINGEN_CLANG_PATH and BINGEN_OBJCOPY_PATH together to pin the
// toolchain.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// exitUsage is returned for malformed command lines.
const exitUsage = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// env is what a command sees of the outside world.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e env, args []string) error
}

var commands = []command{
	{"asm", "assemble one snippet and print its bytes", runAsm},
	{"gen", "generate Go byte literals from //bingen:asm directives", runGen},
	{"locate", "print the toolchain in use", runLocate},
	{"serve", "serve the tools over MCP on stdio", runServe},
	{"tools", "search the tool catalog", runTools},
}

// errUsage marks errors already explained by flag output.
var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bingen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log toolchain discovery and pipeline steps")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: bingen [-v] <command> [flags]")
		fmt.Fprintln(stderr)
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-8s %s\n", c.name, c.summary)
		}
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	e := env{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}

	name := fs.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(ctx, e, fs.Args()[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
			return exitUsage
		default:
			fmt.Fprintf(stderr, "bingen %s: %v\n", name, err)
			return 1
		}
	}
	fmt.Fprintf(stderr, "bingen: unknown command %q\n", name)
	fs.Usage()
	return exitUsage
}
