package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/bingen/assemble"
	"github.com/jonwraymond/bingen/directive"
	"github.com/jonwraymond/bingen/exec"
	"github.com/jonwraymond/bingen/render"
	"github.com/jonwraymond/bingen/server"
	"github.com/jonwraymond/bingen/toolchain"
)

// newExec builds the facade; tests replace it to avoid needing LLVM.
var newExec = exec.New

// catalogToolchain stands in for discovery when only the tool catalog is read.
var catalogToolchain = toolchain.Toolchain{
	Compiler: toolchain.ClangName,
	ObjCopy:  toolchain.ObjCopyName,
	Source:   "catalog",
}

// execFlags are shared by every command that assembles.
type execFlags struct {
	mode    string
	timeout time.Duration
}

func (f *execFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.mode, "mode", assemble.ModeFile.String(), "pipeline: file (scratch directory) or stream (stdio)")
	fs.DurationVar(&f.timeout, "timeout", 0, "limit per assembly, 0 for none")
}

func (f *execFlags) open(ctx context.Context, e env) (*exec.Exec, error) {
	mode, err := assemble.ParseMode(f.mode)
	if err != nil {
		return nil, err
	}
	return newExec(ctx, exec.Options{
		Mode:    mode,
		Timeout: f.timeout,
		Logger:  e.logger,
	})
}

func parse(fs *flag.FlagSet, e env, args []string) error {
	fs.SetOutput(e.stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runAsm(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("asm", flag.ContinueOnError)
	triple := fs.String("target", "", "LLVM target triple (required)")
	format := fs.String("format", render.FormatList.String(), "output: list, slice or array")
	var ef execFlags
	ef.register(fs)
	if err := parse(fs, e, args); err != nil {
		return err
	}
	if *triple == "" || fs.NArg() > 1 {
		fmt.Fprintln(e.stderr, "usage: bingen asm -target TRIPLE [flags] [SOURCE|-]")
		fs.PrintDefaults()
		return errUsage
	}
	f, err := render.ParseFormat(*format)
	if err != nil {
		return err
	}

	source := fs.Arg(0)
	if fs.NArg() == 0 || source == "-" {
		b, err := io.ReadAll(e.stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		source = string(b)
	}

	x, err := ef.open(ctx, e)
	if err != nil {
		return err
	}
	b, err := x.Bingen(ctx, *triple, source)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, render.Literal(b, f))
	return nil
}

func runGen(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default FILE_bingen.go)")
	pkg := fs.String("pkg", "", "package clause (default: the input's package)")
	format := fs.String("format", render.FormatSlice.String(), "Go literal: slice or array")
	var ef execFlags
	ef.register(fs)
	if err := parse(fs, e, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: bingen gen [flags] FILE.go")
		fs.PrintDefaults()
		return errUsage
	}
	in := fs.Arg(0)
	f, err := render.ParseFormat(*format)
	if err != nil {
		return err
	}

	df, err := directive.ParseFile(in)
	if err != nil {
		return err
	}
	if len(df.Directives) == 0 {
		return fmt.Errorf("%s: no %sasm directives", in, directive.Prefix)
	}

	x, err := ef.open(ctx, e)
	if err != nil {
		return err
	}
	file := render.File{
		Package:   df.Package,
		Generator: "bingen gen",
		Format:    f,
	}
	if *pkg != "" {
		file.Package = *pkg
	}
	for _, d := range df.Directives {
		b, err := x.Bingen(ctx, d.Triple, d.Source)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", d.Pos, d.Name, err)
		}
		file.Entries = append(file.Entries, render.Entry{
			Name:   d.Name,
			Triple: d.Triple,
			Source: d.Source,
			Bytes:  b,
		})
	}

	src, err := file.Render()
	if err != nil {
		return err
	}
	target := *out
	if target == "" {
		target = strings.TrimSuffix(in, ".go") + "_bingen.go"
	}
	if err := os.WriteFile(target, src, 0o644); err != nil {
		return err
	}
	e.logger.Info("generated", "file", target, "entries", len(file.Entries))
	return nil
}

func runLocate(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("locate", flag.ContinueOnError)
	if err := parse(fs, e, args); err != nil {
		return err
	}
	x, err := newExec(ctx, exec.Options{Logger: e.logger})
	if err != nil {
		return err
	}
	tc := x.Toolchain()
	fmt.Fprintf(e.stdout, "compiler: %s\nobjcopy:  %s\nsource:   %s\n", tc.Compiler, tc.ObjCopy, tc.Source)
	return nil
}

func runServe(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var ef execFlags
	ef.register(fs)
	if err := parse(fs, e, args); err != nil {
		return err
	}
	x, err := ef.open(ctx, e)
	if err != nil {
		return err
	}
	srv := server.New(x, server.Options{Logger: e.logger})
	return server.Run(ctx, srv, &mcp.StdioTransport{})
}

func runTools(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("tools", flag.ContinueOnError)
	query := fs.String("q", "", "search query (default: list all)")
	limit := fs.Int("n", 10, "maximum results")
	doc := fs.String("doc", "", "print documentation for a tool ID")
	if err := parse(fs, e, args); err != nil {
		return err
	}
	// The catalog never runs a tool, so it needs no discovered toolchain.
	x, err := newExec(ctx, exec.Options{Logger: e.logger, Toolchain: &catalogToolchain})
	if err != nil {
		return err
	}

	if *doc != "" {
		d, err := x.GetToolDoc(ctx, *doc, tooldoc.DetailFull)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s\n\n%s\n", *doc, d.Summary)
		if d.Notes != "" {
			fmt.Fprintf(e.stdout, "\n%s\n", d.Notes)
		}
		examples, err := x.DocStore().ListExamples(*doc, 5)
		if err != nil {
			return err
		}
		for _, ex := range examples {
			fmt.Fprintf(e.stdout, "\nexample: %s\n  %v\n", ex.Title, ex.Args)
		}
		return nil
	}

	results, err := x.SearchTools(ctx, *query, *limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(e.stdout, "%s\t%s\n", r.ID, r.ShortDescription)
	}
	return nil
}
