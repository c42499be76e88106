package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonwraymond/bingen/process"
	"github.com/jonwraymond/bingen/toolchain"
)

// Scratch file names used by ModeFile.
const (
	SourceFile = "bingen.S"
	ObjectFile = "bingen.o"
	BinaryFile = "bingen.bin"
)

// Stage names reported in ToolError.Tool.
const (
	StageCompiler = "compiler"
	StageObjCopy  = "objcopy"
)

// Logger is the interface for logging.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config configures an Assembler.
type Config struct {
	// Toolchain holds the compiler and object-copy paths.
	// Required.
	Toolchain toolchain.Toolchain

	// Runner executes the toolchain.
	// Default: process.NewHostRunner()
	Runner process.Runner

	// Mode selects file or stream pipelines.
	// Default: ModeFile
	Mode Mode

	// TempDir is the parent of per-call scratch directories.
	// Default: os.TempDir()
	TempDir string

	// Timeout bounds each Assemble call. Zero means no limit.
	Timeout time.Duration

	// Logger is an optional logger for pipeline events.
	Logger Logger
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if err := c.Toolchain.Validate(); err != nil {
		return fmt.Errorf("%w: toolchain: %v", ErrConfiguration, err)
	}
	if c.Mode != ModeFile && c.Mode != ModeStream {
		return fmt.Errorf("%w: unknown mode %v", ErrConfiguration, c.Mode)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrConfiguration)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Runner == nil {
		c.Runner = process.NewHostRunner()
	}
}

// Assembler converts assembly text to flat binary bytes.
//
// An Assembler is safe for concurrent use; each call owns its scratch
// directory.
type Assembler struct {
	cfg Config
}

// New creates an Assembler with the given configuration.
// Returns ErrConfiguration if the configuration is invalid.
func New(cfg Config) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Assembler{cfg: cfg}, nil
}

// Toolchain returns the toolchain this Assembler drives.
func (a *Assembler) Toolchain() toolchain.Toolchain {
	return a.cfg.Toolchain
}

// Mode returns the configured pipeline mode.
func (a *Assembler) Mode() Mode {
	return a.cfg.Mode
}

// Assemble runs the pipeline for req.
func (a *Assembler) Assemble(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	if a.cfg.Logger != nil {
		a.cfg.Logger.Info("assembling",
			"triple", req.Triple,
			"mode", a.cfg.Mode.String(),
			"sourceBytes", len(req.Source))
	}

	start := time.Now()
	var (
		out []byte
		err error
	)
	switch a.cfg.Mode {
	case ModeStream:
		out, err = a.stream(ctx, req)
	default:
		out, err = a.files(ctx, req)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && a.cfg.Timeout > 0 {
			return Result{}, fmt.Errorf("%w: timeout after %v", ErrLimitExceeded, a.cfg.Timeout)
		}
		return Result{}, err
	}
	if out == nil {
		out = []byte{}
	}
	return Result{Bytes: out, Mode: a.cfg.Mode, Duration: time.Since(start)}, nil
}

// files is the scratch-directory pipeline.
func (a *Assembler) files(ctx context.Context, req Request) ([]byte, error) {
	dir, err := os.MkdirTemp(a.cfg.TempDir, "bingen-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create scratch dir: %v", ErrIO, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil && a.cfg.Logger != nil {
			a.cfg.Logger.Warn("scratch cleanup failed", "dir", dir, "error", err)
		}
	}()

	src := filepath.Join(dir, SourceFile)
	obj := filepath.Join(dir, ObjectFile)
	bin := filepath.Join(dir, BinaryFile)

	if err := os.WriteFile(src, []byte(req.Source), 0o600); err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", ErrIO, SourceFile, err)
	}

	tc := a.cfg.Toolchain
	compile := process.Spec{
		Path: tc.Compiler,
		Args: []string{"-target", req.Triple, "-xassembler-with-cpp", "-o", obj, "-c", src},
		Dir:  dir,
	}
	if err := a.run(ctx, StageCompiler, compile); err != nil {
		return nil, err
	}

	objcopy := process.Spec{
		Path: tc.ObjCopy,
		Args: []string{"-O", "binary", obj, bin},
		Dir:  dir,
	}
	if err := a.run(ctx, StageObjCopy, objcopy); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, BinaryFile, err)
	}
	return out, nil
}

func (a *Assembler) run(ctx context.Context, stage string, spec process.Spec) error {
	res, err := a.cfg.Runner.Run(ctx, spec)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	if !res.OK() {
		return &ToolError{
			Tool:     stage,
			Path:     spec.Path,
			Command:  spec.String(),
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}
	return nil
}

// stream is the stdio pipeline. Every stage's exit status is checked.
func (a *Assembler) stream(ctx context.Context, req Request) ([]byte, error) {
	tc := a.cfg.Toolchain
	stages := []process.Spec{
		{
			Path:  tc.Compiler,
			Args:  []string{"-target", req.Triple, "-xassembler-with-cpp", "-c", "-o", "-", "-"},
			Stdin: []byte(req.Source),
		},
		{
			Path: tc.ObjCopy,
			Args: []string{"-O", "binary", "-", "-"},
		},
	}
	names := []string{StageCompiler, StageObjCopy}

	results, err := process.Chain(ctx, a.cfg.Runner, stages...)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	if i := failedStage(results); i >= 0 {
		return nil, &ToolError{
			Tool:     names[i],
			Path:     stages[i].Path,
			Command:  stages[i].String(),
			ExitCode: results[i].ExitCode,
			Stderr:   results[i].Stderr,
			Err:      err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	if len(results) != len(stages) {
		return nil, fmt.Errorf("%w: pipeline ran %d of %d stages", ErrToolFailed, len(results), len(stages))
	}
	return results[len(results)-1].Stdout, nil
}

// failedStage picks the stage whose failure explains a pipeline run, or -1
// when every stage succeeded. A stage that wrote diagnostics wins over an
// earlier silent one, and an upstream stage killed by a signal (typically
// SIGPIPE after its reader quit) defers to the downstream failure.
func failedStage(results []process.Result) int {
	first := -1
	for i, res := range results {
		if res.OK() {
			continue
		}
		if strings.TrimSpace(res.Stderr) != "" {
			return i
		}
		if first < 0 || results[first].ExitCode == -1 {
			first = i
		}
	}
	return first
}
