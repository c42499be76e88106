package exec

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/bingen/assemble"
	"github.com/jonwraymond/bingen/process"
	"github.com/jonwraymond/bingen/toolchain"
)

// Errors returned by Exec.
var (
	ErrConfiguration = errors.New("exec: invalid configuration")
	ErrToolNotFound  = errors.New("exec: tool not found")
	ErrInvalidArgs   = errors.New("exec: invalid arguments")
	ErrNoHandler     = errors.New("exec: no handler for tool backend")
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

// Options configures an Exec instance.
type Options struct {
	// Locator configures toolchain discovery. Ignored when Toolchain is set.
	Locator toolchain.Config

	// Toolchain skips discovery and uses the given paths.
	Toolchain *toolchain.Toolchain

	// Runner executes the toolchain.
	// Default: process.NewHostRunner()
	Runner process.Runner

	// Mode selects the assembler pipeline.
	// Default: assemble.ModeFile
	Mode assemble.Mode

	// TempDir is the parent of scratch directories in file mode.
	// Default: os.TempDir()
	TempDir string

	// Timeout bounds each assembly. Zero means no limit.
	Timeout time.Duration

	// Index receives the bingen tools.
	// Default: in-memory index with BM25 search
	Index index.Index

	// Docs provides tool documentation. When it also exposes
	// RegisterDoc, docs for the bingen tools are registered.
	// Default: in-memory store backed by Index
	Docs tooldoc.Store

	// LocalHandlers serves additional local-backend tools from Index.
	// Names used by the bingen tools are reserved.
	LocalHandlers map[string]Handler

	// Logger is an optional logger shared with the locator and assembler.
	Logger Logger
}

func (o *Options) validate() error {
	if o.Toolchain != nil {
		if err := o.Toolchain.Validate(); err != nil {
			return fmt.Errorf("%w: toolchain: %v", ErrConfiguration, err)
		}
	}
	if o.Mode != assemble.ModeFile && o.Mode != assemble.ModeStream {
		return fmt.Errorf("%w: unknown mode %v", ErrConfiguration, o.Mode)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrConfiguration)
	}
	for name, h := range o.LocalHandlers {
		if name == handlerAssemble || name == handlerLocate {
			return fmt.Errorf("%w: handler name %q is reserved", ErrConfiguration, name)
		}
		if h == nil {
			return fmt.Errorf("%w: handler %q is nil", ErrConfiguration, name)
		}
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.Runner == nil {
		o.Runner = process.NewHostRunner()
	}
	if o.Locator.Runner == nil {
		o.Locator.Runner = o.Runner
	}
	if o.Locator.Logger == nil && o.Logger != nil {
		o.Locator.Logger = o.Logger
	}
	if o.Index == nil {
		o.Index = newIndex()
	}
	if o.Docs == nil {
		o.Docs = tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: o.Index})
	}
}
