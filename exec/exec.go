package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"

	"github.com/jonwraymond/bingen/assemble"
	"github.com/jonwraymond/bingen/toolchain"
)

// Exec is the facade over toolchain discovery, assembly and the tool catalog.
// It is safe for concurrent use.
type Exec struct {
	asm      *assemble.Assembler
	index    index.Index
	docs     tooldoc.Store
	handlers map[string]Handler
	opts     Options
}

// New locates the toolchain (unless Options.Toolchain is set), builds the
// assembler and registers the bingen tools in the index.
//
// Discovery failures are returned as-is, so errors.Is(err,
// toolchain.ErrNotFound) reports a missing toolchain.
func New(ctx context.Context, opts Options) (*Exec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	var tc toolchain.Toolchain
	if opts.Toolchain != nil {
		tc = *opts.Toolchain
		if tc.Source == "" {
			tc.Source = "explicit"
		}
	} else {
		var err error
		if tc, err = toolchain.Locate(ctx, opts.Locator); err != nil {
			return nil, err
		}
	}

	acfg := assemble.Config{
		Toolchain: tc,
		Runner:    opts.Runner,
		Mode:      opts.Mode,
		TempDir:   opts.TempDir,
		Timeout:   opts.Timeout,
	}
	if opts.Logger != nil {
		acfg.Logger = opts.Logger
	}
	asm, err := assemble.New(acfg)
	if err != nil {
		return nil, err
	}

	e := &Exec{
		asm:   asm,
		index: opts.Index,
		docs:  opts.Docs,
		opts:  opts,
	}
	e.handlers = map[string]Handler{
		handlerAssemble: e.assembleHandler,
		handlerLocate:   e.locateHandler,
	}
	for name, h := range opts.LocalHandlers {
		e.handlers[name] = h
	}
	if err := e.register(); err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Info("bingen ready",
			"compiler", tc.Compiler,
			"objcopy", tc.ObjCopy,
			"source", tc.Source,
			"mode", opts.Mode.String())
	}
	return e, nil
}

// Bingen assembles source for triple and returns the flat binary bytes.
// Empty source yields an empty, non-nil slice.
func (e *Exec) Bingen(ctx context.Context, triple, source string) ([]byte, error) {
	res, err := e.asm.Assemble(ctx, assemble.Request{Triple: triple, Source: source})
	if err != nil {
		return nil, err
	}
	return res.Bytes, nil
}

// Assemble runs a request and reports it as a bingen:assemble result.
func (e *Exec) Assemble(ctx context.Context, req assemble.Request) (Result, error) {
	start := time.Now()
	res, err := e.asm.Assemble(ctx, req)
	if err != nil {
		return Result{ToolID: AssembleToolID, Duration: time.Since(start), Error: err}, err
	}
	return Result{
		Value:    res,
		Bytes:    res.Bytes,
		ToolID:   AssembleToolID,
		Duration: time.Since(start),
	}, nil
}

// RunTool executes a tool by ID. The tool must be registered in the index
// with a local backend whose name has a handler.
func (e *Exec) RunTool(ctx context.Context, toolID string, args map[string]any) (Result, error) {
	start := time.Now()

	h, err := e.resolve(toolID)
	if err != nil {
		return Result{ToolID: toolID, Duration: time.Since(start), Error: err}, err
	}
	if args == nil {
		args = map[string]any{}
	}

	value, err := h(ctx, args)
	duration := time.Since(start)
	if err != nil {
		if e.opts.Logger != nil {
			e.opts.Logger.Warn("tool failed", "tool", toolID, "error", err)
		}
		return Result{ToolID: toolID, Duration: duration, Error: err}, err
	}

	res := Result{Value: value, ToolID: toolID, Duration: duration}
	if out, ok := value.(AssembleOutput); ok {
		res.Bytes = out.Raw()
	}
	return res, nil
}

func (e *Exec) resolve(toolID string) (Handler, error) {
	_, backend, err := e.index.GetTool(toolID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolNotFound, toolID, err)
	}
	if backend.Kind != model.BackendKindLocal || backend.Local == nil {
		return nil, fmt.Errorf("%w: %s has %q backend", ErrNoHandler, toolID, backend.Kind)
	}
	h, ok := e.handlers[backend.Local.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s wants %q", ErrNoHandler, toolID, backend.Local.Name)
	}
	return h, nil
}

// SearchTools finds tools matching a query.
func (e *Exec) SearchTools(ctx context.Context, query string, limit int) ([]ToolSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.index.Search(query, limit)
}

// GetToolDoc retrieves tool documentation at the specified detail level.
func (e *Exec) GetToolDoc(ctx context.Context, toolID string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	if err := ctx.Err(); err != nil {
		return tooldoc.ToolDoc{}, err
	}
	return e.docs.DescribeTool(toolID, level)
}

// Toolchain returns the toolchain in use.
func (e *Exec) Toolchain() toolchain.Toolchain {
	return e.asm.Toolchain()
}

// Mode returns the assembler pipeline mode.
func (e *Exec) Mode() assemble.Mode {
	return e.asm.Mode()
}

// Index returns the underlying tool index.
func (e *Exec) Index() index.Index {
	return e.index
}

// DocStore returns the underlying documentation store.
func (e *Exec) DocStore() tooldoc.Store {
	return e.docs
}
